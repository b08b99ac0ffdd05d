package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// withEnv opens the environment for mode, runs fn and closes it again.
func withEnv(opts *globalOptions, mode openMode, fn func(cmd *cobra.Command, rt *cliEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := opts.open(cmd, mode)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt, args)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(stats.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

// ============================================================
// user
// ============================================================

func newUserCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a user profile",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, openNoUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
				u, err := rt.store.CreateUser(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%d)\n", u.Name, u.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List user profiles",
			Args:  cobra.NoArgs,
			RunE: withEnv(opts, openNoUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
				users, err := rt.store.ListUsers()
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users")
					return nil
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Name, u.CreatedAt.Format(stats.DateLayout)})
				}
				renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Created"}, rows)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a user profile and everything it owns",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, openNoUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
				u, err := rt.store.GetUserByName(args[0])
				if err != nil {
					return err
				}
				if err := rt.store.DeleteUser(u.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", u.Name)
				return nil
			}),
		},
	)
	return cmd
}

// ============================================================
// session
// ============================================================

func newSessionCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Log and manage study sessions",
	}

	var addDate, addNote string
	add := &cobra.Command{
		Use:   "add <subject> <minutes>",
		Short: "Log a study session",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			minutes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid minutes %q", args[1])
			}
			date := rt.today()
			if addDate != "" {
				if date, err = parseDate(addDate); err != nil {
					return err
				}
			}
			s, err := rt.store.CreateSession(rt.user.ID, args[0], minutes, date, addNote)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged session %d: %s %s on %s\n",
				s.ID, s.Subject, stats.FormatMinutes(s.Duration), s.Date.Format(stats.DateLayout))
			return nil
		}),
	}
	add.Flags().StringVar(&addDate, "date", "", "Study date (YYYY-MM-DD, default today)")
	add.Flags().StringVar(&addNote, "note", "", "Free-text note")

	var listDate, listSubject string
	var listLimit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List study sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			f := store.SessionFilter{Subject: listSubject, Limit: listLimit}
			if listDate != "" {
				d, err := parseDate(listDate)
				if err != nil {
					return err
				}
				f.Date = &d
			}
			sessions, err := rt.store.FilterSessions(rt.user.ID, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions")
				return nil
			}
			total := 0
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				total += s.Duration
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Date.Format(stats.DateLayout),
					s.Subject,
					stats.FormatMinutes(s.Duration),
					s.Note,
				})
			}
			renderTable(out, []string{"ID", "Date", "Subject", "Duration", "Note"}, rows)
			fmt.Fprintf(out, "%d session(s), %s\n", len(sessions), stats.FormatMinutes(total))
			return nil
		}),
	}
	list.Flags().StringVar(&listDate, "date", "", "Only sessions on this date")
	list.Flags().StringVar(&listSubject, "subject", "", "Only sessions with this subject")
	list.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of sessions")

	var editSubject, editDate, editNote string
	var editMinutes int
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a study session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := rt.store.GetSession(rt.user.ID, id)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			subject, minutes, date, note := s.Subject, s.Duration, s.Date, s.Note
			if flags.Changed("subject") {
				subject = editSubject
			}
			if flags.Changed("minutes") {
				minutes = editMinutes
			}
			if flags.Changed("date") {
				if date, err = parseDate(editDate); err != nil {
					return err
				}
			}
			if flags.Changed("note") {
				note = editNote
			}
			if _, err := rt.store.UpdateSession(rt.user.ID, id, subject, minutes, date, note); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated session %d\n", id)
			return nil
		}),
	}
	edit.Flags().StringVar(&editSubject, "subject", "", "New subject")
	edit.Flags().IntVar(&editMinutes, "minutes", 0, "New duration in minutes")
	edit.Flags().StringVar(&editDate, "date", "", "New date (YYYY-MM-DD)")
	edit.Flags().StringVar(&editNote, "note", "", "New note")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a study session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt.store.DeleteSession(rt.user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(add, list, edit, del)
	return cmd
}

// ============================================================
// todo
// ============================================================

func newTodoCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage the todo list",
	}

	printTodo := func(w io.Writer, verb string, t *store.TodoItem) {
		fmt.Fprintf(w, "%s todo %d: %s\n", verb, t.ID, t.Title)
	}

	add := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			t, err := rt.store.CreateTodo(rt.user.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), "Added", t)
			return nil
		}),
	}

	var listFilter, listOrder string
	var listPage int
	list := &cobra.Command{
		Use:   "list",
		Short: "List todos, important first",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			page, err := rt.store.FilterTodos(rt.user.ID, store.TodoFilter{
				Status: store.TodoStatus(listFilter),
				Order:  store.TodoOrder(listOrder),
				Page:   listPage,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No todos")
				return nil
			}
			rows := make([][]string, 0, len(page.Items))
			for _, t := range page.Items {
				done, star := "[ ]", ""
				if t.Completed {
					done = "[x]"
				}
				if t.IsImportant {
					star = "★"
				}
				rows = append(rows, []string{strconv.FormatInt(t.ID, 10), done, star, t.Title})
			}
			renderTable(out, []string{"ID", "Done", "!", "Title"}, rows)
			fmt.Fprintf(out, "Page %d of %d (%d todos)\n", page.Page, max(1, page.TotalPages), page.Total)
			return nil
		}),
	}
	list.Flags().StringVar(&listFilter, "filter", string(store.TodoAll), "all, pending or completed")
	list.Flags().StringVar(&listOrder, "order", string(store.TodoNewest), "newest or oldest")
	list.Flags().IntVar(&listPage, "page", 1, "Page number")

	toggle := func(use, short string, fn func(rt *cliEnv, id int64) (*store.TodoItem, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				t, err := fn(rt, id)
				if err != nil {
					return err
				}
				printTodo(cmd.OutOrStdout(), "Updated", t)
				return nil
			}),
		}
	}

	done := toggle("done", "Toggle a todo's completion", func(rt *cliEnv, id int64) (*store.TodoItem, error) {
		return rt.store.ToggleTodo(rt.user.ID, id)
	})
	important := toggle("important", "Toggle a todo's importance", func(rt *cliEnv, id int64) (*store.TodoItem, error) {
		return rt.store.ToggleImportant(rt.user.ID, id)
	})

	edit := &cobra.Command{
		Use:   "edit <id> <title>...",
		Short: "Change a todo's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := rt.store.EditTodoTitle(rt.user.ID, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), "Updated", t)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt.store.DeleteTodo(rt.user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(add, list, done, important, edit, del)
	return cmd
}
