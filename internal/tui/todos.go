package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studytrack/internal/store"
)

var todoStatuses = []store.TodoStatus{store.TodoAll, store.TodoPending, store.TodoCompleted}

type todosModel struct {
	deps   *deps
	width  int
	height int

	filter store.TodoFilter
	page   *store.TodoPage
	cursor int

	formActive bool
	form       *huh.Form
	formTitle  *string
	editingID  int64 // 0 when the form creates a todo
}

func newTodosModel(d *deps) todosModel {
	title := ""
	return todosModel{
		deps:      d,
		filter:    store.TodoFilter{Status: store.TodoAll, Order: store.TodoNewest, Page: 1},
		formTitle: &title,
	}
}

func (t *todosModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type todosDataMsg struct {
	page *store.TodoPage
}

func (t todosModel) refresh() tea.Cmd {
	st, userID, f := t.deps.store, t.deps.user.ID, t.filter
	return func() tea.Msg {
		page, err := st.FilterTodos(userID, f)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load todos: %v", err), isError: true}
		}
		return todosDataMsg{page: page}
	}
}

func (t todosModel) items() []store.TodoItem {
	if t.page == nil {
		return nil
	}
	return t.page.Items
}

func (t todosModel) selected() (store.TodoItem, bool) {
	items := t.items()
	if t.cursor < 0 || t.cursor >= len(items) {
		return store.TodoItem{}, false
	}
	return items[t.cursor], true
}

func (t todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case todosDataMsg:
		t.page = msg.page
		t.filter.Page = msg.page.Page
		t.cursor = clamp(t.cursor, 0, max(0, len(msg.page.Items)-1))
		return t, nil
	case tea.KeyMsg:
		return t.updateList(msg)
	}
	return t, nil
}

func (t todosModel) updateList(msg tea.KeyMsg) (todosModel, tea.Cmd) {
	st, userID := t.deps.store, t.deps.user.ID

	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(t.items())-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Left):
		if t.filter.Page > 1 {
			t.filter.Page--
			t.cursor = 0
			return t, t.refresh()
		}
	case key.Matches(msg, keys.Right):
		if t.page != nil && t.filter.Page < t.page.TotalPages {
			t.filter.Page++
			t.cursor = 0
			return t, t.refresh()
		}
	case key.Matches(msg, keys.Filter):
		t.filter.Status = nextStatus(t.filter.Status)
		t.filter.Page = 1
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.Order):
		if t.filter.Order == store.TodoOldest {
			t.filter.Order = store.TodoNewest
		} else {
			t.filter.Order = store.TodoOldest
		}
		t.filter.Page = 1
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.New):
		return t.showForm(nil)
	case key.Matches(msg, keys.Edit):
		if item, ok := t.selected(); ok {
			return t.showForm(&item)
		}
	case key.Matches(msg, keys.Complete):
		if item, ok := t.selected(); ok {
			if _, err := st.ToggleTodo(userID, item.ID); err != nil {
				return t, errStatus("Toggle failed: %v", err)
			}
			return t, t.refresh()
		}
	case key.Matches(msg, keys.Important):
		if item, ok := t.selected(); ok {
			if _, err := st.ToggleImportant(userID, item.ID); err != nil {
				return t, errStatus("Toggle failed: %v", err)
			}
			return t, t.refresh()
		}
	case key.Matches(msg, keys.Delete):
		if item, ok := t.selected(); ok {
			if err := st.DeleteTodo(userID, item.ID); err != nil {
				return t, errStatus("Delete failed: %v", err)
			}
			return t, tea.Batch(t.refresh(), infoStatus("Todo deleted"))
		}
	}
	return t, nil
}

func nextStatus(s store.TodoStatus) store.TodoStatus {
	for i, st := range todoStatuses {
		if st == s {
			return todoStatuses[(i+1)%len(todoStatuses)]
		}
	}
	return store.TodoAll
}

func (t todosModel) showForm(existing *store.TodoItem) (todosModel, tea.Cmd) {
	t.editingID = 0
	*t.formTitle = ""
	if existing != nil {
		t.editingID = existing.ID
		*t.formTitle = existing.Title
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Todo").Value(t.formTitle).Validate(validateTitle),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}
	if t.form.State != huh.StateCompleted {
		return t, cmd
	}

	t.formActive = false
	t.form = nil
	st, userID := t.deps.store, t.deps.user.ID
	if t.editingID == 0 {
		if _, err := st.CreateTodo(userID, *t.formTitle); err != nil {
			return t, errStatus("Save failed: %v", err)
		}
		return t, tea.Batch(t.refresh(), infoStatus("Todo added"))
	}
	if _, err := st.EditTodoTitle(userID, t.editingID, *t.formTitle); err != nil {
		return t, errStatus("Save failed: %v", err)
	}
	return t, tea.Batch(t.refresh(), infoStatus("Todo updated"))
}

func (t todosModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := "New Todo"
		if t.editingID != 0 {
			title = "Edit Todo"
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(title), "", t.form.View()))
	}

	total, page, pages := 0, t.filter.Page, 1
	if t.page != nil {
		total, page, pages = t.page.Total, t.page.Page, max(1, t.page.TotalPages)
	}

	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("Todos"),
		highlightStyle.Render(fmt.Sprintf("%s · %s", t.filter.Status, t.filter.Order)),
		mutedStyle.Render(fmt.Sprintf("%d item(s)  page %d/%d", total, page, pages)),
	)
	rows := []string{header, ""}

	items := t.items()
	if len(items) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing here. Press n to add a todo."))
	}
	for i, item := range items {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if item.Completed {
			check = "[x]"
		}
		star := " "
		if item.IsImportant {
			star = warningStyle.Render("★")
		}
		title := truncate(item.Title, max(10, w-16))
		if item.Completed {
			title = doneItemStyle.Render(title)
		} else {
			title = style.Render(title)
		}
		line := fmt.Sprintf("%s%s %s %s", style.Render(cursor), check, star, title)
		if item.IsEdited {
			line += mutedStyle.Render(" (edited)")
		}
		rows = append(rows, line)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  c: done  i: important  d: delete  f: filter  o: order  ←/→: page"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
