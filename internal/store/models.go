package store

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StudySession is one logged block of study. Date is a civil date
// (midnight UTC); CreatedAt is the server-assigned insert time.
type StudySession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Duration  int       `json:"duration_minutes"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TodoItem struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	Title             string     `json:"title"`
	Completed         bool       `json:"completed"`
	IsImportant       bool       `json:"is_important"`
	ImportantMarkedAt *time.Time `json:"important_marked_at"`
	IsEdited          bool       `json:"is_edited"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CalendarEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	Key   string
	Value string
}

// EventColors is the fixed palette a calendar event may use.
var EventColors = []string{"blue", "green", "red", "yellow", "purple", "orange", "gray"}

// TodoStatus selects which todos a listing returns.
type TodoStatus string

const (
	TodoAll       TodoStatus = "all"
	TodoPending   TodoStatus = "pending"
	TodoCompleted TodoStatus = "completed"
)

// TodoOrder is the creation-time direction applied after importance.
type TodoOrder string

const (
	TodoNewest TodoOrder = "newest"
	TodoOldest TodoOrder = "oldest"
)

// TodoPageSize is the number of todos per listing page.
const TodoPageSize = 10

// TodoFilter is used to filter and page todo listings.
type TodoFilter struct {
	Status TodoStatus
	Order  TodoOrder
	Page   int // 1-based; 0 returns every matching row
}

// TodoPage is one page of a filtered listing plus its counters.
type TodoPage struct {
	Items      []TodoItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
}

// SessionFilter is used to filter session listings.
type SessionFilter struct {
	Date    *time.Time
	Subject string
	Limit   int
}
