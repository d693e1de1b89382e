package domain

import (
	"sort"
	"strings"
	"time"
)

// TaskStatus enumerates board columns.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"
)

// TaskPriority enumerates urgency buckets.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Display option lists, in the order forms present them.
var (
	StatusOptions = []Option{
		{Value: string(StatusTodo), Label: "To Do"},
		{Value: string(StatusInProgress), Label: "In Progress"},
		{Value: string(StatusBlocked), Label: "Blocked"},
		{Value: string(StatusDone), Label: "Done"},
	}
	PriorityOptions = []Option{
		{Value: string(PriorityLow), Label: "Low"},
		{Value: string(PriorityMedium), Label: "Medium"},
		{Value: string(PriorityHigh), Label: "High"},
		{Value: string(PriorityUrgent), Label: "Urgent"},
	}
)

// Option is a value/label pair for select inputs.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// NormalizeStatus maps unknown values to the default column before
// persistence; filters use SanitizeTaskFilter instead, which clears them.
func NormalizeStatus(raw string) TaskStatus {
	s := TaskStatus(strings.TrimSpace(strings.ToLower(raw)))
	if s.Valid() {
		return s
	}
	return StatusTodo
}

func NormalizePriority(raw string) TaskPriority {
	p := TaskPriority(strings.TrimSpace(strings.ToLower(raw)))
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// OptionLabel resolves the display label for a value, falling back to the
// raw value for anything unknown.
func OptionLabel(options []Option, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// ChatTask is a board item owned by the admin hub.
type ChatTask struct {
	ID          int64
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time // date precision; nil means no due date
	CreatedBy   int64
	AssignedTo  *int64
	Assignee    *User // resolved by the store when assigned
	Todos       []TaskItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskItem is a checklist entry belonging to exactly one task.
type TaskItem struct {
	ID        int64
	TaskID    int64
	Label     string
	Done      bool
	CreatedAt time.Time
}

// Overdue reports whether the task's due date has passed relative to today.
// Done tasks are never overdue.
func (t ChatTask) Overdue(today time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	y, m, d := today.Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	return t.DueDate.Before(startOfToday)
}

// CountTodos partitions the task's checklist on the done flag.
func (t ChatTask) CountTodos() (outstanding, completed int) {
	for _, item := range t.Todos {
		if item.Done {
			completed++
		} else {
			outstanding++
		}
	}
	return outstanding, completed
}

// TaskFilter narrows the board view. Empty fields mean unfiltered.
type TaskFilter struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Query    string `json:"query"`
}

// SanitizeTaskFilter trims the free-text query and clears status/priority
// values outside the enumerated sets. Unrecognized input is never an error.
// The function is pure and idempotent.
func SanitizeTaskFilter(f TaskFilter) TaskFilter {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if !TaskStatus(status).Valid() {
		status = ""
	}
	priority := strings.ToLower(strings.TrimSpace(f.Priority))
	if !TaskPriority(priority).Valid() {
		priority = ""
	}
	return TaskFilter{
		Status:   status,
		Priority: priority,
		Query:    strings.TrimSpace(f.Query),
	}
}

// Matches applies a sanitized filter to one task. The free-text query matches
// case-insensitively against title, description, or assignee display name;
// any one hit is sufficient.
func (f TaskFilter) Matches(t ChatTask) bool {
	if f.Status != "" && string(t.Status) != f.Status {
		return false
	}
	if f.Priority != "" && string(t.Priority) != f.Priority {
		return false
	}
	if f.Query != "" {
		needle := strings.ToLower(f.Query)
		assignee := ""
		if t.Assignee != nil {
			assignee = strings.ToLower(t.Assignee.DisplayName())
		}
		return strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) ||
			strings.Contains(assignee, needle)
	}
	return true
}

func priorityRank(p TaskPriority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// SortTasks orders the board in place: non-done before done, then priority
// rank, then due date ascending with undated tasks last, then newest first.
func SortTasks(tasks []ChatTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		aDone := a.Status == StatusDone
		bDone := b.Status == StatusDone
		if aDone != bDone {
			return !aDone
		}
		ar, br := priorityRank(a.Priority), priorityRank(b.Priority)
		if ar != br {
			return ar < br
		}
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// TaskSummary counts tasks by status and priority over the full board,
// independent of any active filter.
type TaskSummary struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Blocked    int `json:"blocked"`
	Done       int `json:"done"`
	Urgent     int `json:"urgent"`
	High       int `json:"high"`
	Medium     int `json:"medium"`
	Low        int `json:"low"`
}

// Summarize tallies the unfiltered task universe.
func Summarize(tasks []ChatTask) TaskSummary {
	var s TaskSummary
	for _, t := range tasks {
		s.Total++
		switch t.Status {
		case StatusTodo:
			s.Todo++
		case StatusInProgress:
			s.InProgress++
		case StatusBlocked:
			s.Blocked++
		case StatusDone:
			s.Done++
		}
		switch t.Priority {
		case PriorityUrgent:
			s.Urgent++
		case PriorityHigh:
			s.High++
		case PriorityMedium:
			s.Medium++
		case PriorityLow:
			s.Low++
		}
	}
	return s
}
