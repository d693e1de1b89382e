// Package view projects persisted entities into read-only DTOs for display
// surfaces. Projections are pure: they never write back into entities or the
// store, and every derived field (labels, overdue flags, humanized times) is
// computed on the way out.
package view

import (
	"context"
	"strings"
	"time"

	"victoweb/domain"
)

// Storage is the read surface the projections need.
type Storage interface {
	ListMessages(ctx context.Context) ([]domain.ChatMessage, error)
	ListTasks(ctx context.Context) ([]domain.ChatTask, error)
	StaffUsers(ctx context.Context) ([]domain.User, error)
}

// MessageDTO is one chat log entry shaped for the client.
type MessageDTO struct {
	ID             int64  `json:"id"`
	AuthorID       int64  `json:"author_id"`
	AuthorName     string `json:"author_name"`
	Body           string `json:"body"`
	CreatedAtHuman string `json:"created_at_human"`
	IsMine         bool   `json:"is_mine"`
}

// TaskItemDTO is one checklist entry.
type TaskItemDTO struct {
	ID             int64  `json:"id"`
	Label          string `json:"label"`
	IsDone         bool   `json:"is_done"`
	CreatedAtHuman string `json:"created_at_human"`
}

// TaskDTO is one board task with every derived display field resolved.
type TaskDTO struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Status           string        `json:"status"`
	Priority         string        `json:"priority"`
	StatusLabel      string        `json:"status_label"`
	PriorityLabel    string        `json:"priority_label"`
	DueDate          string        `json:"due_date"`
	DueDateHuman     string        `json:"due_date_human"`
	IsOverdue        bool          `json:"is_overdue"`
	AssignedToID     int64         `json:"assigned_to_id"`
	AssignedToName   string        `json:"assigned_to_name"`
	HasAssignee      bool          `json:"has_assignee"`
	CreatedAtHuman   string        `json:"created_at_human"`
	UpdatedAtHuman   string        `json:"updated_at_human"`
	OutstandingTodos int           `json:"outstanding_todos"`
	CompletedTodos   int           `json:"completed_todos"`
	Todos            []TaskItemDTO `json:"todos"`
}

// StaffOption is one entry in the assignment dropdown.
type StaffOption struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// HubData is the combined admin hub payload; clients re-request it (or one of
// its fragments) whenever a stream cue arrives.
type HubData struct {
	Messages        []MessageDTO       `json:"messages"`
	Tasks           []TaskDTO          `json:"tasks"`
	TaskSummary     domain.TaskSummary `json:"task_summary"`
	TaskFilter      domain.TaskFilter  `json:"task_filter"`
	AdminUsers      []StaffOption      `json:"admin_users"`
	StatusOptions   []domain.Option    `json:"task_status_options"`
	PriorityOptions []domain.Option    `json:"task_priority_options"`
}

const (
	timestampLayout = "02 Jan 15:04"
	dateLayout      = "02 Jan 2006"
	isoDateLayout   = "2006-01-02"
)

// HumanizeTimestamp renders a short local-time label, empty for zero times.
func HumanizeTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}

// MessagesForAdmin projects the chat log for one viewer. Viewer identity only
// drives the is_mine styling flag; a zero viewer ID marks nothing as mine.
func MessagesForAdmin(ctx context.Context, store Storage, viewerID int64) ([]MessageDTO, error) {
	messages, err := store.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortMessages(messages)
	dtos := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, MessageDTO{
			ID:             m.ID,
			AuthorID:       m.AuthorID,
			AuthorName:     m.Author.DisplayName(),
			Body:           m.Body,
			CreatedAtHuman: HumanizeTimestamp(m.CreatedAt),
			IsMine:         viewerID != 0 && m.AuthorID == viewerID,
		})
	}
	return dtos, nil
}

// EnsureSystemMessage injects a synthetic system banner at the head of the
// log unless an identical one already leads it. The banner never persists.
func EnsureSystemMessage(messages []MessageDTO, body string) []MessageDTO {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return messages
	}
	if len(messages) > 0 && messages[0].AuthorID == 0 &&
		strings.EqualFold(messages[0].AuthorName, "system") && messages[0].Body == trimmed {
		return messages
	}
	system := MessageDTO{
		AuthorName:     "System",
		Body:           trimmed,
		CreatedAtHuman: HumanizeTimestamp(time.Now()),
	}
	return append([]MessageDTO{system}, messages...)
}

// TasksForAdmin applies the sanitized filter to the board and projects the
// result. The summary always tallies the unfiltered universe.
func TasksForAdmin(ctx context.Context, store Storage, filter domain.TaskFilter) ([]TaskDTO, domain.TaskSummary, error) {
	all, err := store.ListTasks(ctx)
	if err != nil {
		return nil, domain.TaskSummary{}, err
	}
	summary := domain.Summarize(all)

	sanitized := domain.SanitizeTaskFilter(filter)
	filtered := make([]domain.ChatTask, 0, len(all))
	for _, t := range all {
		if sanitized.Matches(t) {
			filtered = append(filtered, t)
		}
	}
	domain.SortTasks(filtered)

	now := time.Now()
	dtos := make([]TaskDTO, 0, len(filtered))
	for _, t := range filtered {
		dtos = append(dtos, taskToDTO(t, now))
	}
	return dtos, summary, nil
}

func taskToDTO(t domain.ChatTask, now time.Time) TaskDTO {
	outstanding, completed := t.CountTodos()
	dto := TaskDTO{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		StatusLabel:      domain.OptionLabel(domain.StatusOptions, string(t.Status)),
		PriorityLabel:    domain.OptionLabel(domain.PriorityOptions, string(t.Priority)),
		AssignedToName:   "Unassigned",
		CreatedAtHuman:   HumanizeTimestamp(t.CreatedAt),
		UpdatedAtHuman:   HumanizeTimestamp(t.UpdatedAt),
		OutstandingTodos: outstanding,
		CompletedTodos:   completed,
		Todos:            make([]TaskItemDTO, 0, len(t.Todos)),
	}
	if t.DueDate != nil {
		dto.DueDate = t.DueDate.Format(isoDateLayout)
		dto.DueDateHuman = t.DueDate.Format(dateLayout)
		dto.IsOverdue = t.Overdue(now)
	}
	if t.Assignee != nil {
		dto.AssignedToID = t.Assignee.ID
		dto.AssignedToName = t.Assignee.DisplayName()
		dto.HasAssignee = true
	}
	for _, item := range t.Todos {
		dto.Todos = append(dto.Todos, TaskItemDTO{
			ID:             item.ID,
			Label:          item.Label,
			IsDone:         item.Done,
			CreatedAtHuman: HumanizeTimestamp(item.CreatedAt),
		})
	}
	return dto
}

// BuildHubData assembles the combined admin hub payload.
func BuildHubData(ctx context.Context, store Storage, viewerID int64, filter domain.TaskFilter, systemMessage string) (HubData, error) {
	messages, err := MessagesForAdmin(ctx, store, viewerID)
	if err != nil {
		return HubData{}, err
	}
	if systemMessage != "" {
		messages = EnsureSystemMessage(messages, systemMessage)
	}
	tasks, summary, err := TasksForAdmin(ctx, store, filter)
	if err != nil {
		return HubData{}, err
	}
	staff, err := store.StaffUsers(ctx)
	if err != nil {
		return HubData{}, err
	}
	options := make([]StaffOption, 0, len(staff))
	for _, u := range staff {
		options = append(options, StaffOption{ID: u.ID, Username: u.Username, FullName: u.FullName})
	}
	return HubData{
		Messages:        messages,
		Tasks:           tasks,
		TaskSummary:     summary,
		TaskFilter:      domain.SanitizeTaskFilter(filter),
		AdminUsers:      options,
		StatusOptions:   domain.StatusOptions,
		PriorityOptions: domain.PriorityOptions,
	}, nil
}
