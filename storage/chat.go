package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"victoweb/domain"
)

const dueDateLayout = "2006-01-02"

// CreateMessage appends a chat message, truncating the body to the cap.
func (s *Store) CreateMessage(ctx context.Context, authorID int64, body string) (domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		AuthorID:  authorID,
		Body:      truncate(body, MaxChatMessageLength),
		CreatedAt: time.Now(),
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (author_id, body, created_at) VALUES (?, ?, ?)",
		msg.AuthorID, msg.Body, msg.CreatedAt)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

// ListMessages returns the full chat log in creation order, authors resolved.
func (s *Store) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.author_id, m.body, m.created_at,
		        u.username, u.full_name, u.first_name, u.last_name
		 FROM chat_messages m
		 JOIN users u ON u.id = m.author_id
		 ORDER BY m.created_at, m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.AuthorID, &m.Body, &m.CreatedAt,
			&m.Author.Username, &m.Author.FullName, &m.Author.FirstName, &m.Author.LastName); err != nil {
			return nil, err
		}
		m.Author.ID = m.AuthorID
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TaskInput carries the writable fields of a board task.
type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *int64
}

// CreateTask persists a board task. Enum fields are normalized and text
// fields truncated before the write.
func (s *Store) CreateTask(ctx context.Context, creatorID int64, in TaskInput) (domain.ChatTask, error) {
	now := time.Now()
	task := domain.ChatTask{
		Title:       truncate(in.Title, MaxTaskTitleLength),
		Description: truncate(in.Description, MaxTaskDescriptionLength),
		Status:      domain.NormalizeStatus(in.Status),
		Priority:    domain.NormalizePriority(in.Priority),
		DueDate:     in.DueDate,
		CreatedBy:   creatorID,
		AssignedTo:  in.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_tasks (title, description, status, priority, due_date, created_by, assigned_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		formatDueDate(task.DueDate), task.CreatedBy, task.AssignedTo, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return domain.ChatTask{}, err
	}
	task.ID, err = res.LastInsertId()
	if err != nil {
		return domain.ChatTask{}, err
	}
	return task, nil
}

// ListTasks returns every board task with assignee and checklist resolved.
// Ordering is the caller's concern; the view layer sorts.
func (s *Store) ListTasks(ctx context.Context) ([]domain.ChatTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
		        t.created_by, t.assigned_to, t.created_at, t.updated_at,
		        u.username, u.full_name, u.first_name, u.last_name
		 FROM chat_tasks t
		 LEFT JOIN users u ON u.id = t.assigned_to
		 ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.ChatTask
	index := make(map[int64]int)
	for rows.Next() {
		var t domain.ChatTask
		var status, priority string
		var due sql.NullString
		var assignedTo sql.NullInt64
		var username, fullName, firstName, lastName sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due,
			&t.CreatedBy, &assignedTo, &t.CreatedAt, &t.UpdatedAt,
			&username, &fullName, &firstName, &lastName); err != nil {
			return nil, err
		}
		t.Status = domain.NormalizeStatus(status)
		t.Priority = domain.NormalizePriority(priority)
		t.DueDate = parseDueDate(due)
		if assignedTo.Valid {
			id := assignedTo.Int64
			t.AssignedTo = &id
			t.Assignee = &domain.User{
				ID:        id,
				Username:  username.String,
				FullName:  fullName.String,
				FirstName: firstName.String,
				LastName:  lastName.String,
			}
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, task_id, label, is_done, created_at FROM chat_task_items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item domain.TaskItem
		if err := itemRows.Scan(&item.ID, &item.TaskID, &item.Label, &item.Done, &item.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[item.TaskID]; ok {
			tasks[i].Todos = append(tasks[i].Todos, item)
		}
	}
	return tasks, itemRows.Err()
}

// UpdateTaskStatus moves a task to another column, normalizing unknown input.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chat_tasks SET status = ?, updated_at = ? WHERE id = ?",
		string(domain.NormalizeStatus(status)), time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTaskAssignment sets or clears the assignee.
func (s *Store) UpdateTaskAssignment(ctx context.Context, id int64, assigneeID *int64) error {
	if assigneeID != nil {
		if _, err := s.UserByID(ctx, *assigneeID); err != nil {
			return err
		}
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE chat_tasks SET assigned_to = ?, updated_at = ? WHERE id = ?",
		assigneeID, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task; its checklist cascades away.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTaskItem appends a checklist entry to a task.
func (s *Store) AddTaskItem(ctx context.Context, taskID int64, label string) (domain.TaskItem, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_tasks WHERE id = ?", taskID).Scan(&exists); err != nil {
		return domain.TaskItem{}, err
	}
	if exists == 0 {
		return domain.TaskItem{}, ErrNotFound
	}
	item := domain.TaskItem{
		TaskID:    taskID,
		Label:     truncate(label, MaxTodoLabelLength),
		CreatedAt: time.Now(),
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_task_items (task_id, label, is_done, created_at) VALUES (?, ?, 0, ?)",
		item.TaskID, item.Label, item.CreatedAt)
	if err != nil {
		return domain.TaskItem{}, err
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return domain.TaskItem{}, err
	}
	return item, nil
}

// ToggleTaskItem sets the done flag on a checklist entry.
func (s *Store) ToggleTaskItem(ctx context.Context, id int64, done bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE chat_task_items SET is_done = ? WHERE id = ?", done, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatDueDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dueDateLayout)
}

func parseDueDate(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	d, err := time.ParseInLocation(dueDateLayout, v.String, time.Local)
	if err != nil {
		return nil
	}
	return &d
}

// IsNotFound reports whether err is the store's missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
