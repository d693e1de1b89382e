package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"victoweb/domain"
	"victoweb/storage"
)

// stubStore is an in-memory Storage for handler tests. Mutations record what
// they were called with so tests can assert on forwarding.
type stubStore struct {
	users    []domain.User
	posts    []domain.Post
	videos   []domain.Video
	media    []domain.Media
	messages []domain.ChatMessage
	tasks    []domain.ChatTask

	createdMessages []string
	taskInputs      []storage.TaskInput
	statusUpdates   map[int64]string
	assignUpdates   map[int64]*int64
	todoLabels      []string
	toggled         map[int64]bool
	deletedMessages []int64
	deletedTasks    []int64
	syncedPosts     []int64
	lastMediaFilter storage.MediaFilter

	err error
}

func (s *stubStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.User{}, storage.ErrUsernameTaken
		}
	}
	u.ID = int64(len(s.users) + 1)
	u.AdminRole = domain.NormalizeRole(string(u.AdminRole))
	s.users = append(s.users, u)
	return u, nil
}

func (s *stubStore) UserByID(ctx context.Context, id int64) (domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (s *stubStore) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (s *stubStore) StaffUsers(ctx context.Context) ([]domain.User, error) {
	var staff []domain.User
	for _, u := range s.users {
		if u.IsStaff {
			staff = append(staff, u)
		}
	}
	return staff, nil
}

func (s *stubStore) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts, s.err
}

func (s *stubStore) PostBySlug(ctx context.Context, slug string) (domain.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Post{}, storage.ErrNotFound
}

func (s *stubStore) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	p.ID = int64(len(s.posts) + 1)
	p.Slug = domain.Slugify(p.Title)
	p.Committee = domain.NormalizeCommitteeKey(p.Committee)
	if p.Excerpt == "" {
		p.Excerpt = domain.ExcerptFromContent(p.Content)
	}
	s.posts = append(s.posts, p)
	return p, nil
}

func (s *stubStore) UpdatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	for i, existing := range s.posts {
		if existing.ID == p.ID {
			p.Slug = existing.Slug
			p.Committee = domain.NormalizeCommitteeKey(p.Committee)
			s.posts[i] = p
			return p, nil
		}
	}
	return domain.Post{}, storage.ErrNotFound
}

func (s *stubStore) DeletePost(ctx context.Context, id int64) error {
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *stubStore) SyncPostMedia(ctx context.Context, p domain.Post) error {
	s.syncedPosts = append(s.syncedPosts, p.ID)
	return nil
}

func (s *stubStore) ListVideos(ctx context.Context) ([]domain.Video, error) {
	return s.videos, s.err
}

func (s *stubStore) CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error) {
	v.ID = int64(len(s.videos) + 1)
	s.videos = append(s.videos, v)
	return v, nil
}

func (s *stubStore) UpdateVideo(ctx context.Context, v domain.Video) error {
	for i, existing := range s.videos {
		if existing.ID == v.ID {
			s.videos[i] = v
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *stubStore) DeleteVideo(ctx context.Context, id int64) error {
	for i, v := range s.videos {
		if v.ID == id {
			s.videos = append(s.videos[:i], s.videos[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *stubStore) ListMedia(ctx context.Context, f storage.MediaFilter) ([]domain.Media, error) {
	s.lastMediaFilter = f
	return s.media, s.err
}

func (s *stubStore) CreateMedia(ctx context.Context, m domain.Media) (domain.Media, error) {
	m.ID = fmt.Sprintf("media-%d", len(s.media)+1)
	if m.Type != domain.MediaVideo {
		m.Type = domain.MediaImage
	}
	s.media = append(s.media, m)
	return m, nil
}

func (s *stubStore) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	return s.messages, s.err
}

func (s *stubStore) CreateMessage(ctx context.Context, authorID int64, body string) (domain.ChatMessage, error) {
	s.createdMessages = append(s.createdMessages, body)
	msg := domain.ChatMessage{
		ID:        int64(len(s.messages) + 1),
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *stubStore) DeleteMessage(ctx context.Context, id int64) error {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			s.deletedMessages = append(s.deletedMessages, id)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *stubStore) ListTasks(ctx context.Context) ([]domain.ChatTask, error) {
	return s.tasks, s.err
}

func (s *stubStore) CreateTask(ctx context.Context, creatorID int64, in storage.TaskInput) (domain.ChatTask, error) {
	s.taskInputs = append(s.taskInputs, in)
	task := domain.ChatTask{
		ID:        int64(len(s.tasks) + 1),
		Title:     in.Title,
		CreatedBy: creatorID,
	}
	s.tasks = append(s.tasks, task)
	return task, nil
}

func (s *stubStore) findTask(id int64) bool {
	for _, t := range s.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *stubStore) UpdateTaskStatus(ctx context.Context, id int64, status string) error {
	if !s.findTask(id) {
		return storage.ErrNotFound
	}
	if s.statusUpdates == nil {
		s.statusUpdates = make(map[int64]string)
	}
	s.statusUpdates[id] = status
	return nil
}

func (s *stubStore) UpdateTaskAssignment(ctx context.Context, id int64, assigneeID *int64) error {
	if !s.findTask(id) {
		return storage.ErrNotFound
	}
	if s.assignUpdates == nil {
		s.assignUpdates = make(map[int64]*int64)
	}
	s.assignUpdates[id] = assigneeID
	return nil
}

func (s *stubStore) DeleteTask(ctx context.Context, id int64) error {
	if !s.findTask(id) {
		return storage.ErrNotFound
	}
	s.deletedTasks = append(s.deletedTasks, id)
	return nil
}

func (s *stubStore) AddTaskItem(ctx context.Context, taskID int64, label string) (domain.TaskItem, error) {
	if !s.findTask(taskID) {
		return domain.TaskItem{}, storage.ErrNotFound
	}
	s.todoLabels = append(s.todoLabels, label)
	return domain.TaskItem{ID: int64(len(s.todoLabels)), TaskID: taskID, Label: label}, nil
}

func (s *stubStore) ToggleTaskItem(ctx context.Context, id int64, done bool) error {
	if s.toggled == nil {
		s.toggled = make(map[int64]bool)
	}
	s.toggled[id] = done
	return nil
}

// recordingHub captures broadcast frames instead of fanning them out.
type recordingHub struct {
	frames []string
}

func (h *recordingHub) Register() chan string     { return make(chan string, 4) }
func (h *recordingHub) Unregister(ch chan string) {}
func (h *recordingHub) Broadcast(event string)    { h.frames = append(h.frames, event) }

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withViewer(c echo.Context, u domain.User) {
	c.Set(contextUserKey, u)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}
