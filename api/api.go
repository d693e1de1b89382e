// Package api wires the portal's HTTP surface: public content, account
// endpoints, the admin hub's read and mutation handlers, and the SSE stream
// gateway. Handlers are closures over small interfaces so tests can swap the
// store and hub freely.
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"victoweb/domain"
	"victoweb/storage"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	StaffUsers(ctx context.Context) ([]domain.User, error)

	ListPosts(ctx context.Context) ([]domain.Post, error)
	PostBySlug(ctx context.Context, slug string) (domain.Post, error)
	CreatePost(ctx context.Context, p domain.Post) (domain.Post, error)
	UpdatePost(ctx context.Context, p domain.Post) (domain.Post, error)
	DeletePost(ctx context.Context, id int64) error
	SyncPostMedia(ctx context.Context, p domain.Post) error

	ListVideos(ctx context.Context) ([]domain.Video, error)
	CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error)
	UpdateVideo(ctx context.Context, v domain.Video) error
	DeleteVideo(ctx context.Context, id int64) error
	ListMedia(ctx context.Context, f storage.MediaFilter) ([]domain.Media, error)
	CreateMedia(ctx context.Context, m domain.Media) (domain.Media, error)

	ListMessages(ctx context.Context) ([]domain.ChatMessage, error)
	CreateMessage(ctx context.Context, authorID int64, body string) (domain.ChatMessage, error)
	DeleteMessage(ctx context.Context, id int64) error

	ListTasks(ctx context.Context) ([]domain.ChatTask, error)
	CreateTask(ctx context.Context, creatorID int64, in storage.TaskInput) (domain.ChatTask, error)
	UpdateTaskStatus(ctx context.Context, id int64, status string) error
	UpdateTaskAssignment(ctx context.Context, id int64, assigneeID *int64) error
	DeleteTask(ctx context.Context, id int64) error
	AddTaskItem(ctx context.Context, taskID int64, label string) (domain.TaskItem, error)
	ToggleTaskItem(ctx context.Context, id int64, done bool) error
}

// Hub is the event broker mutation handlers publish to and the stream
// gateway subscribes on.
type Hub interface {
	Register() chan string
	Unregister(chan string)
	Broadcast(event string)
}

// Options tunes handler behavior; zero values get sensible defaults.
type Options struct {
	// HeartbeatInterval is how long a stream connection waits for an event
	// before synthesizing a heartbeat frame.
	HeartbeatInterval time.Duration
}

// Register wires up all portal routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, events Hub, auth *Auth, logger *log.Logger, opts Options) {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}

	e.GET("/healthz", healthz())

	e.POST("/auth/signup", signup(store, auth))
	e.POST("/auth/login", login(store, auth))
	e.POST("/auth/logout", logout())

	e.GET("/api/home", home(store, auth))
	e.GET("/api/committees", listCommittees())
	e.GET("/api/committees/:key", committeeDetail(store))

	e.GET("/api/posts", listPosts(store))
	e.GET("/api/posts/:slug", postDetail(store))
	e.POST("/api/posts/preview", previewPost(), auth.RequireCapability(canPublishMedia))
	e.POST("/api/posts", createPost(store), auth.RequireCapability(canPublishMedia))
	e.PUT("/api/posts/:id", updatePost(store), auth.RequireCapability(canPublishMedia))
	e.DELETE("/api/posts/:id", deletePost(store), auth.RequireCapability(canPublishMedia))

	e.GET("/api/videos", listVideos(store))
	e.POST("/api/videos", createVideo(store), auth.RequireCapability(canPublishMedia))
	e.PUT("/api/videos/:id", updateVideo(store), auth.RequireCapability(canPublishMedia))
	e.DELETE("/api/videos/:id", deleteVideo(store), auth.RequireCapability(canPublishMedia))

	e.GET("/api/media", listMedia(store), auth.RequireUser())
	e.POST("/api/media", createMedia(store), auth.RequireCapability(canPublishMedia))

	adminOnly := auth.RequireCapability(canViewAdminHub)
	taskPublisher := auth.RequireCapability(canPublishTasks)

	e.GET("/admin/hub", adminHub(store, logger), adminOnly)
	e.GET("/admin/hub/fragment/chat", chatFragment(store), adminOnly)
	e.GET("/admin/hub/fragment/tasks", tasksFragment(store), adminOnly)
	e.GET("/admin/chat/events", streamEvents(events, logger, opts.HeartbeatInterval), adminOnly)

	e.POST("/admin/chat/messages", createChatMessage(store, events), adminOnly)
	e.DELETE("/admin/chat/messages/:id", deleteChatMessage(store, events), adminOnly)
	e.POST("/admin/chat/tasks", createChatTask(store, events), taskPublisher)
	e.POST("/admin/chat/tasks/:id/status", updateTaskStatus(store, events), adminOnly)
	e.POST("/admin/chat/tasks/:id/assignment", updateTaskAssignment(store, events), adminOnly)
	e.POST("/admin/chat/tasks/:id/todos", addTaskTodo(store, events), adminOnly)
	e.DELETE("/admin/chat/tasks/:id", deleteChatTask(store, events), taskPublisher)
	e.POST("/admin/chat/todos/:id/toggle", toggleTaskTodo(store, events), adminOnly)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(200)
	}
}

func canViewAdminHub(caps domain.Capabilities) bool { return caps.ViewAdminHub }
func canPublishTasks(caps domain.Capabilities) bool { return caps.PublishTasks }
func canPublishMedia(caps domain.Capabilities) bool { return caps.PublishMedia }
