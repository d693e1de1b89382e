package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"victoweb/domain"
	"victoweb/hub"
	"victoweb/storage"
	"victoweb/view"
)

// systemBanner is pinned to the top of the chat feed when the feed does not
// already start with it.
const systemBanner = "Welcome to the admin hub. Messages here are visible to every staff member."

func viewerFrom(c echo.Context) domain.User {
	user, _ := c.Get(contextUserKey).(domain.User)
	return user
}

func taskFilterFrom(c echo.Context) domain.TaskFilter {
	return domain.SanitizeTaskFilter(domain.TaskFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Query:    c.QueryParam("q"),
	})
}

// adminHub returns the full coordination payload: chat feed, task board,
// summary counts, staff roster, and filter echo.
func adminHub(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		viewer := viewerFrom(c)
		data, err := view.BuildHubData(c.Request().Context(), store, viewer.ID, taskFilterFrom(c), systemBanner)
		if err != nil {
			logger.WithError(err).Error("assembling hub data")
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load hub data")
		}
		logger.WithFields(log.Fields{
			"viewer":   viewer.ID,
			"messages": len(data.Messages),
			"tasks":    len(data.Tasks),
			"duration": time.Since(started),
		}).Debug("hub data assembled")
		return c.JSON(http.StatusOK, data)
	}
}

// chatFragment refreshes just the chat feed; stream consumers call it on a
// "chat" cue.
func chatFragment(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		viewer := viewerFrom(c)
		messages, err := view.MessagesForAdmin(c.Request().Context(), store, viewer.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load messages")
		}
		messages = view.EnsureSystemMessage(messages, systemBanner)
		return c.JSON(http.StatusOK, map[string]any{"messages": messages})
	}
}

// tasksFragment refreshes just the task board; stream consumers call it on a
// "tasks" cue. The summary always covers the whole board regardless of filter.
func tasksFragment(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := taskFilterFrom(c)
		tasks, summary, err := view.TasksForAdmin(c.Request().Context(), store, filter)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load tasks")
		}
		return c.JSON(http.StatusOK, map[string]any{
			"tasks":        tasks,
			"task_summary": summary,
			"task_filter":  filter,
		})
	}
}

func createChatMessage(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Body string `json:"body"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if strings.TrimSpace(req.Body) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "message body is required")
		}
		viewer := viewerFrom(c)
		if _, err := store.CreateMessage(c.Request().Context(), viewer.ID, req.Body); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save message")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicChat))
		return c.NoContent(http.StatusCreated)
	}
}

func deleteChatMessage(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := store.DeleteMessage(c.Request().Context(), id); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "message not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete message")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicChat))
		return c.NoContent(http.StatusNoContent)
	}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	AssignedTo  *int64 `json:"assigned_to"`
}

func createChatTask(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if strings.TrimSpace(req.Title) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "task title is required")
		}
		in := storage.TaskInput{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			AssignedTo:  req.AssignedTo,
		}
		if req.DueDate != "" {
			due, err := time.ParseInLocation(dateLayout, req.DueDate, time.Local)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "due date must be YYYY-MM-DD")
			}
			in.DueDate = &due
		}
		viewer := viewerFrom(c)
		if _, err := store.CreateTask(c.Request().Context(), viewer.ID, in); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusBadRequest, "assignee does not exist")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save task")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusCreated)
	}
}

func updateTaskStatus(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if err := store.UpdateTaskStatus(c.Request().Context(), id, req.Status); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "task not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to update task")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusNoContent)
	}
}

func updateTaskAssignment(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req struct {
			AssignedTo *int64 `json:"assigned_to"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if err := store.UpdateTaskAssignment(c.Request().Context(), id, req.AssignedTo); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "task or assignee not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to update task")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusNoContent)
	}
}

func addTaskTodo(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req struct {
			Label string `json:"label"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if strings.TrimSpace(req.Label) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "todo label is required")
		}
		if _, err := store.AddTaskItem(c.Request().Context(), id, req.Label); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "task not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save todo")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusCreated)
	}
}

func toggleTaskTodo(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req struct {
			Done bool `json:"done"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if err := store.ToggleTaskItem(c.Request().Context(), id, req.Done); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "todo not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to update todo")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteChatTask(store Storage, events Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := store.DeleteTask(c.Request().Context(), id); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "task not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete task")
		}
		events.Broadcast(hub.TopicEvent(hub.TopicTasks))
		return c.NoContent(http.StatusNoContent)
	}
}
