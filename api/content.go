package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"victoweb/domain"
	"victoweb/storage"
	"victoweb/view"
)

const dateLayout = "2006-01-02"

type postDTO struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Excerpt        string `json:"excerpt"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Date           string `json:"date"`
	Committee      string `json:"committee,omitempty"`
	CommitteeLabel string `json:"committee_label,omitempty"`
}

type postDetailDTO struct {
	postDTO
	Content  string `json:"content"`
	Rendered string `json:"rendered"`
}

type postRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	Thumbnail string `json:"thumbnail"`
	Date      string `json:"date"`
	Committee string `json:"committee"`
}

type videoDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
}

type videoRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

type mediaDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	PostID    *int64 `json:"post_id,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

func postToDTO(p domain.Post) postDTO {
	return postDTO{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Excerpt:        p.Excerpt,
		Thumbnail:      p.Thumbnail,
		Date:           p.Date.Format(dateLayout),
		Committee:      p.Committee,
		CommitteeLabel: domain.CommitteeLabel(p.Committee),
	}
}

func videoToDTO(v domain.Video) videoDTO {
	return videoDTO{ID: v.ID, Title: v.Title, URL: v.URL, Image: v.Image}
}

func mediaToDTO(m domain.Media) mediaDTO {
	return mediaDTO{
		ID:        m.ID,
		Title:     m.Title,
		URL:       m.URL,
		Type:      string(m.Type),
		PostID:    m.PostID,
		Thumbnail: m.Thumbnail,
	}
}

// home returns the public landing payload: latest posts and videos, plus a
// hint whether the caller may enter the admin hub.
func home(store Storage, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		posts, err := store.ListPosts(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load posts")
		}
		videos, err := store.ListVideos(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load videos")
		}
		if len(posts) > 6 {
			posts = posts[:6]
		}
		if len(videos) > 6 {
			videos = videos[:6]
		}

		postDTOs := make([]postDTO, 0, len(posts))
		for _, p := range posts {
			postDTOs = append(postDTOs, postToDTO(p))
		}
		videoDTOs := make([]videoDTO, 0, len(videos))
		for _, v := range videos {
			videoDTOs = append(videoDTOs, videoToDTO(v))
		}

		canAdmin := false
		if user, ok := auth.currentUser(c); ok {
			canAdmin = domain.CapabilitiesFor(user).ViewAdminHub
		}
		return c.JSON(http.StatusOK, map[string]any{
			"posts":          postDTOs,
			"videos":         videoDTOs,
			"committees":     domain.Committees,
			"can_view_admin": canAdmin,
		})
	}
}

func listCommittees() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, domain.Committees)
	}
}

// committeeDetail resolves a committee from any recognized spelling and
// returns it with its posts.
func committeeDetail(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		committee := domain.CommitteeByKey(c.Param("key"))
		if committee == nil {
			return echo.NewHTTPError(http.StatusNotFound, "unknown committee")
		}
		posts, err := store.ListPosts(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load posts")
		}
		matching := make([]postDTO, 0)
		for _, p := range posts {
			if p.Committee == committee.Key {
				matching = append(matching, postToDTO(p))
			}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"committee": committee,
			"posts":     matching,
		})
	}
}

func listPosts(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		posts, err := store.ListPosts(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load posts")
		}
		if key := domain.NormalizeCommitteeKey(c.QueryParam("committee")); key != "" {
			filtered := posts[:0]
			for _, p := range posts {
				if p.Committee == key {
					filtered = append(filtered, p)
				}
			}
			posts = filtered
		}
		out := make([]postDTO, 0, len(posts))
		for _, p := range posts {
			out = append(out, postToDTO(p))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func postDetail(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := store.PostBySlug(c.Request().Context(), c.Param("slug"))
		if storage.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load post")
		}
		return c.JSON(http.StatusOK, postDetailDTO{
			postDTO:  postToDTO(p),
			Content:  p.Content,
			Rendered: view.RenderPostContent(p.Content),
		})
	}
}

// previewPost renders Markdown for the editor without persisting anything.
func previewPost() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		return c.JSON(http.StatusOK, map[string]string{"rendered": view.RenderPostContent(req.Content)})
	}
}

func postFromRequest(req postRequest) (domain.Post, error) {
	if strings.TrimSpace(req.Title) == "" {
		return domain.Post{}, errors.New("title is required")
	}
	p := domain.Post{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Excerpt:   strings.TrimSpace(req.Excerpt),
		Thumbnail: strings.TrimSpace(req.Thumbnail),
		Committee: req.Committee,
	}
	if req.Date != "" {
		d, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
		if err != nil {
			return domain.Post{}, errors.New("date must be YYYY-MM-DD")
		}
		p.Date = d
	}
	return p, nil
}

func createPost(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req postRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		p, err := postFromRequest(req)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		created, err := store.CreatePost(c.Request().Context(), p)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save post")
		}
		if err := store.SyncPostMedia(c.Request().Context(), created); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to sync media")
		}
		return c.JSON(http.StatusCreated, postDetailDTO{
			postDTO:  postToDTO(created),
			Content:  created.Content,
			Rendered: view.RenderPostContent(created.Content),
		})
	}
}

func updatePost(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req postRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		p, err := postFromRequest(req)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		p.ID = id
		updated, err := store.UpdatePost(c.Request().Context(), p)
		if storage.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save post")
		}
		if err := store.SyncPostMedia(c.Request().Context(), updated); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to sync media")
		}
		return c.JSON(http.StatusOK, postDetailDTO{
			postDTO:  postToDTO(updated),
			Content:  updated.Content,
			Rendered: view.RenderPostContent(updated.Content),
		})
	}
}

func deletePost(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := store.DeletePost(c.Request().Context(), id); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "post not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete post")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func listVideos(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		videos, err := store.ListVideos(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load videos")
		}
		out := make([]videoDTO, 0, len(videos))
		for _, v := range videos {
			out = append(out, videoToDTO(v))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func createVideo(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req videoRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "title and url are required")
		}
		created, err := store.CreateVideo(c.Request().Context(), domain.Video{
			Title: strings.TrimSpace(req.Title),
			URL:   strings.TrimSpace(req.URL),
			Image: strings.TrimSpace(req.Image),
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save video")
		}
		return c.JSON(http.StatusCreated, videoToDTO(created))
	}
}

func updateVideo(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req videoRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		v := domain.Video{
			ID:    id,
			Title: strings.TrimSpace(req.Title),
			URL:   strings.TrimSpace(req.URL),
			Image: strings.TrimSpace(req.Image),
		}
		if err := store.UpdateVideo(c.Request().Context(), v); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "video not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save video")
		}
		return c.JSON(http.StatusOK, videoToDTO(v))
	}
}

func deleteVideo(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := store.DeleteVideo(c.Request().Context(), id); err != nil {
			if storage.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "video not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete video")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func listMedia(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := store.ListMedia(c.Request().Context(), storage.MediaFilter{
			Type:   c.QueryParam("type"),
			Search: c.QueryParam("q"),
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load media")
		}
		out := make([]mediaDTO, 0, len(items))
		for _, m := range items {
			out = append(out, mediaToDTO(m))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func createMedia(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Title     string `json:"title"`
			URL       string `json:"url"`
			Type      string `json:"type"`
			Thumbnail string `json:"thumbnail"`
		}
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if strings.TrimSpace(req.URL) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "url is required")
		}
		created, err := store.CreateMedia(c.Request().Context(), domain.Media{
			Title:     strings.TrimSpace(req.Title),
			URL:       strings.TrimSpace(req.URL),
			Type:      domain.MediaType(req.Type),
			Thumbnail: strings.TrimSpace(req.Thumbnail),
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to save media")
		}
		return c.JSON(http.StatusCreated, mediaToDTO(created))
	}
}
