package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"victoweb/domain"
)

const postColumns = "id, title, slug, excerpt, content, thumbnail, date, committee, created_at, updated_at"

func scanPost(row interface{ Scan(...any) error }) (domain.Post, error) {
	var p domain.Post
	var date string
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Thumbnail, &date, &p.Committee, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, ErrNotFound
	}
	if err != nil {
		return domain.Post{}, err
	}
	if d, perr := time.ParseInLocation(dueDateLayout, date, time.Local); perr == nil {
		p.Date = d
	}
	return p, nil
}

// CreatePost persists a post, generating a unique slug and an excerpt when
// the author left them blank.
func (s *Store) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Date.IsZero() {
		p.Date = now
	}
	p.Committee = domain.NormalizeCommitteeKey(p.Committee)
	if p.Excerpt == "" {
		p.Excerpt = domain.ExcerptFromContent(p.Content)
	}
	slug, err := s.uniqueSlug(ctx, p.Slug, p.Title, 0)
	if err != nil {
		return domain.Post{}, err
	}
	p.Slug = slug

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (title, slug, excerpt, content, thumbnail, date, committee, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Thumbnail, p.Date.Format(dueDateLayout), p.Committee, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// UpdatePost rewrites the mutable fields of an existing post. The slug is
// regenerated only when the stored one is empty.
func (s *Store) UpdatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	current, err := s.PostByID(ctx, p.ID)
	if err != nil {
		return domain.Post{}, err
	}
	p.Slug = current.Slug
	if p.Slug == "" {
		if p.Slug, err = s.uniqueSlug(ctx, "", p.Title, p.ID); err != nil {
			return domain.Post{}, err
		}
	}
	p.Committee = domain.NormalizeCommitteeKey(p.Committee)
	if p.Excerpt == "" {
		p.Excerpt = domain.ExcerptFromContent(p.Content)
	}
	if p.Date.IsZero() {
		p.Date = current.Date
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, slug = ?, excerpt = ?, content = ?, thumbnail = ?, date = ?, committee = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Thumbnail, p.Date.Format(dueDateLayout), p.Committee, p.UpdatedAt, p.ID)
	if err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

func (s *Store) uniqueSlug(ctx context.Context, existing, title string, excludeID int64) (string, error) {
	base := existing
	if base == "" {
		base = domain.Slugify(title)
	}
	if base == "" {
		base = "post"
	}
	slug := base
	for counter := 1; ; counter++ {
		var clash int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?", slug, excludeID).Scan(&clash)
		if err != nil {
			return "", err
		}
		if clash == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// ListPosts returns all posts, newest date first then newest id.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY date DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) PostByID(ctx context.Context, id int64) (domain.Post, error) {
	return scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id))
}

func (s *Store) PostBySlug(ctx context.Context, slug string) (domain.Post, error) {
	return scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE slug = ?", slug))
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateVideo persists a standalone gallery video.
func (s *Store) CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error) {
	v.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO videos (title, url, image, created_at) VALUES (?, ?, ?, ?)",
		v.Title, v.URL, v.Image, v.CreatedAt)
	if err != nil {
		return domain.Video{}, err
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Video{}, err
	}
	return v, nil
}

func (s *Store) UpdateVideo(ctx context.Context, v domain.Video) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE videos SET title = ?, url = ?, image = ? WHERE id = ?",
		v.Title, v.URL, v.Image, v.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVideos returns videos newest first.
func (s *Store) ListVideos(ctx context.Context) ([]domain.Video, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, url, image, created_at FROM videos ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		var v domain.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.URL, &v.Image, &v.CreatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *Store) VideoByID(ctx context.Context, id int64) (domain.Video, error) {
	var v domain.Video
	err := s.db.QueryRowContext(ctx, "SELECT id, title, url, image, created_at FROM videos WHERE id = ?", id).
		Scan(&v.ID, &v.Title, &v.URL, &v.Image, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Video{}, ErrNotFound
	}
	return v, err
}

func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SyncPostMedia replaces the media rows extracted from a post's content so
// the gallery tracks edits. Direct uploads (no post reference) are untouched.
func (s *Store) SyncPostMedia(ctx context.Context, post domain.Post) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE post_id = ?", post.ID); err != nil {
		return err
	}
	for _, m := range domain.ExtractMedia(post.Content) {
		m.ID = uuid.NewString()
		m.PostID = &post.ID
		if m.Title == "" {
			m.Title = post.Title
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO media (id, title, url, media_type, post_id, thumbnail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.ID, m.Title, m.URL, string(m.Type), m.PostID, m.Thumbnail, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// CreateMedia stores a directly uploaded gallery item.
func (s *Store) CreateMedia(ctx context.Context, m domain.Media) (domain.Media, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type != domain.MediaVideo {
		m.Type = domain.MediaImage
	}
	m.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO media (id, title, url, media_type, post_id, thumbnail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.Title, m.URL, string(m.Type), m.PostID, m.Thumbnail, m.CreatedAt)
	if err != nil {
		return domain.Media{}, err
	}
	return m, nil
}

// MediaFilter narrows the gallery listing. Empty fields mean unfiltered.
type MediaFilter struct {
	Type   string
	Search string
}

// ListMedia returns gallery items newest first, optionally filtered by type
// and case-insensitive title search.
func (s *Store) ListMedia(ctx context.Context, f MediaFilter) ([]domain.Media, error) {
	query := "SELECT id, title, url, media_type, post_id, thumbnail, created_at FROM media"
	var conds []string
	var args []any
	if f.Type == string(domain.MediaImage) || f.Type == string(domain.MediaVideo) {
		conds = append(conds, "media_type = ?")
		args = append(args, f.Type)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Media
	for rows.Next() {
		var m domain.Media
		var kind string
		var postID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Title, &m.URL, &kind, &postID, &m.Thumbnail, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Type = domain.MediaType(kind)
		if postID.Valid {
			id := postID.Int64
			m.PostID = &id
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
