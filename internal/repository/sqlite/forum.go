package sqlite

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.ForumRepository = (*ForumStore)(nil)

// ForumStore implements repository.ForumRepository.
type ForumStore struct {
	db *DB
}

// Forum returns the forum repository backed by this database.
func (db *DB) Forum() *ForumStore {
	return &ForumStore{db: db}
}

// Categories returns all forum categories in creation order.
func (s *ForumStore) Categories(ctx context.Context) ([]model.ForumCategory, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, name, description, color, created_at
		 FROM forum_categories ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperror.Unavailable("category list", err)
	}
	defer rows.Close()

	var categories []model.ForumCategory
	for rows.Next() {
		var c model.ForumCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt); err != nil {
			return nil, apperror.Unavailable("category list scan", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("category list", err)
	}
	return categories, nil
}

// GetCategory retrieves a single category by ID.
func (s *ForumStore) GetCategory(ctx context.Context, id string) (*model.ForumCategory, error) {
	var c model.ForumCategory
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, color, created_at
		 FROM forum_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt)
	if err != nil {
		return nil, translateQuery("category lookup", "category", id, err)
	}
	return &c, nil
}

// CreatePost inserts a new forum post. last_reply_at starts at creation
// time so a post with no replies sorts by its own age.
func (s *ForumStore) CreatePost(ctx context.Context, post *model.ForumPost) error {
	post.ID = xid.New().String()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.LastReplyAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO forum_posts (id, title, content, author_id, category_id,
		                          is_pinned, reply_count, last_reply_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.CategoryID,
		post.LastReplyAt,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return translateWrite("post insert", "post", post.ID, err)
}

const postSelect = `
	SELECT t.id, t.title, t.content, t.author_id, t.category_id, t.is_pinned,
	       t.reply_count, t.last_reply_at, t.created_at, t.updated_at,
	       p.id, p.username, p.display_name, p.avatar_url,
	       c.id, c.name, c.description, c.color, c.created_at
	FROM forum_posts t
	JOIN profiles p ON p.id = t.author_id
	JOIN forum_categories c ON c.id = t.category_id`

func scanPost(row interface{ Scan(...any) error }) (*model.ForumPost, error) {
	var t model.ForumPost
	var author model.ProfileSummary
	var category model.ForumCategory
	err := row.Scan(
		&t.ID, &t.Title, &t.Content, &t.AuthorID, &t.CategoryID, &t.IsPinned,
		&t.ReplyCount, &t.LastReplyAt, &t.CreatedAt, &t.UpdatedAt,
		&author.ID, &author.Username, &author.DisplayName, &author.AvatarURL,
		&category.ID, &category.Name, &category.Description, &category.Color, &category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Author = &author
	t.Category = &category
	return &t, nil
}

// GetPost retrieves a post with its author and category joined.
func (s *ForumStore) GetPost(ctx context.Context, id string) (*model.ForumPost, error) {
	row := s.db.conn.QueryRowContext(ctx, postSelect+` WHERE t.id = ?`, id)
	t, err := scanPost(row)
	if err != nil {
		return nil, translateQuery("post lookup", "post", id, err)
	}
	return t, nil
}

// ListPosts returns posts, pinned first and then by most recent reply.
// An empty categoryID lists across all categories.
func (s *ForumStore) ListPosts(ctx context.Context, categoryID string, limit int) ([]model.ForumPost, error) {
	query := postSelect
	args := []any{}
	if categoryID != "" {
		query += ` WHERE t.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY t.is_pinned DESC, t.last_reply_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable("post list", err)
	}
	defer rows.Close()

	var posts []model.ForumPost
	for rows.Next() {
		t, err := scanPost(rows)
		if err != nil {
			return nil, apperror.Unavailable("post list scan", err)
		}
		posts = append(posts, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("post list", err)
	}
	return posts, nil
}

// CreateReply inserts a new reply. The parent post's activity counters are
// bumped separately via BumpPostActivity — the reply itself is the record,
// the counters are display bookkeeping.
func (s *ForumStore) CreateReply(ctx context.Context, reply *model.ForumReply) error {
	reply.ID = xid.New().String()
	now := time.Now()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO forum_replies (id, content, author_id, post_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reply.ID,
		reply.Content,
		reply.AuthorID,
		reply.PostID,
		reply.CreatedAt,
		reply.UpdatedAt,
	)
	return translateWrite("reply insert", "reply", reply.ID, err)
}

// ListReplies returns a post's replies in thread order (oldest first).
func (s *ForumStore) ListReplies(ctx context.Context, postID string, limit int) ([]model.ForumReply, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT r.id, r.content, r.author_id, r.post_id, r.created_at, r.updated_at,
		        p.id, p.username, p.display_name, p.avatar_url
		 FROM forum_replies r
		 JOIN profiles p ON p.id = r.author_id
		 WHERE r.post_id = ?
		 ORDER BY r.created_at ASC
		 LIMIT ?`,
		postID, limit,
	)
	if err != nil {
		return nil, apperror.Unavailable("reply list", err)
	}
	defer rows.Close()

	var replies []model.ForumReply
	for rows.Next() {
		var r model.ForumReply
		var author model.ProfileSummary
		err := rows.Scan(
			&r.ID, &r.Content, &r.AuthorID, &r.PostID, &r.CreatedAt, &r.UpdatedAt,
			&author.ID, &author.Username, &author.DisplayName, &author.AvatarURL,
		)
		if err != nil {
			return nil, apperror.Unavailable("reply list scan", err)
		}
		r.Author = &author
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("reply list", err)
	}
	return replies, nil
}

// BumpPostActivity increments the post's denormalized reply counter and
// records the reply time for the "latest activity" sort.
func (s *ForumStore) BumpPostActivity(ctx context.Context, postID string, at time.Time) error {
	_, err := s.db.conn.ExecContext(ctx,
		`UPDATE forum_posts SET reply_count = reply_count + 1, last_reply_at = ?
		 WHERE id = ?`,
		at, postID,
	)
	if err != nil {
		return apperror.Unavailable("post activity bump", err)
	}
	return nil
}
