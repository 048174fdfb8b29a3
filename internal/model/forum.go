package model

import "time"

// ForumCategory groups forum posts. Categories are seeded by migrations and
// read-only to the application.
type ForumCategory struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color"       db:"color"` // hex, used by the frontend badge
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// ForumPost is a discussion thread.
//
// ReplyCount and LastReplyAt are denormalized display fields bumped when a
// reply is created. The bump is best-effort: a failure there leaves the
// reply in place and is only logged, the same policy as preference seeding.
type ForumPost struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Content     string    `json:"content"     db:"content"`
	AuthorID    string    `json:"authorId"    db:"author_id"`
	CategoryID  string    `json:"categoryId"  db:"category_id"`
	IsPinned    bool      `json:"isPinned"    db:"is_pinned"`
	ReplyCount  int       `json:"replyCount"  db:"reply_count"`
	LastReplyAt time.Time `json:"lastReplyAt" db:"last_reply_at"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	Author   *ProfileSummary `json:"author,omitempty"`
	Category *ForumCategory  `json:"category,omitempty"`
}

// ForumReply is a single reply within a post's thread.
type ForumReply struct {
	ID        string    `json:"id"        db:"id"`
	Content   string    `json:"content"   db:"content"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	PostID    string    `json:"postId"    db:"post_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Author *ProfileSummary `json:"author,omitempty"`
}
