package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 20000
)

// ForumService handles discussion categories, posts, and replies.
type ForumService struct {
	forum  repository.ForumRepository
	logger *slog.Logger
}

func NewForumService(forum repository.ForumRepository, logger *slog.Logger) *ForumService {
	return &ForumService{
		forum:  forum,
		logger: logger,
	}
}

// Categories lists the seeded discussion categories.
func (s *ForumService) Categories(ctx context.Context) ([]model.ForumCategory, error) {
	return s.forum.Categories(ctx)
}

// CreatePost starts a new thread in a category.
func (s *ForumService) CreatePost(ctx context.Context, actorID string, post *model.ForumPost) (*model.ForumPost, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to post")
	}
	if post == nil {
		return nil, apperror.ValidationFailed("post", "post body is required")
	}

	title := strings.TrimSpace(post.Title)
	content := strings.TrimSpace(post.Content)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxPostTitleLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if len(content) > MaxPostContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostContentLength))
	}

	// The category must exist; a bad ID is a 404 rather than a broken FK.
	if _, err := s.forum.GetCategory(ctx, post.CategoryID); err != nil {
		return nil, fmt.Errorf("looking up category %s: %w", post.CategoryID, err)
	}

	post.Title = title
	post.Content = content
	post.AuthorID = actorID

	if err := s.forum.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create forum post",
			slog.String("authorID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("forum post created",
		slog.String("id", post.ID),
		slog.String("categoryID", post.CategoryID),
	)

	return post, nil
}

// GetPost returns one thread with author and category joined.
func (s *ForumService) GetPost(ctx context.Context, id string) (*model.ForumPost, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.forum.GetPost(ctx, id)
}

// ListPosts returns threads, optionally scoped to one category, pinned
// first and then by most recent reply.
func (s *ForumService) ListPosts(ctx context.Context, categoryID string, limit int) ([]model.ForumPost, error) {
	return s.forum.ListPosts(ctx, strings.TrimSpace(categoryID), clampLimit(limit))
}

// CreateReply appends a reply to a thread and bumps the thread's activity
// fields. The bump is display-only bookkeeping: if it fails, the reply
// stays and the failure is logged and swallowed.
func (s *ForumService) CreateReply(ctx context.Context, actorID, postID, content string) (*model.ForumReply, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to reply")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "reply content is required")
	}
	if len(content) > MaxPostContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostContentLength))
	}

	post, err := s.forum.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("looking up post %s: %w", postID, err)
	}

	reply := &model.ForumReply{
		Content:  content,
		AuthorID: actorID,
		PostID:   post.ID,
	}
	if err := s.forum.CreateReply(ctx, reply); err != nil {
		s.logger.Error("failed to create forum reply",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating reply: %w", err)
	}

	if err := s.forum.BumpPostActivity(ctx, post.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("bumping post activity failed",
			slog.String("postID", post.ID),
			slog.String("error", err.Error()),
		)
	}

	return reply, nil
}

// ListReplies returns a thread's replies, oldest first.
func (s *ForumService) ListReplies(ctx context.Context, postID string, limit int) ([]model.ForumReply, error) {
	if postID == "" {
		return nil, apperror.ValidationFailed("postId", "post ID is required")
	}
	return s.forum.ListReplies(ctx, postID, clampLimit(limit))
}
