package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/service"
)

// ForumHandler serves the discussion board endpoints.
type ForumHandler struct {
	forum  *service.ForumService
	logger *slog.Logger
}

func NewForumHandler(forum *service.ForumService, logger *slog.Logger) *ForumHandler {
	return &ForumHandler{
		forum:  forum,
		logger: logger,
	}
}

// HandleCategories lists the discussion categories.
//
// HTTP: GET /api/forum/categories
func (h *ForumHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.forum.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleListPosts returns threads, optionally scoped to one category.
//
// HTTP: GET /api/forum/posts?category=cat-general&limit=20
func (h *ForumHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.forum.ListPosts(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGetPost returns one thread.
//
// HTTP: GET /api/forum/posts/{id}
func (h *ForumHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.forum.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleCreatePost starts a new thread.
//
// HTTP: POST /api/forum/posts (RequireAuth)
func (h *ForumHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		CategoryID string `json:"categoryId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.forum.CreatePost(r.Context(), userID, &model.ForumPost{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleListReplies returns a thread's replies, oldest first.
//
// HTTP: GET /api/forum/posts/{id}/replies
func (h *ForumHandler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	replies, err := h.forum.ListReplies(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// HandleCreateReply appends a reply to a thread.
//
// HTTP: POST /api/forum/posts/{id}/replies (RequireAuth)
func (h *ForumHandler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.forum.CreateReply(r.Context(), userID, r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}
