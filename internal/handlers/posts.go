package handlers

import (
	"net/http"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/services"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List 文章列表，支持 search / author_id / page / per_page
func (h *PostHandler) List(c *gin.Context) {
	q := services.ListPostsQuery{
		Search:  c.Query("search"),
		Page:    utils.StringToInt(c.Query("page")),
		PerPage: utils.StringToInt(c.Query("per_page")),
	}
	if raw := strings.TrimSpace(c.Query("author_id")); raw != "" {
		authorID, ok := utils.ParseID(raw)
		if !ok {
			respondError(c, services.NewValidationError("author_id", "The author id must be a positive integer."))
			return
		}
		q.AuthorID = &authorID
	}

	page, err := h.posts.List(c.Request.Context(), caller(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PostHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Create ignores any user_id in the payload; the caller owns the post.
func (h *PostHandler) Create(c *gin.Context) {
	var req models.PostCreate
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		respondError(c, services.ErrForbidden)
		return
	}
	if err := h.posts.AuthorizeUpdate(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	var req models.PostUpdate
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.Update(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated", "post": post})
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		respondError(c, services.ErrForbidden)
		return
	}
	if err := h.posts.Delete(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
