package handlers

import (
	"net/http"

	"blogapi/internal/models"
	"blogapi/internal/services"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	comments, err := h.comments.ListByPost(c.Request.Context(), caller(c), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	var req models.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), caller(c), postID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "comment": comment})
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		respondError(c, services.ErrForbidden)
		return
	}
	if err := h.comments.AuthorizeUpdate(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	var req models.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated successfully", "comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		respondError(c, services.ErrForbidden)
		return
	}
	if err := h.comments.Delete(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
