package handlers

import (
	"errors"
	"net/http"

	"blogapi/internal/models"
	"blogapi/internal/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// respondAdminError reports a failed capability check with its own message;
// everything else goes through respondError.
func respondAdminError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden: admin role required"})
		return
	}
	respondError(c, err)
}

// List 所有分类，按名称排序
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context(), caller(c))
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req models.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "Category")
	if !ok {
		return
	}
	var req models.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categories.Update(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated", "category": category})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "Category")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), caller(c), id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// Assign replaces the categories of a post.
func (h *CategoryHandler) Assign(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	var req models.AssignCategories
	if !bindJSON(c, &req) {
		return
	}
	ids, err := h.categories.Assign(c.Request.Context(), caller(c), postID, req.CategoryIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Categories assigned to post successfully",
		"category_ids": ids,
	})
}

// Posts 某分类下的文章，没有文章时返回 404
func (h *CategoryHandler) Posts(c *gin.Context) {
	id, ok := pathID(c, "id", "Category")
	if !ok {
		return
	}
	category, posts, err := h.categories.PostsByCategory(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(posts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No posts found for this category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category_id":   category.ID,
		"category_name": category.Name,
		"posts":         posts,
	})
}
