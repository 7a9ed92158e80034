package handlers

import (
	"net/http"

	"blogapi/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likes *services.LikeService
}

func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// Toggle 点赞/取消点赞，只作用于当前用户
func (h *LikeHandler) Toggle(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	liked, total, err := h.likes.Toggle(c.Request.Context(), caller(c), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	if liked {
		c.JSON(http.StatusCreated, gin.H{"message": "Post liked", "liked": true, "likes": total})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post unliked", "liked": false, "likes": total})
}

// Count is public and answers 0 for posts without likes.
func (h *LikeHandler) Count(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	total, err := h.likes.TotalLikes(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "likes": total})
}
