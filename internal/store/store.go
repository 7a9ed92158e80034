package store

import (
	"context"
	"errors"
	"time"

	"blogapi/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
)

type PostFilter struct {
	Search   string
	AuthorID *uint
	Page     int
	PerPage  int
}

// Store is the full data-access surface. WithTx runs fn against a Store bound
// to a single transaction; returning an error rolls it back.
type Store interface {
	UserStore
	TokenStore
	PostStore
	CommentStore
	CategoryStore
	LikeStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type TokenStore interface {
	CreateToken(ctx context.Context, token *models.AccessToken) error
	GetToken(ctx context.Context, id string) (models.AccessToken, error)
	RevokeToken(ctx context.Context, id string, at time.Time) error
	TouchToken(ctx context.Context, id string, at time.Time) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (models.Post, error)
	PostOwner(ctx context.Context, id uint) (uint, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	ListPostsByCategory(ctx context.Context, categoryID uint) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uint) (models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
	ExistingCategoryIDs(ctx context.Context, ids []uint) ([]uint, error)
	PostCategoryIDs(ctx context.Context, postID uint) ([]uint, error)
	AddPostCategories(ctx context.Context, postID uint, categoryIDs []uint) error
	RemovePostCategories(ctx context.Context, postID uint, categoryIDs []uint) error
}

type LikeStore interface {
	// ToggleLike removes the caller's like if present, otherwise inserts one,
	// and reports the resulting state.
	ToggleLike(ctx context.Context, postID, userID uint) (bool, error)
	CountLikes(ctx context.Context, postID uint) (int64, error)
}
