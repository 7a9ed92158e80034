package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/store"
	"blogapi/internal/utils"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// keeps (page-1)*per_page well inside int range
	MaxPage        = 1 << 20

	postListCachePrefix = "posts:list:"
)

type ListPostsQuery struct {
	Search   string
	AuthorID *uint
	Page     int
	PerPage  int
}

// Page 分页结果
type Page struct {
	Data        []models.Post `json:"data"`
	CurrentPage int           `json:"current_page"`
	PerPage     int           `json:"per_page"`
	Total       int64         `json:"total"`
	LastPage    int           `json:"last_page"`
}

type PostService struct {
	store store.Store
	guard *policy.Guard
	cache *utils.Cache
}

func NewPostService(st store.Store, guard *policy.Guard, cache *utils.Cache) *PostService {
	return &PostService{store: st, guard: guard, cache: cache}
}

func (q ListPostsQuery) normalized() ListPostsQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q ListPostsQuery) cacheKey() string {
	author := "-"
	if q.AuthorID != nil {
		author = fmt.Sprint(*q.AuthorID)
	}
	return fmt.Sprintf("%s%q:%s:%d:%d", postListCachePrefix, q.Search, author, q.Page, q.PerPage)
}

// List serves from the listing cache when possible; every post write clears it.
func (s *PostService) List(ctx context.Context, caller *policy.Identity, q ListPostsQuery) (Page, error) {
	if err := s.guard.Authorize(caller, policy.ReadPublic, nil); err != nil {
		return Page{}, err
	}
	q = q.normalized()
	key := q.cacheKey()
	if cached, ok := s.cache.Get(key).(Page); ok {
		return cached, nil
	}
	gen := s.cache.Generation()

	posts, total, err := s.store.ListPosts(ctx, store.PostFilter{
		Search:   q.Search,
		AuthorID: q.AuthorID,
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		renderPost(&posts[i])
	}

	lastPage := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}
	page := Page{
		Data:        posts,
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
		Total:       total,
		LastPage:    lastPage,
	}
	// a write during the read bumps the generation and the page is not stored
	s.cache.SetIfGeneration(key, page, gen)
	return page, nil
}

func (s *PostService) Get(ctx context.Context, caller *policy.Identity, id uint) (models.Post, error) {
	if err := s.guard.Authorize(caller, policy.ReadPublic, nil); err != nil {
		return models.Post{}, err
	}
	post, err := s.store.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Post{}, notFound("Post")
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("get post: %w", err)
	}
	renderPost(&post)
	return post, nil
}

// Create stamps the caller as owner.
func (s *PostService) Create(ctx context.Context, caller *policy.Identity, in models.PostCreate) (models.Post, error) {
	if err := s.guard.Authorize(caller, policy.Create, nil); err != nil {
		return models.Post{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Post{}, NewValidationError("title", "The title field is required.")
	}
	if strings.TrimSpace(in.Body) == "" {
		return models.Post{}, NewValidationError("body", "The body field is required.")
	}

	post := models.Post{UserID: caller.UserID, Title: title, Body: in.Body}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	s.invalidate()
	utils.LogInfoWithUser(caller.UserID, fmt.Sprintf("Post %d created", post.ID))
	return s.Get(ctx, caller, post.ID)
}

// AuthorizeUpdate checks ownership of post id without looking at any payload.
func (s *PostService) AuthorizeUpdate(ctx context.Context, caller *policy.Identity, id uint) error {
	_, err := s.loadOwned(ctx, caller, id, policy.UpdateOwn)
	return err
}

func (s *PostService) Update(ctx context.Context, caller *policy.Identity, id uint, in models.PostUpdate) (models.Post, error) {
	post, err := s.loadOwned(ctx, caller, id, policy.UpdateOwn)
	if err != nil {
		return models.Post{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Post{}, NewValidationError("title", "The title field must not be empty.")
		}
		post.Title = title
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return models.Post{}, NewValidationError("body", "The body field must not be empty.")
		}
		post.Body = *in.Body
	}

	if err := s.store.UpdatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("update post: %w", err)
	}
	s.invalidate()
	return s.Get(ctx, caller, id)
}

// Delete removes the post together with its comments, likes and category links.
func (s *PostService) Delete(ctx context.Context, caller *policy.Identity, id uint) error {
	if _, err := s.loadOwned(ctx, caller, id, policy.DeleteOwn); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.invalidate()
	utils.LogInfoWithUser(caller.UserID, fmt.Sprintf("Post %d deleted", id))
	return nil
}

// loadOwned fetches the post and authorizes op against its owner. A missing
// post is passed to the guard as a nil owner.
func (s *PostService) loadOwned(ctx context.Context, caller *policy.Identity, id uint, op policy.Operation) (models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	var owner *uint
	switch {
	case err == nil:
		owner = &post.UserID
	case errors.Is(err, store.ErrNotFound):
	default:
		return models.Post{}, fmt.Errorf("get post: %w", err)
	}
	if err := s.guard.Authorize(caller, op, owner); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (s *PostService) invalidate() {
	s.cache.DeletePrefix(postListCachePrefix)
}

func renderPost(post *models.Post) {
	post.BodyHTML = utils.RenderMarkdown(post.Body)
}
