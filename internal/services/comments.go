package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/store"
)

type CommentService struct {
	store store.Store
	guard *policy.Guard
}

func NewCommentService(st store.Store, guard *policy.Guard) *CommentService {
	return &CommentService{store: st, guard: guard}
}

// ListByPost returns the post's comments newest first.
func (s *CommentService) ListByPost(ctx context.Context, caller *policy.Identity, postID uint) ([]models.Comment, error) {
	if err := s.guard.Authorize(caller, policy.ReadPublic, nil); err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, caller *policy.Identity, postID uint, in models.CommentInput) (models.Comment, error) {
	if err := s.guard.Authorize(caller, policy.Create, nil); err != nil {
		return models.Comment{}, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Comment{}, NewValidationError("content", "The content field is required.")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{PostID: postID, UserID: caller.UserID, Content: content}
	if err := s.store.CreateComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return s.reload(ctx, comment.ID)
}

// AuthorizeUpdate runs the ownership check on its own, ahead of payload validation.
func (s *CommentService) AuthorizeUpdate(ctx context.Context, caller *policy.Identity, id uint) error {
	_, err := s.loadOwned(ctx, caller, id, policy.UpdateOwn)
	return err
}

func (s *CommentService) Update(ctx context.Context, caller *policy.Identity, id uint, in models.CommentInput) (models.Comment, error) {
	comment, err := s.loadOwned(ctx, caller, id, policy.UpdateOwn)
	if err != nil {
		return models.Comment{}, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Comment{}, NewValidationError("content", "The content field is required.")
	}
	comment.Content = content
	if err := s.store.UpdateComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return s.reload(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, caller *policy.Identity, id uint) error {
	if _, err := s.loadOwned(ctx, caller, id, policy.DeleteOwn); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) loadOwned(ctx context.Context, caller *policy.Identity, id uint, op policy.Operation) (models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	var owner *uint
	switch {
	case err == nil:
		owner = &comment.UserID
	case errors.Is(err, store.ErrNotFound):
	default:
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	if err := s.guard.Authorize(caller, op, owner); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	_, err := s.store.PostOwner(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Post")
	}
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	return nil
}

func (s *CommentService) reload(ctx context.Context, id uint) (models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("reload comment: %w", err)
	}
	return comment, nil
}
