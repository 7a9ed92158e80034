package services

import (
	"context"
	"errors"
	"fmt"

	"blogapi/internal/policy"
	"blogapi/internal/store"
)

type LikeService struct {
	store store.Store
	guard *policy.Guard
}

func NewLikeService(st store.Store, guard *policy.Guard) *LikeService {
	return &LikeService{store: st, guard: guard}
}

// Toggle flips the caller's like on the post and returns the new state
// together with the post's like count.
func (s *LikeService) Toggle(ctx context.Context, caller *policy.Identity, postID uint) (bool, int64, error) {
	if err := s.guard.Authorize(caller, policy.Create, nil); err != nil {
		return false, 0, err
	}
	if _, err := s.store.PostOwner(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, 0, notFound("Post")
		}
		return false, 0, fmt.Errorf("get post: %w", err)
	}

	liked, err := s.store.ToggleLike(ctx, postID, caller.UserID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}
	total, err := s.store.CountLikes(ctx, postID)
	if err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}
	return liked, total, nil
}

// TotalLikes counts likes for any post id, existing or not.
func (s *LikeService) TotalLikes(ctx context.Context, postID uint) (int64, error) {
	total, err := s.store.CountLikes(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return total, nil
}
