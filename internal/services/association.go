package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"blogapi/internal/policy"
	"blogapi/internal/store"
)

// Assign replaces the post's category set with ids. Duplicates collapse, an
// empty list clears every link, and an unknown id aborts without writing.
// The returned ids are sorted.
func (s *CategoryService) Assign(ctx context.Context, caller *policy.Identity, postID uint, ids []uint) ([]uint, error) {
	if err := s.guard.Authorize(caller, policy.Create, nil); err != nil {
		return nil, err
	}
	desired := uniqueIDs(ids)

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.PostOwner(ctx, postID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Post")
			}
			return fmt.Errorf("get post: %w", err)
		}

		existing, err := tx.ExistingCategoryIDs(ctx, desired)
		if err != nil {
			return fmt.Errorf("check categories: %w", err)
		}
		if missing := missingIDs(desired, existing); len(missing) > 0 {
			return NewValidationError("category_ids", "The selected category ids are invalid: "+joinIDs(missing)+".")
		}

		current, err := tx.PostCategoryIDs(ctx, postID)
		if err != nil {
			return fmt.Errorf("load post categories: %w", err)
		}
		toAdd, toRemove := diffIDs(current, desired)
		if err := tx.RemovePostCategories(ctx, postID, toRemove); err != nil {
			return fmt.Errorf("unlink categories: %w", err)
		}
		if err := tx.AddPostCategories(ctx, postID, toAdd); err != nil {
			return fmt.Errorf("link categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return desired, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingIDs(want, have []uint) []uint {
	present := make(map[uint]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// diffIDs returns what must be inserted and deleted to turn current into desired.
func diffIDs(current, desired []uint) (toAdd, toRemove []uint) {
	cur := make(map[uint]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	want := make(map[uint]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
		if _, ok := cur[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
