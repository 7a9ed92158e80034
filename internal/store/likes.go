package store

import (
	"context"
	"errors"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		if err := tx.Create(&models.Like{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	err = translate(err)
	if errors.Is(err, ErrDuplicate) {
		// a concurrent toggle inserted the same pair first
		return true, nil
	}
	return liked, err
}

func (s *GormStore) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, translate(err)
}
