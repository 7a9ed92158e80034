package store

import (
	"context"

	"blogapi/internal/models"
)

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error)
}

func (s *GormStore) GetComment(ctx context.Context, id uint) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error
	return comment, translate(err)
}

// ListCommentsByPost returns comments newest first.
func (s *GormStore) ListCommentsByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	return comments, translate(err)
}

func (s *GormStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	res := s.db.WithContext(ctx).Model(comment).Select("Content").Updates(comment)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
