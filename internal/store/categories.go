package store

import (
	"context"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(category).Error)
}

func (s *GormStore) GetCategory(ctx context.Context, id uint) (models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, id).Error
	return category, translate(err)
}

func (s *GormStore) FindCategoryByName(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	return category, translate(err)
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, translate(err)
}

func (s *GormStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := s.db.WithContext(ctx).Model(category).Select("Name").Updates(category)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory drops the category and every link to it. Posts are kept.
func (s *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.PostCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

func (s *GormStore) ExistingCategoryIDs(ctx context.Context, ids []uint) ([]uint, error) {
	found := []uint{}
	if len(ids) == 0 {
		return found, nil
	}
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, translate(err)
}

func (s *GormStore) PostCategoryIDs(ctx context.Context, postID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(&models.PostCategory{}).
		Where("post_id = ?", postID).
		Order("category_id ASC").
		Pluck("category_id", &ids).Error
	return ids, translate(err)
}

func (s *GormStore) AddPostCategories(ctx context.Context, postID uint, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.PostCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, models.PostCategory{PostID: postID, CategoryID: id})
	}
	return translate(s.db.WithContext(ctx).Create(&rows).Error)
}

func (s *GormStore) RemovePostCategories(ctx context.Context, postID uint, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND category_id IN ?", postID, categoryIDs).
		Delete(&models.PostCategory{}).Error
	return translate(err)
}
