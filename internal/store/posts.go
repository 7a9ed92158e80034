package store

import (
	"context"
	"strings"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Omit("User", "Categories").Create(post).Error)
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
		First(&post, id).Error
	return post, translate(err)
}

func (s *GormStore) PostOwner(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Select("id", "user_id").First(&post, id).Error
	if err != nil {
		return 0, translate(err)
	}
	return post.UserID, nil
}

func (s *GormStore) filteredPosts(ctx context.Context, f PostFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(body) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.AuthorID != nil {
		query = query.Where("user_id = ?", *f.AuthorID)
	}
	return query
}

// ListPosts returns one page, newest first, together with the total match count.
func (s *GormStore) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	var total int64
	if err := s.filteredPosts(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	posts := make([]models.Post, 0, f.PerPage)
	if total == 0 {
		return posts, 0, nil
	}
	offset := (f.Page - 1) * f.PerPage
	err := s.filteredPosts(ctx, f).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(f.PerPage).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return posts, total, nil
}

func (s *GormStore) ListPostsByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Joins("JOIN post_categories ON post_categories.post_id = posts.id").
		Where("post_categories.category_id = ?", categoryID).
		Preload("User").
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error
	return posts, translate(err)
}

// UpdatePost writes title and body only. Owner and id are never touched.
func (s *GormStore) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(post).Select("Title", "Body").Updates(post)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes the post with its likes, comments and category links.
func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
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
