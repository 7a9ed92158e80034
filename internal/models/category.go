package models

import (
	"time"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostCategory is the post_categories join row. The composite primary key
// rules out duplicate pairs.
type PostCategory struct {
	PostID     uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CategoryID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PostCategory) TableName() string {
	return "post_categories"
}

type CategoryInput struct {
	Name string `json:"name" binding:"required,max=100"`
}

type AssignCategories struct {
	CategoryIDs []uint `json:"category_ids" binding:"required"`
}
