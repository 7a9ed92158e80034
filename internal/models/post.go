package models

import (
	"time"
)

type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	Categories []Category `gorm:"many2many:post_categories;" json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 非数据库字段，渲染后的正文
	BodyHTML string `gorm:"-" json:"body_html"`
}

type PostCreate struct {
	Title string `json:"title" binding:"required,max=255"`
	Body  string `json:"body" binding:"required"`
}

// PostUpdate only carries the fields an owner may change.
type PostUpdate struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=255"`
	Body  *string `json:"body" binding:"omitempty,min=1"`
}
