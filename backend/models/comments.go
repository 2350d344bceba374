package models

import "time"

// Comment threads are two levels deep: ParentID always points at a root comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	LessonID  uint      `gorm:"not null;index" json:"lesson_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsEdited  bool      `gorm:"not null" json:"is_edited"`
	IsDeleted bool      `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Lesson  *Lesson   `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Replies []Comment `gorm:"-" json:"replies"`
}

type CommentThread struct {
	LessonID      uint      `json:"lesson_id"`
	TotalComments int64     `json:"total_comments"`
	Comments      []Comment `json:"comments"`
}
