package models

import (
	"encoding/json"
	"time"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
	LevelAll          CourseLevel = "all_levels"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Icon        string    `gorm:"size:100" json:"icon,omitempty"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Course struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Title            string       `gorm:"size:255;not null" json:"title"`
	Slug             string       `gorm:"uniqueIndex;size:280;not null" json:"slug"`
	ShortDescription string       `gorm:"size:500" json:"short_description,omitempty"`
	Description      string       `gorm:"type:text" json:"description,omitempty"`
	ThumbnailURL     string       `gorm:"size:500" json:"thumbnail_url,omitempty"`
	PreviewVideoURL  string       `gorm:"size:500" json:"preview_video_url,omitempty"`
	Price            float64      `gorm:"not null;default:0" json:"price"`
	DiscountPrice    *float64     `json:"discount_price,omitempty"`
	Level            CourseLevel  `gorm:"type:varchar(20);not null" json:"level"`
	Language         string       `gorm:"size:10" json:"language"`
	DurationHours    float64      `json:"duration_hours"`
	Requirements     string       `gorm:"type:text" json:"requirements,omitempty"`
	WhatYouLearn     string       `gorm:"type:text" json:"what_you_will_learn,omitempty"`
	TargetAudience   string       `gorm:"type:text" json:"target_audience,omitempty"`
	Status           CourseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsPublished      bool         `gorm:"not null;index" json:"is_published"`
	IsFeatured       bool         `gorm:"not null" json:"is_featured"`
	InstructorID     uint         `gorm:"not null;index" json:"instructor_id"`
	CategoryID       *uint        `gorm:"index" json:"category_id,omitempty"`
	TotalStudents    int          `gorm:"not null;default:0" json:"total_students"`
	TotalLessons     int          `gorm:"not null;default:0" json:"total_lessons"`
	AverageRating    float64      `gorm:"not null;default:0" json:"average_rating"`
	TotalReviews     int          `gorm:"not null;default:0" json:"total_reviews"`
	PublishedAt      *time.Time   `json:"published_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	Instructor *User     `gorm:"foreignKey:InstructorID;constraint:OnDelete:RESTRICT" json:"instructor,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Lessons    []Lesson  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// EffectivePrice is what a student pays: the discount price when one is set.
func (c *Course) EffectivePrice() float64 {
	if c.DiscountPrice != nil {
		return *c.DiscountPrice
	}
	return c.Price
}

func (c *Course) IsFree() bool {
	return c.Price == 0
}

func (c Course) MarshalJSON() ([]byte, error) {
	type course Course
	return json.Marshal(struct {
		course
		EffectivePrice float64 `json:"effective_price"`
		IsFree         bool    `json:"is_free"`
	}{course(c), c.EffectivePrice(), c.IsFree()})
}

type Lesson struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uint      `gorm:"not null;index:idx_lesson_course_order" json:"course_id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	Content       string    `gorm:"type:text" json:"content,omitempty"`
	VideoURL      string    `gorm:"size:500" json:"video_url,omitempty"`
	VideoDuration int       `json:"video_duration"`
	Order         int       `gorm:"column:sort_order;not null;index:idx_lesson_course_order" json:"order"`
	IsPublished   bool      `gorm:"not null" json:"is_published"`
	IsFreePreview bool      `gorm:"not null" json:"is_free_preview"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Quizzes []Quiz `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// Outline strips the lesson body so it can be listed to anyone.
func (l Lesson) Outline() Lesson {
	l.Content = ""
	l.VideoURL = ""
	return l
}
