package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type CommentService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewCommentService(store repository.Store, log *logrus.Logger) *CommentService {
	return &CommentService{store: store, log: log}
}

type CommentInput struct {
	LessonID uint   `json:"lesson_id" validate:"required"`
	Content  string `json:"content" validate:"required,max=5000"`
	ParentID *uint  `json:"parent_id"`
}

type CommentPatch struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func cleanContent(raw string) (string, error) {
	content := utils.SanitizeText(raw)
	if content == "" {
		return "", invalidInput("comment content must not be empty")
	}
	return content, nil
}

// Create posts a comment on a lesson. Enrolled students and the course
// authors may comment. A reply to a reply is attached to the thread root so
// threads stay two levels deep.
func (s *CommentService) Create(ctx context.Context, user *models.User, in CommentInput) (*models.Comment, error) {
	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:   user.ID,
		LessonID: in.LessonID,
		Content:  content,
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, in.LessonID)
		if err != nil {
			return lookup(err, "lesson")
		}
		course, err := tx.Courses().GetByID(ctx, lesson.CourseID)
		if err != nil {
			return lookup(err, "course")
		}
		if !canManageCourse(user, course) {
			enrolled, err := isEnrolled(ctx, tx, user.ID, course.ID)
			if err != nil {
				return err
			}
			if !enrolled {
				return forbidden("enroll in the course to comment on its lessons")
			}
		}

		if in.ParentID != nil {
			parent, err := tx.Comments().GetByID(ctx, *in.ParentID)
			if err != nil || parent.IsDeleted {
				if err == nil || isMissing(err) {
					return notFound("parent comment not found")
				}
				return err
			}
			if parent.LessonID != in.LessonID {
				return invalidInput("parent comment belongs to another lesson")
			}
			root := parent.ID
			if parent.ParentID != nil {
				root = *parent.ParentID
			}
			comment.ParentID = &root
		}
		return tx.Comments().Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	comment.User = user
	comment.Replies = []models.Comment{}
	return comment, nil
}

// Thread returns the visible comments of a lesson: roots newest first, each
// with its replies oldest first.
func (s *CommentService) Thread(ctx context.Context, lessonID uint) (*models.CommentThread, error) {
	if _, err := s.store.Lessons().GetByID(ctx, lessonID); err != nil {
		return nil, lookup(err, "lesson")
	}
	roots, err := s.store.Comments().ListRoots(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(roots))
	for i, r := range roots {
		ids[i] = r.ID
	}
	replies, err := s.store.Comments().ListReplies(ctx, ids)
	if err != nil {
		return nil, err
	}
	byParent := make(map[uint][]models.Comment, len(roots))
	for _, r := range replies {
		r.Replies = []models.Comment{}
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}
	for i := range roots {
		roots[i].Replies = byParent[roots[i].ID]
		if roots[i].Replies == nil {
			roots[i].Replies = []models.Comment{}
		}
	}

	total, err := s.store.Comments().CountVisible(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	return &models.CommentThread{LessonID: lessonID, TotalComments: total, Comments: roots}, nil
}

// Update edits the content of the caller's own comment.
func (s *CommentService) Update(ctx context.Context, user *models.User, id uint, patch CommentPatch) (*models.Comment, error) {
	content, err := cleanContent(patch.Content)
	if err != nil {
		return nil, err
	}
	comment, err := s.store.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "comment")
	}
	if comment.IsDeleted {
		return nil, notFound("comment not found")
	}
	if comment.UserID != user.ID {
		return nil, forbidden("you can only edit your own comments")
	}
	comment.Content = content
	comment.IsEdited = true
	if err := s.store.Comments().Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete hides a comment. Its author, the course instructor and admins may
// delete it.
func (s *CommentService) Delete(ctx context.Context, user *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		comment, err := tx.Comments().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "comment")
		}
		if comment.IsDeleted {
			return notFound("comment not found")
		}
		if comment.UserID != user.ID {
			lesson, err := tx.Lessons().GetByID(ctx, comment.LessonID)
			if err != nil {
				return lookup(err, "lesson")
			}
			if _, err := managedCourse(ctx, tx, user, lesson.CourseID); err != nil {
				return forbidden("you cannot delete this comment")
			}
		}
		comment.IsDeleted = true
		comment.User = nil
		return tx.Comments().Update(ctx, comment)
	})
}

func (s *CommentService) ListMine(ctx context.Context, user *models.User) ([]models.Comment, error) {
	return s.store.Comments().ListByUser(ctx, user.ID)
}
