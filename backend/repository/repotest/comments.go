package repotest

import (
	"context"
	"sort"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type comments struct{ s *Store }

func stripComment(c models.Comment) models.Comment {
	c.User, c.Lesson, c.Replies = nil, nil, nil
	return c
}

func (r comments) Create(_ context.Context, comment *models.Comment) error {
	defer r.s.lock()()
	d := r.s.st.d
	comment.ID = d.nextID()
	stamp(&comment.CreatedAt, &comment.UpdatedAt)
	d.comments[comment.ID] = stripComment(*comment)
	return nil
}

func (r comments) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	defer r.s.lock()()
	d := r.s.st.d
	c, ok := d.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.User = d.userRef(c.UserID)
	return &c, nil
}

func (r comments) Update(_ context.Context, comment *models.Comment) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&comment.CreatedAt, &comment.UpdatedAt)
	d.comments[comment.ID] = stripComment(*comment)
	return nil
}

func (r comments) withUsers(d *data, list []models.Comment) []models.Comment {
	for i := range list {
		list[i].User = d.userRef(list[i].UserID)
	}
	return list
}

func (r comments) ListRoots(_ context.Context, lessonID uint) ([]models.Comment, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := values(d.comments, func(c models.Comment) bool {
		return c.LessonID == lessonID && c.ParentID == nil && !c.IsDeleted
	})
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	return r.withUsers(d, list), nil
}

func (r comments) ListReplies(_ context.Context, parentIDs []uint) ([]models.Comment, error) {
	defer r.s.lock()()
	d := r.s.st.d
	wanted := make(map[uint]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	list := values(d.comments, func(c models.Comment) bool {
		return c.ParentID != nil && wanted[*c.ParentID] && !c.IsDeleted
	})
	sort.Slice(list, func(i, j int) bool {
		return older(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	return r.withUsers(d, list), nil
}

func (r comments) ListByUser(_ context.Context, userID uint) ([]models.Comment, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.comments, func(c models.Comment) bool { return c.UserID == userID && !c.IsDeleted })
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	return list, nil
}

func (r comments) CountVisible(_ context.Context, lessonID uint) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, c := range r.s.st.d.comments {
		if c.LessonID == lessonID && !c.IsDeleted {
			n++
		}
	}
	return n, nil
}
