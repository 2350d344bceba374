package repotest

import (
	"context"
	"sort"
	"strings"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type users struct{ s *Store }

func (r users) unique(d *data, u *models.User) error {
	for _, other := range d.users {
		if other.ID == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) || other.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r users) Create(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	d := r.s.st.d
	if err := r.unique(d, user); err != nil {
		return err
	}
	user.ID = d.nextID()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	d.users[user.ID] = *user
	return nil
}

func (r users) GetByID(_ context.Context, id uint) (*models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.st.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.st.d.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r users) Update(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.unique(d, user); err != nil {
		return err
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	d.users[user.ID] = *user
	return nil
}

func (r users) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range d.courses {
		if c.InstructorID == id {
			return errRestrict
		}
	}
	for k, v := range d.enrollments {
		if v.StudentID == id {
			delete(d.enrollments, k)
		}
	}
	for k, v := range d.progress {
		if v.StudentID == id {
			delete(d.progress, k)
		}
	}
	for k, v := range d.attempts {
		if v.StudentID == id {
			delete(d.attempts, k)
		}
	}
	for k, v := range d.reviews {
		if v.StudentID == id {
			delete(d.reviews, k)
		}
	}
	for k, v := range d.comments {
		if v.UserID == id {
			delete(d.comments, k)
		}
	}
	delete(d.users, id)
	return nil
}

func (r users) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	defer r.s.lock()()
	search := strings.TrimSpace(filter.Search)
	list := values(r.s.st.d.users, func(u models.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			return false
		}
		if search != "" && !contains(u.Email, search) && !contains(u.Username, search) &&
			!contains(u.FirstName, search) && !contains(u.LastName, search) {
			return false
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	return window(list, filter.Page), int64(len(list)), nil
}

func (r users) CountByRole(_ context.Context) (map[models.Role]int64, error) {
	defer r.s.lock()()
	out := map[models.Role]int64{}
	for _, u := range r.s.st.d.users {
		out[u.Role]++
	}
	return out, nil
}
