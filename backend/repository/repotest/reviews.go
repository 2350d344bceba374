package repotest

import (
	"context"
	"sort"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type reviews struct{ s *Store }

func (r reviews) Create(_ context.Context, review *models.Review) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, other := range d.reviews {
		if other.StudentID == review.StudentID && other.CourseID == review.CourseID {
			return repository.ErrDuplicate
		}
	}
	review.ID = d.nextID()
	stamp(&review.CreatedAt, &review.UpdatedAt)
	row := *review
	row.Student, row.Course = nil, nil
	d.reviews[review.ID] = row
	return nil
}

func (r reviews) GetByID(_ context.Context, id uint) (*models.Review, error) {
	defer r.s.lock()()
	d := r.s.st.d
	rev, ok := d.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rev.Student = d.userRef(rev.StudentID)
	return &rev, nil
}

func (r reviews) Get(_ context.Context, studentID, courseID uint) (*models.Review, error) {
	defer r.s.lock()()
	for _, rev := range r.s.st.d.reviews {
		if rev.StudentID == studentID && rev.CourseID == courseID {
			return &rev, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r reviews) Update(_ context.Context, review *models.Review) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&review.CreatedAt, &review.UpdatedAt)
	row := *review
	row.Student, row.Course = nil, nil
	d.reviews[review.ID] = row
	return nil
}

func (r reviews) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.reviews, id)
	return nil
}

func (r reviews) ListByCourse(_ context.Context, courseID uint, filter repository.ReviewFilter) ([]models.Review, int64, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := values(d.reviews, func(rev models.Review) bool {
		return rev.CourseID == courseID && (filter.Rating == 0 || rev.Rating == filter.Rating)
	})
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch filter.SortBy {
		case repository.SortRatingHigh:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case repository.SortRatingLow:
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
		}
		return newer(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	total := int64(len(list))
	list = window(list, filter.Page)
	for i := range list {
		list[i].Student = d.userRef(list[i].StudentID)
	}
	return list, total, nil
}

func (r reviews) ListByStudent(_ context.Context, studentID uint) ([]models.Review, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.reviews, func(rev models.Review) bool { return rev.StudentID == studentID })
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	return list, nil
}

func (r reviews) Aggregate(_ context.Context, courseID uint) (float64, int64, error) {
	defer r.s.lock()()
	var sum, n int64
	for _, rev := range r.s.st.d.reviews {
		if rev.CourseID == courseID {
			sum += int64(rev.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

func (r reviews) Distribution(_ context.Context, courseID uint) (map[int]int64, error) {
	defer r.s.lock()()
	out := map[int]int64{}
	for _, rev := range r.s.st.d.reviews {
		if rev.CourseID == courseID {
			out[rev.Rating]++
		}
	}
	return out, nil
}

func (r reviews) Count(_ context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len(r.s.st.d.reviews)), nil
}
