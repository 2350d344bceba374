package repotest

import (
	"context"
	"sort"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type enrollments struct{ s *Store }

func stripEnrollment(e models.Enrollment) models.Enrollment {
	e.Course = nil
	e.Student = nil
	return e
}

func (r enrollments) Create(_ context.Context, enrollment *models.Enrollment) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, e := range d.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repository.ErrDuplicate
		}
	}
	enrollment.ID = d.nextID()
	stamp(&enrollment.CreatedAt, &enrollment.UpdatedAt)
	d.enrollments[enrollment.ID] = stripEnrollment(*enrollment)
	return nil
}

func (r enrollments) GetByID(_ context.Context, id uint) (*models.Enrollment, error) {
	defer r.s.lock()()
	d := r.s.st.d
	e, ok := d.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c, ok := d.courses[e.CourseID]; ok {
		e.Course = &c
	}
	return &e, nil
}

func (r enrollments) Get(_ context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	defer r.s.lock()()
	for _, e := range r.s.st.d.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetForUpdate has nothing extra to lock: transactions hold the store mutex.
func (r enrollments) GetForUpdate(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	return r.Get(ctx, studentID, courseID)
}

func (r enrollments) Update(_ context.Context, enrollment *models.Enrollment) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.enrollments[enrollment.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&enrollment.CreatedAt, &enrollment.UpdatedAt)
	d.enrollments[enrollment.ID] = stripEnrollment(*enrollment)
	return nil
}

func (r enrollments) ListByStudent(_ context.Context, studentID uint, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := values(d.enrollments, func(e models.Enrollment) bool {
		return e.StudentID == studentID && (status == "" || e.Status == status)
	})
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].EnrolledAt, list[j].EnrolledAt, list[i].ID, list[j].ID)
	})
	for i := range list {
		if c, ok := d.courses[list[i].CourseID]; ok {
			list[i].Course = &c
		}
	}
	return list, nil
}

func (r enrollments) ListByCourse(_ context.Context, courseID uint, page repository.Page) ([]models.Enrollment, int64, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := values(d.enrollments, func(e models.Enrollment) bool { return e.CourseID == courseID })
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].EnrolledAt, list[j].EnrolledAt, list[i].ID, list[j].ID)
	})
	total := int64(len(list))
	list = window(list, page)
	for i := range list {
		list[i].Student = d.userRef(list[i].StudentID)
	}
	return list, total, nil
}

func (r enrollments) Exists(_ context.Context, courseID uint) (bool, error) {
	defer r.s.lock()()
	for _, e := range r.s.st.d.enrollments {
		if e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r enrollments) CountByStatus(_ context.Context, courseID uint) (map[models.EnrollmentStatus]int64, error) {
	defer r.s.lock()()
	out := map[models.EnrollmentStatus]int64{}
	for _, e := range r.s.st.d.enrollments {
		if courseID == 0 || e.CourseID == courseID {
			out[e.Status]++
		}
	}
	return out, nil
}

func (r enrollments) AverageProgress(_ context.Context, courseID uint) (float64, error) {
	defer r.s.lock()()
	var sum float64
	var n int
	for _, e := range r.s.st.d.enrollments {
		if courseID == 0 || e.CourseID == courseID {
			sum += e.ProgressPercentage
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

type progress struct{ s *Store }

func (r progress) Create(_ context.Context, p *models.Progress) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, other := range d.progress {
		if other.StudentID == p.StudentID && other.LessonID == p.LessonID {
			return repository.ErrDuplicate
		}
	}
	p.ID = d.nextID()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	row := *p
	row.Lesson, row.Student = nil, nil
	d.progress[p.ID] = row
	return nil
}

func (r progress) Get(_ context.Context, studentID, lessonID uint) (*models.Progress, error) {
	defer r.s.lock()()
	for _, p := range r.s.st.d.progress {
		if p.StudentID == studentID && p.LessonID == lessonID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r progress) Update(_ context.Context, p *models.Progress) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.progress[p.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	row := *p
	row.Lesson, row.Student = nil, nil
	d.progress[p.ID] = row
	return nil
}

func (r progress) inCourse(d *data, studentID, courseID uint, keep func(models.Progress, models.Lesson) bool) []models.Progress {
	var out []models.Progress
	for _, p := range d.progress {
		if p.StudentID != studentID {
			continue
		}
		l, ok := d.lessons[p.LessonID]
		if !ok || l.CourseID != courseID {
			continue
		}
		if keep == nil || keep(p, l) {
			out = append(out, p)
		}
	}
	return out
}

func (r progress) ListByCourse(_ context.Context, studentID, courseID uint) ([]models.Progress, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := r.inCourse(d, studentID, courseID, nil)
	sort.Slice(list, func(i, j int) bool {
		return d.lessons[list[i].LessonID].Order < d.lessons[list[j].LessonID].Order
	})
	return list, nil
}

func (r progress) CountCompleted(_ context.Context, studentID, courseID uint) (int64, error) {
	defer r.s.lock()()
	list := r.inCourse(r.s.st.d, studentID, courseID, func(p models.Progress, l models.Lesson) bool {
		return p.IsCompleted && l.IsPublished
	})
	return int64(len(list)), nil
}

func (r progress) TimeSpent(_ context.Context, studentID, courseID uint) (int64, error) {
	defer r.s.lock()()
	var total int64
	for _, p := range r.inCourse(r.s.st.d, studentID, courseID, nil) {
		total += int64(p.TimeSpent)
	}
	return total, nil
}

func (r progress) StudentTotals(_ context.Context, studentID uint) (int64, int64, error) {
	defer r.s.lock()()
	var completed, spent int64
	for _, p := range r.s.st.d.progress {
		if p.StudentID != studentID {
			continue
		}
		if p.IsCompleted {
			completed++
		}
		spent += int64(p.TimeSpent)
	}
	return completed, spent, nil
}
