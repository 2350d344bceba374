package repotest

import (
	"context"
	"sort"
	"strings"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type categories struct{ s *Store }

func (r categories) Create(ctx context.Context, category *models.Category) error {
	defer r.s.lock()()
	d := r.s.st.d
	if r.exists(d, category.Name, category.Slug, 0) {
		return repository.ErrDuplicate
	}
	category.ID = d.nextID()
	stamp(&category.CreatedAt, &category.UpdatedAt)
	d.categories[category.ID] = *category
	return nil
}

func (r categories) exists(d *data, name, slug string, excludeID uint) bool {
	for _, c := range d.categories {
		if c.ID != excludeID && (strings.EqualFold(c.Name, name) || c.Slug == slug) {
			return true
		}
	}
	return false
}

func (r categories) GetByID(_ context.Context, id uint) (*models.Category, error) {
	defer r.s.lock()()
	c, ok := r.s.st.d.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categories) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.d.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categories) Exists(_ context.Context, name, slug string, excludeID uint) (bool, error) {
	defer r.s.lock()()
	return r.exists(r.s.st.d, name, slug, excludeID), nil
}

func (r categories) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.categories, func(c models.Category) bool { return !activeOnly || c.IsActive })
	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r categories) Update(_ context.Context, category *models.Category) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.exists(d, category.Name, category.Slug, category.ID) {
		return repository.ErrDuplicate
	}
	stamp(&category.CreatedAt, &category.UpdatedAt)
	d.categories[category.ID] = *category
	return nil
}

func (r categories) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range d.courses {
		if c.CategoryID != nil && *c.CategoryID == id {
			c.CategoryID = nil
			d.courses[cid] = c
		}
	}
	delete(d.categories, id)
	return nil
}

type courses struct{ s *Store }

func stripCourse(c models.Course) models.Course {
	c.Instructor = nil
	c.Category = nil
	c.Lessons = nil
	return c
}

func (r courses) Create(_ context.Context, course *models.Course) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, c := range d.courses {
		if c.Slug == course.Slug {
			return repository.ErrDuplicate
		}
	}
	course.ID = d.nextID()
	stamp(&course.CreatedAt, &course.UpdatedAt)
	d.courses[course.ID] = stripCourse(*course)
	return nil
}

func (r courses) GetByID(_ context.Context, id uint) (*models.Course, error) {
	defer r.s.lock()()
	c := r.s.st.d.courseRef(id)
	if c == nil {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r courses) GetBySlug(_ context.Context, slug string) (*models.Course, error) {
	defer r.s.lock()()
	d := r.s.st.d
	for _, c := range d.courses {
		if c.Slug == slug {
			return d.withCourseRefs(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r courses) SlugExists(_ context.Context, slug string) (bool, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.d.courses {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r courses) Update(_ context.Context, course *models.Course) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.courses[course.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range d.courses {
		if c.ID != course.ID && c.Slug == course.Slug {
			return repository.ErrDuplicate
		}
	}
	stamp(&course.CreatedAt, &course.UpdatedAt)
	d.courses[course.ID] = stripCourse(*course)
	return nil
}

func (r courses) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.courses[id]; !ok {
		return repository.ErrNotFound
	}
	d.deleteCourse(id)
	return nil
}

func (r courses) List(_ context.Context, filter repository.CourseFilter) ([]models.Course, int64, error) {
	defer r.s.lock()()
	d := r.s.st.d
	search := strings.TrimSpace(filter.Search)
	list := values(d.courses, func(c models.Course) bool {
		switch {
		case filter.Status != "" && c.Status != filter.Status:
			return false
		case filter.InstructorID != 0 && c.InstructorID != filter.InstructorID:
			return false
		case filter.CategoryID != 0 && (c.CategoryID == nil || *c.CategoryID != filter.CategoryID):
			return false
		case filter.Level != "" && c.Level != filter.Level:
			return false
		case search != "" && !contains(c.Title, search) && !contains(c.Description, search):
			return false
		case filter.IsFree != nil && c.IsFree() != *filter.IsFree:
			return false
		case filter.MinPrice != nil && c.Price < *filter.MinPrice:
			return false
		case filter.MaxPrice != nil && c.Price > *filter.MaxPrice:
			return false
		}
		return true
	})
	sortCourses(list, filter.SortBy)
	total := int64(len(list))
	list = window(list, filter.Page)
	out := make([]models.Course, len(list))
	for i, c := range list {
		out[i] = *d.withCourseRefs(c)
	}
	return out, total, nil
}

func (r courses) CountByCategory(_ context.Context, categoryID uint) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, c := range r.s.st.d.courses {
		if c.CategoryID != nil && *c.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r courses) CountByStatus(_ context.Context, instructorID uint) (map[models.CourseStatus]int64, error) {
	defer r.s.lock()()
	out := map[models.CourseStatus]int64{}
	for _, c := range r.s.st.d.courses {
		if instructorID == 0 || c.InstructorID == instructorID {
			out[c.Status]++
		}
	}
	return out, nil
}

func (r courses) TopByStudents(_ context.Context, limit int) ([]models.Course, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.courses, nil)
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalStudents != list[j].TotalStudents {
			return list[i].TotalStudents > list[j].TotalStudents
		}
		return list[i].ID < list[j].ID
	})
	return window(list, repository.Page{Limit: limit}), nil
}

func (r courses) modify(id uint, fn func(c *models.Course)) error {
	defer r.s.lock()()
	d := r.s.st.d
	c, ok := d.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&c)
	d.courses[id] = c
	return nil
}

func (r courses) AdjustStudents(_ context.Context, id uint, delta int) error {
	return r.modify(id, func(c *models.Course) {
		c.TotalStudents += delta
		if c.TotalStudents < 0 {
			c.TotalStudents = 0
		}
	})
}

func (r courses) SetLessonCount(_ context.Context, id uint, total int) error {
	return r.modify(id, func(c *models.Course) { c.TotalLessons = total })
}

func (r courses) SetRating(_ context.Context, id uint, average float64, total int) error {
	return r.modify(id, func(c *models.Course) {
		c.AverageRating = average
		c.TotalReviews = total
	})
}

type lessons struct{ s *Store }

func (r lessons) Create(_ context.Context, lesson *models.Lesson) error {
	defer r.s.lock()()
	d := r.s.st.d
	lesson.ID = d.nextID()
	stamp(&lesson.CreatedAt, &lesson.UpdatedAt)
	l := *lesson
	l.Quizzes = nil
	d.lessons[l.ID] = l
	return nil
}

func (r lessons) GetByID(_ context.Context, id uint) (*models.Lesson, error) {
	defer r.s.lock()()
	l, ok := r.s.st.d.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r lessons) Update(_ context.Context, lesson *models.Lesson) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.lessons[lesson.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&lesson.CreatedAt, &lesson.UpdatedAt)
	l := *lesson
	l.Quizzes = nil
	d.lessons[l.ID] = l
	return nil
}

func (r lessons) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.lessons[id]; !ok {
		return repository.ErrNotFound
	}
	d.deleteLesson(id)
	return nil
}

func (r lessons) ListByCourse(_ context.Context, courseID uint, publishedOnly bool) ([]models.Lesson, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.lessons, func(l models.Lesson) bool {
		return l.CourseID == courseID && (!publishedOnly || l.IsPublished)
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r lessons) Count(_ context.Context, courseID uint, publishedOnly bool) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, l := range r.s.st.d.lessons {
		if l.CourseID == courseID && (!publishedOnly || l.IsPublished) {
			n++
		}
	}
	return n, nil
}

func (r lessons) ShiftOrders(_ context.Context, courseID uint, from, to, delta int) error {
	defer r.s.lock()()
	d := r.s.st.d
	for id, l := range d.lessons {
		if l.CourseID == courseID && l.Order >= from && l.Order <= to {
			l.Order += delta
			d.lessons[id] = l
		}
	}
	return nil
}
