// Package repotest provides an in-memory repository.Store for tests.
//
// The store keeps rows by value, applies the same unique constraints and
// cascades as the Postgres schema, and implements Transaction by snapshotting
// the whole dataset and restoring it when fn fails.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

var errRestrict = errors.New("repotest: row is still referenced")

type data struct {
	seq         uint
	users       map[uint]models.User
	categories  map[uint]models.Category
	courses     map[uint]models.Course
	lessons     map[uint]models.Lesson
	enrollments map[uint]models.Enrollment
	progress    map[uint]models.Progress
	quizzes     map[uint]models.Quiz
	questions   map[uint]models.QuizQuestion
	answers     map[uint]models.QuizAnswer
	attempts    map[uint]models.QuizAttempt
	reviews     map[uint]models.Review
	comments    map[uint]models.Comment
}

func newData() *data {
	return &data{
		users:       map[uint]models.User{},
		categories:  map[uint]models.Category{},
		courses:     map[uint]models.Course{},
		lessons:     map[uint]models.Lesson{},
		enrollments: map[uint]models.Enrollment{},
		progress:    map[uint]models.Progress{},
		quizzes:     map[uint]models.Quiz{},
		questions:   map[uint]models.QuizQuestion{},
		answers:     map[uint]models.QuizAnswer{},
		attempts:    map[uint]models.QuizAttempt{},
		reviews:     map[uint]models.Review{},
		comments:    map[uint]models.Comment{},
	}
}

func cloneMap[T any](in map[uint]T) map[uint]T {
	out := make(map[uint]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		seq:         d.seq,
		users:       cloneMap(d.users),
		categories:  cloneMap(d.categories),
		courses:     cloneMap(d.courses),
		lessons:     cloneMap(d.lessons),
		enrollments: cloneMap(d.enrollments),
		progress:    cloneMap(d.progress),
		quizzes:     cloneMap(d.quizzes),
		questions:   cloneMap(d.questions),
		answers:     cloneMap(d.answers),
		attempts:    cloneMap(d.attempts),
		reviews:     cloneMap(d.reviews),
		comments:    cloneMap(d.comments),
	}
}

func (d *data) nextID() uint {
	d.seq++
	return d.seq
}

type state struct {
	mu sync.Mutex
	d  *data
}

// Store is an in-memory repository.Store.
type Store struct {
	st   *state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: &state{d: newData()}}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snapshot := s.st.d.clone()
	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.d = snapshot
		return err
	}
	return ctx.Err()
}

func (s *Store) Users() repository.UserRepository             { return users{s} }
func (s *Store) Categories() repository.CategoryRepository    { return categories{s} }
func (s *Store) Courses() repository.CourseRepository         { return courses{s} }
func (s *Store) Lessons() repository.LessonRepository         { return lessons{s} }
func (s *Store) Enrollments() repository.EnrollmentRepository { return enrollments{s} }
func (s *Store) Progress() repository.ProgressRepository      { return progress{s} }
func (s *Store) Quizzes() repository.QuizRepository           { return quizzes{s} }
func (s *Store) Attempts() repository.AttemptRepository       { return attempts{s} }
func (s *Store) Reviews() repository.ReviewRepository         { return reviews{s} }
func (s *Store) Comments() repository.CommentRepository       { return comments{s} }

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func window[T any](items []T, page repository.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []T{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func values[T any](in map[uint]T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func newer(a, b time.Time, idA, idB uint) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}

func older(a, b time.Time, idA, idB uint) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}

// cascade helpers operate on d directly and assume the lock is held.

func (d *data) deleteQuestion(id uint) {
	for aid, a := range d.answers {
		if a.QuestionID == id {
			delete(d.answers, aid)
		}
	}
	delete(d.questions, id)
}

func (d *data) deleteQuiz(id uint) {
	for qid, q := range d.questions {
		if q.QuizID == id {
			d.deleteQuestion(qid)
		}
	}
	for aid, a := range d.attempts {
		if a.QuizID == id {
			delete(d.attempts, aid)
		}
	}
	delete(d.quizzes, id)
}

func (d *data) deleteLesson(id uint) {
	for qid, q := range d.quizzes {
		if q.LessonID == id {
			d.deleteQuiz(qid)
		}
	}
	for pid, p := range d.progress {
		if p.LessonID == id {
			delete(d.progress, pid)
		}
	}
	for cid, c := range d.comments {
		if c.LessonID == id {
			delete(d.comments, cid)
		}
	}
	delete(d.lessons, id)
}

func (d *data) deleteCourse(id uint) {
	for lid, l := range d.lessons {
		if l.CourseID == id {
			d.deleteLesson(lid)
		}
	}
	for eid, e := range d.enrollments {
		if e.CourseID == id {
			delete(d.enrollments, eid)
		}
	}
	for rid, r := range d.reviews {
		if r.CourseID == id {
			delete(d.reviews, rid)
		}
	}
	delete(d.courses, id)
}

func (d *data) userRef(id uint) *models.User {
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (d *data) courseRef(id uint) *models.Course {
	c, ok := d.courses[id]
	if !ok {
		return nil
	}
	return d.withCourseRefs(c)
}

func (d *data) withCourseRefs(c models.Course) *models.Course {
	c.Instructor = d.userRef(c.InstructorID)
	if c.CategoryID != nil {
		if cat, ok := d.categories[*c.CategoryID]; ok {
			c.Category = &cat
		}
	}
	return &c
}

func sortCourses(list []models.Course, sortBy string) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch sortBy {
		case repository.SortPopular:
			if a.TotalStudents != b.TotalStudents {
				return a.TotalStudents > b.TotalStudents
			}
			return a.ID > b.ID
		case repository.SortRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
			return a.ID > b.ID
		case repository.SortPriceLow:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.ID < b.ID
		case repository.SortPriceHigh:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return a.ID > b.ID
		default:
			return newer(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		}
	})
}
