package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-quiz-service/internal/domain"
)

// DefaultDurationSeconds is the countdown used when a quiz carries no
// duration of its own.
const DefaultDurationSeconds = 300

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// ResultRepository persists and queries quiz results. Find returns
// domain.ErrResultNotFound when no result exists for the pair.
type ResultRepository interface {
	Find(ctx context.Context, studentID, quizID string) (domain.Result, error)
	Save(ctx context.Context, result domain.Result) error
	ListByStudent(ctx context.Context, studentID string) ([]domain.Result, error)
	ListAll(ctx context.Context) ([]domain.Result, error)
}

// MaterialRepository queries learning materials by subject.
type MaterialRepository interface {
	ListBySubjectType(ctx context.Context, subjectType domain.SubjectType) ([]domain.Material, error)
	ListElectives(ctx context.Context, subjectNames []string) ([]domain.Material, error)
}

// QuizService contains the student-facing quiz use cases.
type QuizService struct {
	quizzes   QuizRepository
	results   ResultRepository
	materials MaterialRepository

	defaultDuration int
	now             func() time.Time
	newID           func() string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(quizzes QuizRepository, results ResultRepository, materials MaterialRepository, defaultDuration int) *QuizService {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDurationSeconds
	}
	return &QuizService{
		quizzes:         quizzes,
		results:         results,
		materials:       materials,
		defaultDuration: defaultDuration,
		now:             time.Now,
		newID:           uuid.NewString,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps and IDs.
func NewQuizServiceWithClock(quizzes QuizRepository, results ResultRepository, materials MaterialRepository, defaultDuration int, now func() time.Time, newID func() string) *QuizService {
	s := NewQuizService(quizzes, results, materials, defaultDuration)
	s.now = now
	s.newID = newID
	return s
}

// OpenSession fetches a quiz, shuffles its questions, checks the one-attempt
// eligibility, and hands back a ready session. The session is not started;
// the student triggers that explicitly.
func (s *QuizService) OpenSession(ctx context.Context, quizID, studentID string) (*Session, error) {
	if quizID == "" {
		return nil, fmt.Errorf("quiz id is required")
	}
	if studentID == "" {
		return nil, fmt.Errorf("student id is required")
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return nil, fmt.Errorf("malformed quiz %s: %w", quizID, err)
	}

	shuffled := s.shuffleQuestions(quiz.Questions)
	quiz.Questions = shuffled

	remaining := quiz.DurationSeconds
	if remaining <= 0 {
		remaining = s.defaultDuration
	}

	eligible := true
	var prior *domain.Result
	existing, err := s.results.Find(ctx, studentID, quizID)
	switch {
	case err == nil:
		eligible = false
		prior = &existing
	case errors.Is(err, domain.ErrResultNotFound):
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}

	return newSession(studentID, quiz, remaining, eligible, prior, s.results, s.now, s.newID), nil
}

// shuffleQuestions returns a uniformly shuffled copy; the input is left as is.
func (s *QuizService) shuffleQuestions(questions []domain.Question) []domain.Question {
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)

	s.rndMu.Lock()
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.rndMu.Unlock()
	return shuffled
}

// QuizOverview is a list entry for the quiz browser, with the student's
// attempt state folded in.
type QuizOverview struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	SubjectType     domain.SubjectType `json:"subjectType"`
	SubjectName     string             `json:"subjectName"`
	DurationSeconds int                `json:"duration"`
	QuestionCount   int                `json:"questionCount"`
	Attempted       bool               `json:"attempted"`
	Score           float64            `json:"score,omitempty"`
}

// ListQuizzes returns all quizzes annotated with whether the student has
// already attempted each one.
func (s *QuizService) ListQuizzes(ctx context.Context, studentID string) ([]QuizOverview, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}

	attempted := map[string]domain.Result{}
	if studentID != "" {
		results, err := s.results.ListByStudent(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		for _, result := range results {
			attempted[result.QuizID] = result
		}
	}

	overviews := make([]QuizOverview, 0, len(quizzes))
	for _, quiz := range quizzes {
		overview := QuizOverview{
			ID:              quiz.ID,
			Title:           quiz.Title,
			SubjectType:     quiz.SubjectType,
			SubjectName:     quiz.SubjectName,
			DurationSeconds: quiz.DurationSeconds,
			QuestionCount:   len(quiz.Questions),
		}
		if result, ok := attempted[quiz.ID]; ok {
			overview.Attempted = true
			overview.Score = result.Score
		}
		overviews = append(overviews, overview)
	}
	return overviews, nil
}

// ListMaterials returns learning materials visible to the student: every
// core-subject material plus electives the student is enrolled in.
func (s *QuizService) ListMaterials(ctx context.Context, profile domain.StudentProfile) ([]domain.Material, error) {
	core, err := s.materials.ListBySubjectType(ctx, domain.SubjectCore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	materials := append([]domain.Material{}, core...)

	if len(profile.ElectiveSubjects) > 0 {
		electives, err := s.materials.ListElectives(ctx, profile.ElectiveSubjects)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		materials = append(materials, electives...)
	}
	return materials, nil
}

// StudentReport groups a student's results by subject and grades them.
func (s *QuizService) StudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return StudentReport{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return BuildStudentReport(results), nil
}

// QuizStats aggregates every recorded result per quiz, for reporting
// collaborators.
func (s *QuizService) QuizStats(ctx context.Context) ([]QuizAggregate, error) {
	results, err := s.results.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return AggregateQuizStats(results), nil
}
