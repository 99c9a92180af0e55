package memory

import (
	"context"
	"sync"

	"school-quiz-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultRepository.
// It enforces no uniqueness constraint: attempt uniqueness rests on the
// eligibility pre-check at session setup. The redis and postgres stores
// strengthen this with a storage-level key.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Find(_ context.Context, studentID, quizID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, result := range s.results {
		if result.StudentID == studentID && result.QuizID == quizID {
			return result, nil
		}
	}
	return domain.Result{}, domain.ErrResultNotFound
}

func (s *ResultStore) Save(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) ListByStudent(_ context.Context, studentID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0)
	for _, result := range s.results {
		if result.StudentID == studentID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *ResultStore) ListAll(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, len(s.results))
	copy(results, s.results)
	return results, nil
}
