package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
)

// ResultStore decorates an inner result repository with an atomic attempt
// reservation. The eligibility pre-check at session setup cannot stop two sessions
// of the same student racing each other; SETNX on (student, quiz) can, so
// at most one racer's Save goes through.
type ResultStore struct {
	client *redis.Client
	inner  app.ResultRepository
}

func NewResultStore(client *redis.Client, inner app.ResultRepository) *ResultStore {
	return &ResultStore{client: client, inner: inner}
}

func (s *ResultStore) Save(ctx context.Context, result domain.Result) error {
	key := s.attemptKey(result.StudentID, result.QuizID)
	reserved, err := s.client.SetNX(ctx, key, result.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("reserve attempt: %w", err)
	}
	if !reserved {
		return domain.ErrAlreadyAttempted
	}

	if err := s.inner.Save(ctx, result); err != nil {
		// release the reservation so the student is not locked out of a
		// quiz they have no recorded result for
		_ = s.client.Del(ctx, key).Err()
		return err
	}
	return nil
}

func (s *ResultStore) Find(ctx context.Context, studentID, quizID string) (domain.Result, error) {
	return s.inner.Find(ctx, studentID, quizID)
}

func (s *ResultStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Result, error) {
	return s.inner.ListByStudent(ctx, studentID)
}

func (s *ResultStore) ListAll(ctx context.Context) ([]domain.Result, error) {
	return s.inner.ListAll(ctx)
}

func (s *ResultStore) attemptKey(studentID, quizID string) string {
	return "result:attempt:" + studentID + ":" + quizID
}
