package memory

import (
	"context"
	"testing"
	"time"

	"school-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"algebra-basics": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "algebra-basics"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "algebra-basics"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStaticQuizLoaderLists(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.Quiz{
		"b-quiz": {ID: "b-quiz"},
		"a-quiz": {ID: "a-quiz"},
	})

	quizzes, err := loader.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(quizzes))
	}
	if quizzes[0].ID != "a-quiz" || quizzes[1].ID != "b-quiz" {
		t.Fatalf("expected sorted ids, got %s, %s", quizzes[0].ID, quizzes[1].ID)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "algebra-basics",
		Title:           "Algebra Basics",
		SubjectType:     domain.SubjectCore,
		SubjectName:     "Mathematics",
		DurationSeconds: 300,
		Questions: []domain.Question{
			{
				Text:         "What is the value of x in 2x + 4 = 10?",
				Options:      []string{"2", "3", "4", "5"},
				CorrectIndex: 1,
			},
		},
	}
}
