package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/infra/memory"
)

func TestResultStoreReservesAttempt(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewResultStore(newClient(mr), memory.NewResultStore())
	ctx := context.Background()

	result := domain.Result{ID: "r1", StudentID: "s1", QuizID: "q1", Score: 75, CreatedAt: time.Now()}
	if err := store.Save(ctx, result); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// same (student, quiz) pair: the reservation blocks a duplicate even when
	// two sessions both passed the eligibility pre-check
	dup := domain.Result{ID: "r2", StudentID: "s1", QuizID: "q1", Score: 100, CreatedAt: time.Now()}
	if err := store.Save(ctx, dup); !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}

	found, err := store.Find(ctx, "s1", "q1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != "r1" || found.Score != 75 {
		t.Fatalf("first write must win, got %+v", found)
	}

	// a different quiz for the same student is unaffected
	if err := store.Save(ctx, domain.Result{ID: "r3", StudentID: "s1", QuizID: "q2"}); err != nil {
		t.Fatalf("save other quiz: %v", err)
	}
}

type brokenInner struct {
	*memory.ResultStore
}

func (brokenInner) Save(context.Context, domain.Result) error {
	return errors.New("store offline")
}

func TestResultStoreReleasesReservationOnInnerFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := memory.NewResultStore()
	broken := NewResultStore(newClient(mr), brokenInner{inner})
	ctx := context.Background()

	result := domain.Result{ID: "r1", StudentID: "s1", QuizID: "q1"}
	if err := broken.Save(ctx, result); err == nil {
		t.Fatalf("expected inner failure to propagate")
	}

	// the reservation must not lock the student out after a failed write
	working := NewResultStore(newClient(mr), inner)
	if err := working.Save(ctx, result); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}
