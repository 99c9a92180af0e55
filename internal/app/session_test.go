package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/infra/memory"
)

func algebraQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "algebra-basics",
		Title:           "Algebra Basics",
		SubjectType:     domain.SubjectCore,
		SubjectName:     "Mathematics",
		DurationSeconds: 300,
		Questions: []domain.Question{
			{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
			{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
			{Text: "q3", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
			{Text: "q4", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
		},
	}
}

type recordingResults struct {
	*memory.ResultStore
	mu    sync.Mutex
	saves int
	fail  bool
}

func newRecordingResults() *recordingResults {
	return &recordingResults{ResultStore: memory.NewResultStore()}
}

func (r *recordingResults) Save(ctx context.Context, result domain.Result) error {
	r.mu.Lock()
	r.saves++
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return errors.New("store offline")
	}
	return r.ResultStore.Save(ctx, result)
}

func (r *recordingResults) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func newTestService(results app.ResultRepository, quizzes ...domain.Quiz) *app.QuizService {
	byID := map[string]domain.Quiz{}
	for _, quiz := range quizzes {
		byID[quiz.ID] = quiz
	}
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(byID), time.Minute)
	return app.NewQuizService(quizRepo, results, memory.NewMaterialStore(nil), app.DefaultDurationSeconds)
}

func openStartedSession(t *testing.T, results app.ResultRepository, quiz domain.Quiz) *app.Session {
	t.Helper()
	service := newTestService(results, quiz)
	session, err := service.OpenSession(context.Background(), quiz.ID, "student-1")
	require.NoError(t, err)
	require.NoError(t, session.Start())
	return session
}

func TestFreshSessionState(t *testing.T) {
	service := newTestService(newRecordingResults(), algebraQuiz())
	session, err := service.OpenSession(context.Background(), "algebra-basics", "student-1")
	require.NoError(t, err)

	assert.Equal(t, app.SessionNotStarted, session.State())
	assert.Equal(t, 0, session.CurrentIndex())
	assert.Equal(t, 300, session.RemainingSeconds())

	statuses := session.Statuses()
	require.Len(t, statuses, 4)
	for _, status := range statuses {
		assert.Equal(t, domain.StatusUnanswered, status.Status)
	}
}

func TestOperationsRequireInProgress(t *testing.T) {
	service := newTestService(newRecordingResults(), algebraQuiz())
	session, err := service.OpenSession(context.Background(), "algebra-basics", "student-1")
	require.NoError(t, err)

	assert.ErrorIs(t, session.SelectOption(0, 1), domain.ErrSessionNotStarted)
	assert.ErrorIs(t, session.Skip(), domain.ErrSessionNotStarted)
	_, err = session.Finish(context.Background(), app.FinishManual)
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)

	require.NoError(t, session.Start())
	_, err = session.Finish(context.Background(), app.FinishManual)
	require.NoError(t, err)

	assert.ErrorIs(t, session.SelectOption(0, 1), domain.ErrSessionFinished)
	assert.ErrorIs(t, session.GoTo(2), domain.ErrSessionFinished)
}

func TestSelectOptionOverwrites(t *testing.T) {
	session := openStartedSession(t, newRecordingResults(), algebraQuiz())

	require.NoError(t, session.SelectOption(1, 2))
	statuses := session.Statuses()
	assert.Equal(t, domain.StatusAnswered, statuses[1].Status)
	assert.Equal(t, 2, statuses[1].SelectedOption)

	require.NoError(t, session.SelectOption(1, 3))
	statuses = session.Statuses()
	assert.Equal(t, domain.StatusAnswered, statuses[1].Status)
	assert.Equal(t, 3, statuses[1].SelectedOption)

	assert.Error(t, session.SelectOption(9, 0))
	assert.Error(t, session.SelectOption(0, 4))
}

func TestSkipSemantics(t *testing.T) {
	session := openStartedSession(t, newRecordingResults(), algebraQuiz())

	// untouched question: skipped, pointer advances
	require.NoError(t, session.Skip())
	assert.Equal(t, domain.StatusSkipped, session.Statuses()[0].Status)
	assert.Equal(t, 1, session.CurrentIndex())

	// answered question: status preserved, pointer still advances
	require.NoError(t, session.SelectOption(1, 0))
	require.NoError(t, session.Skip())
	statuses := session.Statuses()
	assert.Equal(t, domain.StatusAnswered, statuses[1].Status)
	assert.Equal(t, 0, statuses[1].SelectedOption)
	assert.Equal(t, 2, session.CurrentIndex())

	// skip on the last question leaves the pointer alone
	require.NoError(t, session.GoTo(3))
	require.NoError(t, session.Skip())
	assert.Equal(t, 3, session.CurrentIndex())
	assert.Equal(t, domain.StatusSkipped, session.Statuses()[3].Status)
}

func TestNavigationClamps(t *testing.T) {
	session := openStartedSession(t, newRecordingResults(), algebraQuiz())

	require.NoError(t, session.Previous())
	assert.Equal(t, 0, session.CurrentIndex())

	require.NoError(t, session.GoTo(3))
	require.NoError(t, session.Next())
	assert.Equal(t, 3, session.CurrentIndex())

	require.NoError(t, session.GoTo(1))
	assert.Equal(t, 1, session.CurrentIndex())
	assert.Error(t, session.GoTo(4))
	assert.Error(t, session.GoTo(-1))
}

func answerCorrectly(t *testing.T, session *app.Session, count int) {
	t.Helper()
	questions := session.Quiz().Questions
	for i := 0; i < count; i++ {
		require.NoError(t, session.SelectOption(i, questions[i].CorrectIndex))
	}
}

func answerIncorrectly(t *testing.T, session *app.Session, index int) {
	t.Helper()
	questions := session.Quiz().Questions
	wrong := (questions[index].CorrectIndex + 1) % len(questions[index].Options)
	require.NoError(t, session.SelectOption(index, wrong))
}

func TestScoreComputation(t *testing.T) {
	cases := []struct {
		name      string
		correct   int
		incorrect int
		want      float64
	}{
		{"three of four", 3, 1, 75.0},
		{"none correct", 0, 4, 0.0},
		{"all correct", 4, 0, 100.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := newRecordingResults()
			session := openStartedSession(t, results, algebraQuiz())

			answerCorrectly(t, session, tc.correct)
			for i := tc.correct; i < tc.correct+tc.incorrect; i++ {
				answerIncorrectly(t, session, i)
			}

			summary, err := session.Finish(context.Background(), app.FinishManual)
			require.NoError(t, err)
			assert.Equal(t, tc.want, summary.Score)
			assert.Equal(t, tc.correct, summary.CorrectQuestions)
			assert.Equal(t, 4, summary.TotalQuestions)
		})
	}
}

func TestAlgebraBasicsScenario(t *testing.T) {
	results := newRecordingResults()
	session := openStartedSession(t, results, algebraQuiz())

	// Q1 correct, Q2 incorrect, skip Q3, leave Q4 untouched, submit.
	answerCorrectly(t, session, 1)
	answerIncorrectly(t, session, 1)
	require.NoError(t, session.GoTo(2))
	require.NoError(t, session.Skip())

	summary, err := session.Finish(context.Background(), app.FinishManual)
	require.NoError(t, err)
	assert.Equal(t, 25.0, summary.Score)
	assert.Equal(t, 1, summary.CorrectQuestions)
	assert.Equal(t, 4, summary.TotalQuestions)
	assert.Equal(t, 1, results.saveCount())

	saved, err := results.Find(context.Background(), "student-1", "algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, "Algebra Basics", saved.QuizTitle)
	assert.Equal(t, 25.0, saved.Score)
	assert.Equal(t, domain.SubjectCore, saved.SubjectType)
	assert.Equal(t, "Mathematics", saved.SubjectName)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestFinishIsIdempotent(t *testing.T) {
	results := newRecordingResults()
	session := openStartedSession(t, results, algebraQuiz())
	answerCorrectly(t, session, 2)

	first, err := session.Finish(context.Background(), app.FinishManual)
	require.NoError(t, err)
	second, err := session.Finish(context.Background(), app.FinishTimeout)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, app.FinishManual, second.Reason)
	assert.Equal(t, 1, results.saveCount())
}

func TestTimerExpiryFinishesOnce(t *testing.T) {
	quiz := algebraQuiz()
	quiz.DurationSeconds = 2
	results := newRecordingResults()
	session := openStartedSession(t, results, quiz)
	answerCorrectly(t, session, 3)

	ctx := context.Background()
	assert.False(t, session.Tick(ctx))
	assert.Equal(t, 1, session.RemainingSeconds())
	assert.True(t, session.Tick(ctx))
	assert.Equal(t, app.SessionFinished, session.State())

	// later ticks and a late manual submit change nothing
	assert.True(t, session.Tick(ctx))
	summary, err := session.Finish(ctx, app.FinishManual)
	require.NoError(t, err)
	assert.Equal(t, app.FinishTimeout, summary.Reason)
	assert.Equal(t, 75.0, summary.Score)
	assert.Equal(t, 1, results.saveCount())
}

func TestTickBeforeStartDoesNothing(t *testing.T) {
	service := newTestService(newRecordingResults(), algebraQuiz())
	session, err := service.OpenSession(context.Background(), "algebra-basics", "student-1")
	require.NoError(t, err)

	assert.False(t, session.Tick(context.Background()))
	assert.Equal(t, 300, session.RemainingSeconds())
	assert.Equal(t, app.SessionNotStarted, session.State())
}

func TestPersistFailureStillReturnsScore(t *testing.T) {
	results := newRecordingResults()
	results.fail = true
	session := openStartedSession(t, results, algebraQuiz())
	answerCorrectly(t, session, 4)

	summary, err := session.Finish(context.Background(), app.FinishManual)
	assert.ErrorIs(t, err, domain.ErrResultNotRecorded)
	assert.Equal(t, 100.0, summary.Score)
	assert.Equal(t, app.SessionFinished, session.State())
}

func TestIneligibleSessionCannotStart(t *testing.T) {
	results := newRecordingResults()
	service := newTestService(results, algebraQuiz())
	ctx := context.Background()

	session, err := service.OpenSession(ctx, "algebra-basics", "student-1")
	require.NoError(t, err)
	require.NoError(t, session.Start())
	_, err = session.Finish(ctx, app.FinishManual)
	require.NoError(t, err)

	retry, err := service.OpenSession(ctx, "algebra-basics", "student-1")
	require.NoError(t, err)
	assert.False(t, retry.Eligible())
	prior, ok := retry.PriorResult()
	require.True(t, ok)
	assert.Equal(t, "algebra-basics", prior.QuizID)

	assert.ErrorIs(t, retry.Start(), domain.ErrAlreadyAttempted)
	assert.Equal(t, app.SessionNotStarted, retry.State())

	// a different student is unaffected
	other, err := service.OpenSession(ctx, "algebra-basics", "student-2")
	require.NoError(t, err)
	assert.True(t, other.Eligible())
}

func TestRunCountdownAutoSubmits(t *testing.T) {
	quiz := algebraQuiz()
	quiz.DurationSeconds = 3
	results := newRecordingResults()
	session := openStartedSession(t, results, quiz)
	answerCorrectly(t, session, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.RunCountdown(ctx, session, time.Millisecond)

	require.Equal(t, app.SessionFinished, session.State())
	summary, err := session.Finish(ctx, app.FinishManual)
	require.NoError(t, err)
	assert.Equal(t, app.FinishTimeout, summary.Reason)
	assert.Equal(t, 100.0, summary.Score)
	assert.Equal(t, 1, results.saveCount())
}
