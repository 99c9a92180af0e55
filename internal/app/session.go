package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"school-quiz-service/internal/domain"
)

// SessionState is the lifecycle of one quiz attempt.
type SessionState string

const (
	SessionNotStarted SessionState = "not-started"
	SessionInProgress SessionState = "in-progress"
	SessionFinished   SessionState = "finished"
)

// FinishReason distinguishes a manual submit from a timer expiry. Both run
// the same finishing path.
type FinishReason string

const (
	FinishManual  FinishReason = "manual"
	FinishTimeout FinishReason = "timeout"
)

// Summary is the outcome of a finished session. It is computed from session
// memory and stays valid even when the result write fails.
type Summary struct {
	QuizID           string       `json:"quizId"`
	QuizTitle        string       `json:"quizTitle"`
	Score            float64      `json:"score"`
	TotalQuestions   int          `json:"totalQuestions"`
	CorrectQuestions int          `json:"correctQuestions"`
	Reason           FinishReason `json:"reason"`
}

// Session is one student's in-memory attempt at a quiz. It is single-owner
// and never persisted; a reload or navigation away discards it. The quiz it
// holds is a shuffled copy, so the canonical definition is never mutated.
type Session struct {
	mu        sync.Mutex
	studentID string
	quiz      domain.Quiz
	statuses  []domain.QuestionStatus
	current   int
	remaining int
	state     SessionState
	eligible  bool
	prior     *domain.Result
	summary   *Summary

	results ResultRepository
	now     func() time.Time
	newID   func() string
}

func newSession(studentID string, quiz domain.Quiz, remaining int, eligible bool, prior *domain.Result, results ResultRepository, now func() time.Time, newID func() string) *Session {
	statuses := make([]domain.QuestionStatus, len(quiz.Questions))
	for i := range statuses {
		statuses[i] = domain.QuestionStatus{Status: domain.StatusUnanswered, SelectedOption: -1}
	}
	return &Session{
		studentID: studentID,
		quiz:      quiz,
		statuses:  statuses,
		remaining: remaining,
		state:     SessionNotStarted,
		eligible:  eligible,
		prior:     prior,
		results:   results,
		now:       now,
		newID:     newID,
	}
}

// Start moves the session into InProgress. Starting an ineligible session is
// a no-op that re-surfaces the ineligibility.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.eligible {
		return domain.ErrAlreadyAttempted
	}
	switch s.state {
	case SessionFinished:
		return domain.ErrSessionFinished
	case SessionInProgress:
		return nil
	}
	s.state = SessionInProgress
	return nil
}

// SelectOption records optionIndex as the answer for the given question and
// marks it answered, overwriting any prior answer. Revisiting answered
// questions is allowed.
func (s *Session) SelectOption(questionIndex, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inProgressLocked(); err != nil {
		return err
	}
	if questionIndex < 0 || questionIndex >= len(s.statuses) {
		return fmt.Errorf("question index %d out of range", questionIndex)
	}
	if optionIndex < 0 || optionIndex >= len(s.quiz.Questions[questionIndex].Options) {
		return fmt.Errorf("option index %d out of range", optionIndex)
	}

	s.statuses[questionIndex] = domain.QuestionStatus{
		Status:         domain.StatusAnswered,
		SelectedOption: optionIndex,
	}
	return nil
}

// Skip marks the current question skipped if it has never been touched
// (an existing answer is left intact) and advances the pointer. On the last
// question it advances nothing.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inProgressLocked(); err != nil {
		return err
	}

	if s.statuses[s.current].Status == domain.StatusUnanswered {
		s.statuses[s.current] = domain.QuestionStatus{
			Status:         domain.StatusSkipped,
			SelectedOption: -1,
		}
	}
	if s.current < len(s.statuses)-1 {
		s.current++
	}
	return nil
}

// GoTo moves the pointer to any valid question index.
func (s *Session) GoTo(questionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inProgressLocked(); err != nil {
		return err
	}
	if questionIndex < 0 || questionIndex >= len(s.statuses) {
		return fmt.Errorf("question index %d out of range", questionIndex)
	}
	s.current = questionIndex
	return nil
}

// Next advances the pointer by one, staying put on the last question.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inProgressLocked(); err != nil {
		return err
	}
	if s.current < len(s.statuses)-1 {
		s.current++
	}
	return nil
}

// Previous moves the pointer back by one, clamped at the first question.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inProgressLocked(); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Tick consumes one countdown tick. At zero it runs the same finishing path
// as a manual submit, exactly once. The returned flag reports whether the
// session is done ticking.
func (s *Session) Tick(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SessionNotStarted:
		return false
	case SessionFinished:
		return true
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return false
	}

	if _, err := s.finishLocked(ctx, FinishTimeout); err != nil {
		log.Printf("session %s/%s: %v", s.studentID, s.quiz.ID, err)
	}
	return true
}

// Finish submits the session. A repeated call is a no-op returning the
// original summary, which also covers a timer expiry racing a manual submit.
// A failed result write comes back wrapped in domain.ErrResultNotRecorded;
// the summary is still valid and should be shown.
func (s *Session) Finish(ctx context.Context, reason FinishReason) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionNotStarted {
		return Summary{}, domain.ErrSessionNotStarted
	}
	return s.finishLocked(ctx, reason)
}

func (s *Session) finishLocked(ctx context.Context, reason FinishReason) (Summary, error) {
	if s.state == SessionFinished {
		if s.summary != nil {
			return *s.summary, nil
		}
		return Summary{}, domain.ErrSessionFinished
	}
	s.state = SessionFinished

	correct := countCorrect(s.quiz.Questions, s.statuses)
	summary := Summary{
		QuizID:           s.quiz.ID,
		QuizTitle:        s.quiz.Title,
		Score:            computeScore(correct, len(s.quiz.Questions)),
		TotalQuestions:   len(s.quiz.Questions),
		CorrectQuestions: correct,
		Reason:           reason,
	}
	s.summary = &summary

	result := domain.Result{
		ID:               s.newID(),
		StudentID:        s.studentID,
		QuizID:           s.quiz.ID,
		QuizTitle:        s.quiz.Title,
		Score:            summary.Score,
		TotalQuestions:   summary.TotalQuestions,
		CorrectQuestions: summary.CorrectQuestions,
		SubjectType:      s.quiz.SubjectType,
		SubjectName:      s.quiz.SubjectName,
		CreatedAt:        s.now(),
	}
	if err := s.results.Save(ctx, result); err != nil {
		return summary, fmt.Errorf("%w: %v", domain.ErrResultNotRecorded, err)
	}
	return summary, nil
}

func (s *Session) inProgressLocked() error {
	switch s.state {
	case SessionNotStarted:
		return domain.ErrSessionNotStarted
	case SessionFinished:
		return domain.ErrSessionFinished
	}
	return nil
}

// State reports the session lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Eligible reports whether the student may start this session.
func (s *Session) Eligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible
}

// PriorResult returns the existing result that made the session ineligible.
func (s *Session) PriorResult() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prior == nil {
		return domain.Result{}, false
	}
	return *s.prior, true
}

// CurrentIndex returns the active question pointer.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RemainingSeconds returns the countdown value.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Statuses returns a copy of the per-question status array.
func (s *Session) Statuses() []domain.QuestionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuestionStatus, len(s.statuses))
	copy(out, s.statuses)
	return out
}

// Quiz returns the session's shuffled quiz copy.
func (s *Session) Quiz() domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// View is the observable session state a UI shell renders.
type View struct {
	QuizID           string                  `json:"quizId"`
	QuizTitle        string                  `json:"quizTitle"`
	State            SessionState            `json:"state"`
	Eligible         bool                    `json:"eligible"`
	CurrentIndex     int                     `json:"currentIndex"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	Statuses         []domain.QuestionStatus `json:"statuses"`
	Question         *QuestionView           `json:"question,omitempty"`
}

// QuestionView is a question without its correct-answer index.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Snapshot builds a renderable view of the session. The correct answer is
// never included.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]domain.QuestionStatus, len(s.statuses))
	copy(statuses, s.statuses)

	view := View{
		QuizID:           s.quiz.ID,
		QuizTitle:        s.quiz.Title,
		State:            s.state,
		Eligible:         s.eligible,
		CurrentIndex:     s.current,
		RemainingSeconds: s.remaining,
		Statuses:         statuses,
	}
	if s.state == SessionInProgress && s.current < len(s.quiz.Questions) {
		question := s.quiz.Questions[s.current]
		options := make([]string, len(question.Options))
		copy(options, question.Options)
		view.Question = &QuestionView{
			Index:   s.current,
			Total:   len(s.quiz.Questions),
			Text:    question.Text,
			Options: options,
		}
	}
	return view
}
