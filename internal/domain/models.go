package domain

import "time"

// SubjectType classifies a subject as part of the core curriculum or an elective.
type SubjectType string

const (
	SubjectCore     SubjectType = "core"
	SubjectElective SubjectType = "elective"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Question models an MCQ question with exactly four options and one correct index.
type Question struct {
	Text         string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
}

// Quiz is a named, timed set of questions tied to a subject. The definition
// is immutable once loaded; sessions work on their own shuffled copy.
type Quiz struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	SubjectType     SubjectType `json:"subjectType"`
	SubjectName     string      `json:"subjectName"`
	DurationSeconds int         `json:"duration"`
	Questions       []Question  `json:"questions"`
}

// QuestionState tracks how a student has dealt with one question in a session.
type QuestionState string

const (
	StatusUnanswered QuestionState = "unanswered"
	StatusAnswered   QuestionState = "answered"
	StatusSkipped    QuestionState = "skipped"
)

// QuestionStatus is the per-session record for a single question.
// SelectedOption is meaningful only when Status is answered.
type QuestionStatus struct {
	Status         QuestionState `json:"status"`
	SelectedOption int           `json:"selectedOption"`
}

// Result is the persisted outcome of a completed session. Quiz title and
// subject fields are denormalized so reporting never joins back to the
// quiz definition.
type Result struct {
	ID               string      `json:"id"`
	StudentID        string      `json:"studentId"`
	QuizID           string      `json:"quizId"`
	QuizTitle        string      `json:"quizTitle"`
	Score            float64     `json:"score"`
	TotalQuestions   int         `json:"totalQuestions"`
	CorrectQuestions int         `json:"correctQuestions"`
	SubjectType      SubjectType `json:"subjectType"`
	SubjectName      string      `json:"subjectName"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// Material is a piece of learning content tied to a subject.
type Material struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SubjectType SubjectType `json:"subjectType"`
	SubjectName string      `json:"subjectName"`
	Content     string      `json:"content"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// StudentProfile carries the enrollment data listings filter on. Identity
// itself comes from the auth collaborator; this is only the subject
// enrollment record.
type StudentProfile struct {
	StudentID        string   `json:"studentId"`
	Email            string   `json:"email"`
	ElectiveSubjects []string `json:"electiveSubjects"`
}
