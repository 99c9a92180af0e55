package app

import (
	"sort"

	"school-quiz-service/internal/domain"
)

// GradeFor maps a percentage score to the school's grade scale.
func GradeFor(score float64) string {
	switch {
	case score >= 75:
		return "A1"
	case score >= 70:
		return "B2"
	case score >= 65:
		return "B3"
	case score >= 60:
		return "C4"
	case score >= 55:
		return "C5"
	case score >= 50:
		return "C6"
	case score >= 45:
		return "D7"
	case score >= 40:
		return "E8"
	default:
		return "F9"
	}
}

// SubjectSummary is one subject's slice of a student report.
type SubjectSummary struct {
	SubjectName string             `json:"subjectName"`
	SubjectType domain.SubjectType `json:"subjectType"`
	Results     []domain.Result    `json:"results"`
	Average     float64            `json:"average"`
	Grade       string             `json:"grade"`
}

// StudentReport is a student's results grouped by subject, with per-subject
// and overall averages and grades.
type StudentReport struct {
	Subjects          []SubjectSummary `json:"subjects"`
	TotalQuizzesTaken int              `json:"totalQuizzesTaken"`
	OverallAverage    float64          `json:"overallAverage"`
	OverallGrade      string           `json:"overallGrade"`
}

// BuildStudentReport groups results by (subject type, subject name). Core
// subjects sort first, then alphabetically by name.
func BuildStudentReport(results []domain.Result) StudentReport {
	type key struct {
		subjectType domain.SubjectType
		subjectName string
	}

	grouped := map[key]*SubjectSummary{}
	totalScore := 0.0
	for _, result := range results {
		k := key{result.SubjectType, result.SubjectName}
		summary, ok := grouped[k]
		if !ok {
			summary = &SubjectSummary{
				SubjectName: result.SubjectName,
				SubjectType: result.SubjectType,
			}
			grouped[k] = summary
		}
		summary.Results = append(summary.Results, result)
		totalScore += result.Score
	}

	subjects := make([]SubjectSummary, 0, len(grouped))
	for _, summary := range grouped {
		sum := 0.0
		for _, result := range summary.Results {
			sum += result.Score
		}
		summary.Average = sum / float64(len(summary.Results))
		summary.Grade = GradeFor(summary.Average)
		subjects = append(subjects, *summary)
	}

	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].SubjectType != subjects[j].SubjectType {
			return subjects[i].SubjectType == domain.SubjectCore
		}
		return subjects[i].SubjectName < subjects[j].SubjectName
	})

	report := StudentReport{
		Subjects:          subjects,
		TotalQuizzesTaken: len(results),
	}
	if len(results) > 0 {
		report.OverallAverage = totalScore / float64(len(results))
	}
	report.OverallGrade = GradeFor(report.OverallAverage)
	return report
}

// QuizAggregate summarizes all recorded attempts of one quiz.
type QuizAggregate struct {
	QuizID         string  `json:"quizId"`
	QuizTitle      string  `json:"quizTitle"`
	Attempts       int     `json:"attempts"`
	AverageScore   float64 `json:"averageScore"`
	UniqueStudents int     `json:"uniqueStudents"`
}

// AggregateQuizStats computes per-quiz attempt counts, average scores, and
// unique-student counts, ordered by quiz title then ID.
func AggregateQuizStats(results []domain.Result) []QuizAggregate {
	type acc struct {
		title    string
		sum      float64
		attempts int
		students map[string]struct{}
	}

	byQuiz := map[string]*acc{}
	for _, result := range results {
		a, ok := byQuiz[result.QuizID]
		if !ok {
			a = &acc{title: result.QuizTitle, students: map[string]struct{}{}}
			byQuiz[result.QuizID] = a
		}
		a.sum += result.Score
		a.attempts++
		a.students[result.StudentID] = struct{}{}
	}

	aggregates := make([]QuizAggregate, 0, len(byQuiz))
	for quizID, a := range byQuiz {
		aggregates = append(aggregates, QuizAggregate{
			QuizID:         quizID,
			QuizTitle:      a.title,
			Attempts:       a.attempts,
			AverageScore:   a.sum / float64(a.attempts),
			UniqueStudents: len(a.students),
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].QuizTitle != aggregates[j].QuizTitle {
			return aggregates[i].QuizTitle < aggregates[j].QuizTitle
		}
		return aggregates[i].QuizID < aggregates[j].QuizID
	})
	return aggregates
}
