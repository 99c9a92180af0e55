package app

import "school-quiz-service/internal/domain"

// countCorrect counts questions whose status is answered and whose selection
// matches the correct index. Skipped or untouched questions never count,
// whatever their stale selection holds.
func countCorrect(questions []domain.Question, statuses []domain.QuestionStatus) int {
	correct := 0
	for i, question := range questions {
		if i >= len(statuses) {
			break
		}
		status := statuses[i]
		if status.Status == domain.StatusAnswered && status.SelectedOption == question.CorrectIndex {
			correct++
		}
	}
	return correct
}

// computeScore maps a correct count to a 0-100 percentage. The loader rejects
// zero-question quizzes, so total is always positive here.
func computeScore(correct, total int) float64 {
	return 100 * float64(correct) / float64(total)
}
