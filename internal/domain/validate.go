package domain

import "fmt"

// ValidateQuiz checks a quiz document at the loader boundary. Malformed
// documents are rejected rather than silently defaulted.
func ValidateQuiz(quiz Quiz) error {
	if quiz.ID == "" {
		return fmt.Errorf("missing quiz id")
	}

	if quiz.Title == "" {
		return fmt.Errorf("missing quiz title")
	}

	if len(quiz.Questions) == 0 {
		return fmt.Errorf("quiz %s has no questions", quiz.ID)
	}

	for i, question := range quiz.Questions {
		if question.Text == "" {
			return fmt.Errorf("missing text of question %d", i)
		}

		if len(question.Options) != OptionCount {
			return fmt.Errorf("question %d has %d options, want %d", i, len(question.Options), OptionCount)
		}

		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("correct answer index of question %d is out of range", i)
		}
	}

	return nil
}
