package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/infra/memory"
)

// NewPlayCmd builds an interactive terminal quiz player backed by the demo
// content. It drives the same session engine the server exposes over
// websocket.
func NewPlayCmd() *cobra.Command {
	var (
		quizID    string
		studentID string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a demo quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), quizID, studentID, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "algebra-basics", "quiz to play")
	cmd.Flags().StringVar(&studentID, "student", "local-student", "student identifier")
	return cmd
}

func runPlay(ctx context.Context, quizID, studentID string, in io.Reader, out io.Writer) error {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), 10*time.Minute)
	service := app.NewQuizService(quizRepo, memory.NewResultStore(), memory.NewMaterialStore(nil), app.DefaultDurationSeconds)

	session, err := service.OpenSession(ctx, quizID, studentID)
	if err != nil {
		return err
	}

	quiz := session.Quiz()
	bold := color.New(color.Bold)
	bold.Fprintf(out, "\n%s (%s, %s)\n", quiz.Title, quiz.SubjectName, quiz.SubjectType)
	fmt.Fprintf(out, "%d questions, %s. Each quiz can be taken once.\n", len(quiz.Questions), formatTime(session.RemainingSeconds()))
	fmt.Fprint(out, "Press Enter to start...")

	reader := bufio.NewReader(in)
	if _, err := reader.ReadString('\n'); err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	countdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.RunCountdown(countdownCtx, session, app.TickInterval)

	for session.State() == app.SessionInProgress {
		printCurrentQuestion(out, session)
		fmt.Fprint(out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if session.State() != app.SessionInProgress {
			break
		}
		if err := handleCommand(session, strings.ToUpper(strings.TrimSpace(line)), out); err != nil {
			if errors.Is(err, errSubmitted) {
				break
			}
			color.New(color.FgYellow).Fprintln(out, err.Error())
		}
	}

	summary, err := session.Finish(ctx, app.FinishManual)
	if err != nil && !errors.Is(err, domain.ErrResultNotRecorded) {
		return err
	}
	printSummary(out, summary, err)
	return nil
}

var errSubmitted = errors.New("submitted")

func handleCommand(session *app.Session, input string, out io.Writer) error {
	switch {
	case input == "":
		return nil
	case input == "S":
		return session.Skip()
	case input == "N":
		return session.Next()
	case input == "P":
		return session.Previous()
	case input == "F":
		return errSubmitted
	case strings.HasPrefix(input, "G"):
		number, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(input, "G")))
		if err != nil {
			return fmt.Errorf("usage: g <question number>")
		}
		return session.GoTo(number - 1)
	case len(input) == 1 && input[0] >= 'A' && input[0] <= 'D':
		if err := session.SelectOption(session.CurrentIndex(), int(input[0]-'A')); err != nil {
			return err
		}
		return session.Next()
	default:
		return fmt.Errorf("commands: A-D answer, S skip, N next, P previous, G <n> go to, F finish")
	}
}

func printCurrentQuestion(out io.Writer, session *app.Session) {
	view := session.Snapshot()
	if view.Question == nil {
		return
	}

	fmt.Fprintln(out)
	color.New(color.FgCyan).Fprintf(out, "Time left: %s\n", formatTime(view.RemainingSeconds))
	color.New(color.Bold).Fprintf(out, "Question %d of %d: %s\n", view.Question.Index+1, view.Question.Total, view.Question.Text)
	for i, option := range view.Question.Options {
		marker := " "
		status := view.Statuses[view.Question.Index]
		if status.Status == domain.StatusAnswered && status.SelectedOption == i {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %c. %s\n", marker, 'A'+i, option)
	}
}

func printSummary(out io.Writer, summary app.Summary, err error) {
	fmt.Fprintln(out)
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Quiz completed! Score: %.2f%%\n", summary.Score)
	fmt.Fprintf(out, "%d of %d correct. Grade: %s\n", summary.CorrectQuestions, summary.TotalQuestions, app.GradeFor(summary.Score))
	if err != nil {
		color.New(color.FgYellow).Fprintln(out, "Warning: the result could not be recorded.")
	}
}

func formatTime(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
