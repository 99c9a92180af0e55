package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-quiz-service/internal/domain"
)

// ResultStore persists results in Postgres. The unique index on
// (student_id, quiz_id) is the storage-level attempt key: a duplicate write
// that slips past the eligibility pre-check surfaces as ErrAlreadyAttempted
// instead of a second row.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Save(ctx context.Context, result domain.Result) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO results (id, student_id, quiz_id, quiz_title, score, total_questions, correct_questions, subject_type, subject_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (student_id, quiz_id) DO NOTHING`,
		result.ID, result.StudentID, result.QuizID, result.QuizTitle, result.Score,
		result.TotalQuestions, result.CorrectQuestions, string(result.SubjectType),
		result.SubjectName, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAttempted
	}
	return nil
}

func (s *ResultStore) Find(ctx context.Context, studentID, quizID string) (domain.Result, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, student_id, quiz_id, quiz_title, score, total_questions, correct_questions, subject_type, subject_name, created_at
		FROM results WHERE student_id=$1 AND quiz_id=$2`, studentID, quizID)
	result, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("find result: %w", err)
	}
	return result, nil
}

func (s *ResultStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, quiz_id, quiz_title, score, total_questions, correct_questions, subject_type, subject_name, created_at
		FROM results WHERE student_id=$1 ORDER BY created_at`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return collectResults(rows)
}

func (s *ResultStore) ListAll(ctx context.Context) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, quiz_id, quiz_title, score, total_questions, correct_questions, subject_type, subject_name, created_at
		FROM results ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return collectResults(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (domain.Result, error) {
	var (
		result      domain.Result
		subjectType string
	)
	err := row.Scan(
		&result.ID, &result.StudentID, &result.QuizID, &result.QuizTitle, &result.Score,
		&result.TotalQuestions, &result.CorrectQuestions, &subjectType,
		&result.SubjectName, &result.CreatedAt,
	)
	if err != nil {
		return domain.Result{}, err
	}
	result.SubjectType = domain.SubjectType(subjectType)
	return result, nil
}

func collectResults(rows pgx.Rows) ([]domain.Result, error) {
	var results []domain.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
