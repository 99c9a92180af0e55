package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-quiz-service/internal/domain"
)

// MaterialStore queries learning materials from Postgres.
type MaterialStore struct {
	pool *pgxpool.Pool
}

func NewMaterialStore(pool *pgxpool.Pool) *MaterialStore {
	return &MaterialStore{pool: pool}
}

func (s *MaterialStore) ListBySubjectType(ctx context.Context, subjectType domain.SubjectType) ([]domain.Material, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, subject_type, subject_name, content, created_at
		FROM materials WHERE subject_type=$1 ORDER BY subject_name, title`, string(subjectType))
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	return collectMaterials(rows)
}

func (s *MaterialStore) ListElectives(ctx context.Context, subjectNames []string) ([]domain.Material, error) {
	if len(subjectNames) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, subject_type, subject_name, content, created_at
		FROM materials WHERE subject_type=$1 AND subject_name = ANY($2) ORDER BY subject_name, title`,
		string(domain.SubjectElective), subjectNames)
	if err != nil {
		return nil, fmt.Errorf("list elective materials: %w", err)
	}
	defer rows.Close()
	return collectMaterials(rows)
}

func collectMaterials(rows pgx.Rows) ([]domain.Material, error) {
	var materials []domain.Material
	for rows.Next() {
		var (
			material    domain.Material
			subjectType string
		)
		if err := rows.Scan(&material.ID, &material.Title, &subjectType, &material.SubjectName, &material.Content, &material.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		material.SubjectType = domain.SubjectType(subjectType)
		materials = append(materials, material)
	}
	return materials, rows.Err()
}
