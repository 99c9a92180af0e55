package memory

import (
	"context"
	"sync"

	"school-quiz-service/internal/domain"
)

// MaterialStore is an in-memory implementation of app.MaterialRepository.
type MaterialStore struct {
	mu        sync.RWMutex
	materials []domain.Material
}

func NewMaterialStore(materials []domain.Material) *MaterialStore {
	return &MaterialStore{materials: materials}
}

// Add appends a material; used when seeding demo data.
func (s *MaterialStore) Add(material domain.Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = append(s.materials, material)
}

func (s *MaterialStore) ListBySubjectType(_ context.Context, subjectType domain.SubjectType) ([]domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	materials := make([]domain.Material, 0)
	for _, material := range s.materials {
		if material.SubjectType == subjectType {
			materials = append(materials, material)
		}
	}
	return materials, nil
}

func (s *MaterialStore) ListElectives(_ context.Context, subjectNames []string) ([]domain.Material, error) {
	wanted := make(map[string]struct{}, len(subjectNames))
	for _, name := range subjectNames {
		wanted[name] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	materials := make([]domain.Material, 0)
	for _, material := range s.materials {
		if material.SubjectType != domain.SubjectElective {
			continue
		}
		if _, ok := wanted[material.SubjectName]; ok {
			materials = append(materials, material)
		}
	}
	return materials, nil
}
