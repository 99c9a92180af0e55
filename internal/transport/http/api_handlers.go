package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
)

// APIHandler serves the JSON listing endpoints the quiz browser, results
// page, and materials page read from.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the listing endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quizzes", h.handleQuizzes)
	mux.HandleFunc("/api/results", h.handleResults)
	mux.HandleFunc("/api/materials", h.handleMaterials)
	mux.HandleFunc("/api/stats", h.handleStats)
}

func (h *APIHandler) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	overviews, err := h.service.ListQuizzes(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, overviews)
}

func (h *APIHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		http.Error(w, "missing studentId", http.StatusBadRequest)
		return
	}
	report, err := h.service.StudentReport(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, report)
}

func (h *APIHandler) handleMaterials(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		http.Error(w, "missing studentId", http.StatusBadRequest)
		return
	}
	profile := domain.StudentProfile{StudentID: studentID}
	if raw := r.URL.Query().Get("electives"); raw != "" {
		profile.ElectiveSubjects = strings.Split(raw, ",")
	}
	materials, err := h.service.ListMaterials(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, materials)
}

func (h *APIHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.QuizStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
