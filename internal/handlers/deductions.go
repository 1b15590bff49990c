package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dezhurka/internal/app"
	"github.com/shrimpsizemoose/dezhurka/internal/models"
)

type DeductionHandler struct {
	service *app.Service
}

func NewDeductionHandler(service *app.Service) *DeductionHandler {
	return &DeductionHandler{
		service: service,
	}
}

// Routes mounts the API on a fresh mux.
func (h *DeductionHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/session", instrument("/api/v1/session", h.HandleLogin))
	mux.HandleFunc("DELETE /api/v1/session", instrument("/api/v1/session", h.requireToken(h.HandleLogout)))
	mux.HandleFunc("POST /api/v1/deductions", instrument("/api/v1/deductions", h.requireToken(h.HandleRecordDeduction)))
	mux.HandleFunc("GET /api/v1/classes/{class}", instrument("/api/v1/classes/{class}", h.requireToken(h.HandleClassRecords)))
	mux.HandleFunc("GET /api/v1/classes/{class}/score", instrument("/api/v1/classes/{class}/score", h.requireToken(h.HandleClassScore)))
	mux.HandleFunc("GET /api/v1/summary", instrument("/api/v1/summary", h.requireToken(h.HandleSummary)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func (h *DeductionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.service.Auth.Login(r.Context(), body.InviteCode)
	if errors.Is(err, app.ErrWrongPasscode) {
		http.Error(w, app.ErrWrongPasscode.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.Error.Printf("Failed to issue token: %v", err)
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, token)
}

func (h *DeductionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := h.service.Auth.TokenFromRequest(r)
	if err := h.service.Auth.Logout(r.Context(), token); err != nil {
		logger.Error.Printf("Failed to revoke token: %v", err)
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DeductionHandler) HandleRecordDeduction(w http.ResponseWriter, r *http.Request) {
	var form models.DeductionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ok, err := h.service.Board.RecordDeduction(form.ClassName, form.StudentName, form.Reason, string(form.Score))
	if err != nil {
		logger.Error.Printf("Failed to record deduction: %v", err)
		http.Error(w, "Failed to save deduction", http.StatusInternalServerError)
		return
	}

	status := http.StatusCreated
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]bool{"success": ok})
}

func classFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	class := strings.TrimSpace(r.PathValue("class"))
	if class == "" {
		logger.Error.Printf("Failed to extract class from path: %s", r.URL.Path)
		http.Error(w, "Invalid class", http.StatusBadRequest)
		return "", false
	}
	return class, true
}

func (h *DeductionHandler) HandleClassScore(w http.ResponseWriter, r *http.Request) {
	class, ok := classFromPath(w, r)
	if !ok {
		return
	}

	score, err := h.service.Board.ClassScore(class)
	if err != nil {
		logger.Error.Printf("Failed to get score for class %s: %v", class, err)
		http.Error(w, "Failed to fetch score", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class_name": class,
		"score":      score,
	})
}

func (h *DeductionHandler) HandleClassRecords(w http.ResponseWriter, r *http.Request) {
	class, ok := classFromPath(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Board.ClassRecords(class)
	if err != nil {
		logger.Error.Printf("Failed to get records for class %s: %v", class, err)
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *DeductionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Board.CurrentWeekSummary()
	if err != nil {
		logger.Error.Printf("Failed to build summary: %v", err)
		http.Error(w, "Failed to fetch summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
