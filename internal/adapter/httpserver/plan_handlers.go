package httpserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-mock-interviewer/pkg/textx"
)

type planResponse struct {
	ID        string            `json:"id"`
	Status    domain.JobStatus  `json:"status"`
	Error     string            `json:"error,omitempty"`
	Policy    domain.PlanPolicy `json:"policy,omitempty"`
	Questions []domain.Question `json:"questions,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CreatePlanHandler enqueues a question-plan job. It takes either a JSON
// body or a multipart form whose "resume" part is a plain-text file.
func (s *Server) CreatePlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req domain.PlanRequest
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if !s.parsePlanForm(w, r, &req) {
				return
			}
		} else if !decodeJSON(w, r, maxInterviewBody, &req) {
			return
		}
		id, err := s.Plans.Enqueue(r.Context(), req)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Location", "/v1/question-plans/"+id)
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.JobQueued)})
	}
}

func (s *Server) parsePlanForm(w http.ResponseWriter, r *http.Request, req *domain.PlanRequest) bool {
	maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatusError(w, http.StatusRequestEntityTooLarge, "payload too large", map[string]any{"max_mb": s.Cfg.MaxUploadMB})
			return false
		}
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
		return false
	}

	req.JobTitle = strings.TrimSpace(r.FormValue("job_title"))
	req.JobDescription = r.FormValue("job_description")
	req.ResumeText = r.FormValue("resume_text")
	req.Policy = domain.PlanPolicy(r.FormValue("policy"))
	ints := map[string]*int{
		"beginner":      &req.Beginner,
		"medium":        &req.Medium,
		"hard":          &req.Hard,
		"resume_pct":    &req.ResumePct,
		"technical_pct": &req.TechnicalPct,
	}
	for field, dst := range ints {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidArgument, field), map[string]string{field: "int"})
			return false
		}
		*dst = n
	}

	if f, h, err := r.FormFile("resume"); err == nil {
		defer func() { _ = f.Close() }()
		data, err := io.ReadAll(f)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return false
		}
		if strings.ToLower(filepath.Ext(h.Filename)) != ".txt" {
			writeStatusError(w, http.StatusUnsupportedMediaType, "unsupported media type for resume (extension)", map[string]any{"filename": h.Filename})
			return false
		}
		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "text/") {
			writeStatusError(w, http.StatusUnsupportedMediaType, "unsupported media type for resume (content)", map[string]any{"mime": mt.String(), "filename": h.Filename})
			return false
		}
		req.ResumeText = textx.SanitizeText(string(data))
	}

	if fields, err := validateStruct(req); err != nil {
		writeError(w, r, err, fields)
		return false
	}
	return true
}

// GetPlanHandler returns a plan job. The body carries a strong ETag so
// pollers can send If-None-Match and get 304 until the status moves.
func (s *Server) GetPlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, map[string]string{"id": "uuid"})
			return
		}
		job, err := s.Plans.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		resp := planResponse{
			ID:        job.ID,
			Status:    job.Status,
			Error:     job.Error,
			Policy:    job.Request.Policy,
			Questions: job.Questions,
			CreatedAt: job.CreatedAt,
			UpdatedAt: job.UpdatedAt,
		}
		body, err := json.Marshal(resp)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: encode plan: %v", domain.ErrInternal, err), nil)
			return
		}
		sum := sha256.Sum256(body)
		etag := `"` + hex.EncodeToString(sum[:16]) + `"`
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
