package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/models"
	"github.com/Dulateaad/TrustChecker/internal/observability/logging"
	"github.com/Dulateaad/TrustChecker/internal/upload"
)

// analyzeRequest is the JSON body the analyze routes accept. Job fields
// are present when the page polls a pending media job.
type analyzeRequest struct {
	Text          string `json:"text"`
	URL           string `json:"url"`
	S3Key         string `json:"s3Key"`
	FileType      string `json:"fileType"`
	JobID         string `json:"jobId"`
	TranscribeJob string `json:"transcribe_job"`
}

func (h *Handlers) analyzeText(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	h.respond(w, r, "text", func() (*models.RiskReport, error) {
		return h.Analysis.AnalyzeText(r.Context(), req.Text)
	})
}

func (h *Handlers) analyzeLink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	h.respond(w, r, "link", func() (*models.RiskReport, error) {
		return h.Analysis.AnalyzeLink(r.Context(), req.URL)
	})
}

func (h *Handlers) analyzeImage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if req.S3Key == "" {
		writeError(w, http.StatusBadRequest, "s3Key is required")
		return
	}
	h.respond(w, r, "image", func() (*models.RiskReport, error) {
		return h.Analysis.AnalyzeImage(r.Context(), req.S3Key)
	})
}

func (h *Handlers) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if req.S3Key == "" {
		writeError(w, http.StatusBadRequest, "s3Key is required")
		return
	}
	h.respond(w, r, "document", func() (*models.RiskReport, error) {
		return h.Analysis.AnalyzeDocument(r.Context(), req.S3Key, req.FileType, req.JobID)
	})
}

func (h *Handlers) analyzeAudio(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	if req.S3Key == "" {
		writeError(w, http.StatusBadRequest, "s3Key is required")
		return
	}
	h.respond(w, r, "audio", func() (*models.RiskReport, error) {
		return h.Analysis.AnalyzeAudio(r.Context(), req.S3Key, req.TranscribeJob)
	})
}

// uploadURL proxies the pre-signed-URL issuance so the browser never
// talks to the issuer directly.
func (h *Handlers) uploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType string `json:"contentType"`
		Ext         string `json:"ext"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ticket, err := h.Upload.RequestTicket(r.Context(), req.ContentType, req.Ext)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// uploadProxy accepts the file server-side: multipart in, pre-signed PUT
// out, storage key back.
func (h *Handlers) uploadProxy(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file not found")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s3Key, err := h.Upload.UploadFile(r.Context(), header.Filename, contentType, file)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"s3Key": s3Key})
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, checkType string, call func() (*models.RiskReport, error)) {
	logger := logging.WithCheck(checkType, middleware.GetReqID(r.Context()))

	report, err := call()
	if err != nil {
		logger.Warn().Err(err).Msg("Check failed")
		writeUpstreamError(w, err)
		return
	}
	logger.Info().
		Int("riskScore", report.RiskScore).
		Str("riskLevel", string(report.RiskLevel)).
		Bool("pending", report.Pending()).
		Msg("Check completed")
	writeJSON(w, http.StatusOK, report)
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

// writeUpstreamError maps a backend failure onto the response: backend
// statuses pass through with their message, anything else is a 502.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var analysisErr *analysis.RequestError
	if errors.As(err, &analysisErr) {
		writeError(w, analysisErr.StatusCode, analysisErr.Message)
		return
	}
	var uploadErr *upload.RequestError
	if errors.As(err, &uploadErr) {
		writeError(w, uploadErr.StatusCode, uploadErr.Message)
		return
	}

	log.Warn().Err(err).Msg("Upstream request failed")
	writeError(w, http.StatusBadGateway, "upstream request failed")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
