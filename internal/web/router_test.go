package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/models"
	"github.com/Dulateaad/TrustChecker/internal/upload"
)

// testBackend fakes the remote analysis service and the upload issuer
// plus storage in one server.
func testBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/analyze-text", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(models.RiskReport{
			RiskScore: 42,
			RiskLevel: models.RiskMedium,
			Summary:   "analyzed: " + req.Text,
		})
	})
	mux.HandleFunc("/analyze-link", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"message": "link service down"})
	})
	mux.HandleFunc("/analyze-image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RiskReport{RiskScore: 10, RiskLevel: models.RiskLow})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/upload-url", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(upload.Ticket{
			UploadURL: srv.URL + "/storage/obj-1",
			S3Key:     "uploads/obj-1",
		})
	})
	mux.HandleFunc("/storage/obj-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})
	return srv
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	backend := testBackend(t)
	return NewRouter(&Handlers{
		Analysis:   analysis.NewClient(backend.URL, "/analyze-text", 5*time.Second),
		Upload:     upload.NewClient(backend.URL+"/upload-url", 5*time.Second),
		GatewayURL: "wss://gateway.test/stream",
	})
}

func TestRouter_PagesRender(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/", "/text", "/link", "/image", "/document", "/audio", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: expected html content type, got %q", path, ct)
		}
	}
}

func TestRouter_LivePageCarriesGatewayURL(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "wss://gateway.test/stream") {
		t.Error("expected live page to embed the gateway URL")
	}
}

func TestRouter_AnalyzeText(t *testing.T) {
	router := testRouter(t)

	body := bytes.NewBufferString(`{"text":"is this offer a scam?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/text", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report models.RiskReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.RiskScore != 42 || report.RiskLevel != models.RiskMedium {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Summary != "analyzed: is this offer a scam?" {
		t.Errorf("text not forwarded: %q", report.Summary)
	}
}

func TestRouter_AnalyzeTextValidation(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":""}`},
		{"malformed JSON", `{"text":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRouter_UpstreamErrorPassesThrough(t *testing.T) {
	router := testRouter(t)

	body := strings.NewReader(`{"url":"https://sketchy.example"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/link", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var failure struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &failure); err != nil {
		t.Fatalf("decode failure: %v", err)
	}
	if failure.Message != "link service down" {
		t.Errorf("expected upstream message, got %q", failure.Message)
	}
}

func TestRouter_UploadProxy(t *testing.T) {
	router := testRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "evidence.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("pixels"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-proxy", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		S3Key string `json:"s3Key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.S3Key != "uploads/obj-1" {
		t.Errorf("expected s3Key 'uploads/obj-1', got %q", resp.S3Key)
	}
}

func TestRouter_UploadProxyRequiresFile(t *testing.T) {
	router := testRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-proxy", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_Healthz(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
