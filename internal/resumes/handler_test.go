package resumes

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/llm"
	"resume-builder/internal/shared/server/respond"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create docx entry: %v", err)
	}
	_, _ = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
	return buf.Bytes()
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body.Error.Code
}

func TestHandlerCreateUpdateAndMarkup(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := doJSON(r, http.MethodPost, "/api/v1/resumes", map[string]any{
		"userId":  testUserID,
		"title":   "Backend CV",
		"profile": map[string]any{"name": "Ivan", "skills": []string{"Python"}},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created Detail
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/resumes/"+created.ID+"/versions", map[string]any{
		"instruction": "add Go",
		"profile":     map[string]any{"skills": []string{"Python", "Go"}},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/resumes/"+created.ID+"/versions", nil)
	var list struct {
		Items []Version `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil || len(list.Items) != 2 {
		t.Fatalf("expected 2 versions, got %s", resp.Body.String())
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/resumes/"+created.ID+"/versions/2/markup", nil)
	if resp.Code != http.StatusOK || resp.Body.String() != "<html>call 2</html>" {
		t.Fatalf("unexpected markup response %d: %q", resp.Code, resp.Body.String())
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/users/42/resumes", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodDelete, "/api/v1/resumes/"+created.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestHandlerCreateImportedFromMultipart(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("payload", `{"userId":42,"title":"Imported CV"}`)
	part, err := writer.CreateFormFile("source", "cv.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(buildDocx(t, "Ivan Petrov, Python developer"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created Detail
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CreationMode != ModeImported {
		t.Fatalf("expected imported mode, got %q", created.CreationMode)
	}
	var input struct {
		SourceDocument string `json:"source_document"`
	}
	if err := json.Unmarshal([]byte(f.provider.call(0).Input), &input); err != nil {
		t.Fatalf("decode model input: %v", err)
	}
	if input.SourceDocument == "" {
		t.Fatalf("expected source document in model input")
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := doJSON(r, http.MethodPost, "/api/v1/resumes", map[string]any{"userId": testUserID, "title": "CV"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d", resp.Code)
	}
	var created Detail
	_ = json.Unmarshal(resp.Body.Bytes(), &created)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		setup  func()
		status int
		code   string
	}{
		{name: "unknown resume", method: http.MethodGet, path: "/api/v1/resumes/missing", status: http.StatusNotFound, code: "not_found"},
		{name: "malformed resume id on delete", method: http.MethodDelete, path: "/api/v1/resumes/abc", status: http.StatusNotFound, code: "not_found"},
		{name: "unknown resume versions", method: http.MethodGet, path: "/api/v1/resumes/00000000-0000-0000-0000-000000000000/versions", status: http.StatusNotFound, code: "not_found"},
		{name: "bad version", method: http.MethodGet, path: "/api/v1/resumes/" + created.ID + "/versions/zero", status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unknown user list", method: http.MethodGet, path: "/api/v1/users/7/resumes", status: http.StatusNotFound, code: "not_found"},
		{name: "invalid create", method: http.MethodPost, path: "/api/v1/resumes", body: map[string]any{"userId": testUserID}, status: http.StatusBadRequest, code: "invalid_request"},
		{
			name:   "prior artifact missing",
			method: http.MethodPost,
			path:   "/api/v1/resumes/" + created.ID + "/versions",
			body:   map[string]any{"instruction": "x"},
			setup: func() {
				_ = f.cache.DeleteMarkup(t.Context(), testUserID, created.ID, 1)
			},
			status: http.StatusConflict,
			code:   "prior_artifact_missing",
		},
		{
			name:   "upstream exhausted",
			method: http.MethodPost,
			path:   "/api/v1/resumes",
			body:   map[string]any{"userId": testUserID, "title": "CV"},
			setup: func() {
				f.provider.reply = func(llm.Invocation, int) (string, error) { return "", llm.ErrRateLimited }
			},
			status: http.StatusBadGateway,
			code:   "upstream_exhausted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			resp := doJSON(r, tt.method, tt.path, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if code := errorCode(t, resp); code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, code)
			}
		})
	}
}
