package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/hiresense/internal/analysis"
	"github.com/terra-clan/hiresense/internal/config"
	"github.com/terra-clan/hiresense/internal/events"
	"github.com/terra-clan/hiresense/internal/history"
	"github.com/terra-clan/hiresense/internal/models"
	"github.com/terra-clan/hiresense/internal/reports"
	"github.com/terra-clan/hiresense/internal/roles"
	"github.com/terra-clan/hiresense/internal/services"
)

const sampleResume = "Experienced engineer. Python, SQL and Docker in production. Statistics background."

type testEnv struct {
	server *Server
	stream *events.Broadcaster
	health *services.Registry
}

func newTestEnv(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()

	catalog := roles.NewCatalog(
		models.Role{Name: "Data Scientist", RoleDefinition: models.RoleDefinition{
			Required: []string{"python", "sql", "statistics"},
			Optional: []string{"pandas"},
		}},
		models.Role{Name: "Backend Developer", RoleDefinition: models.RoleDefinition{
			Required: []string{"python", "sql"},
			Optional: []string{"docker"},
		}},
	)

	dir := t.TempDir()
	repo, err := history.NewFileStore(filepath.Join(dir, "history.json"), 10)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store, err := reports.NewDiskStore(filepath.Join(dir, "reports"))
	require.NoError(t, err)

	stream := events.NewBroadcaster()
	t.Cleanup(stream.Close)

	svc := analysis.NewService(analysis.NewEngine(catalog, nil, nil), repo, store, stream)
	health := services.NewRegistry()

	return &testEnv{
		server: NewServer(cfg, Deps{
			Analysis: svc,
			Insights: map[string]any{"Data Scientist": map[string]any{"demand": "high"}},
			Health:   health,
			Stream:   stream,
		}),
		stream: stream,
		health: health,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	env.health.Register("history", services.CheckFunc(func(context.Context) error { return nil }))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"history":"ok"}}`, rec.Body.String())

	env.health.Register("amqp", services.CheckFunc(func(context.Context) error { return errors.New("connection closed") }))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"history":"ok","amqp":"connection closed"}}`, rec.Body.String())
}

func TestRolesAndInsights(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/roles", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Data Scientist","Backend Developer"]`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/role_insights", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Data Scientist":{"demand":"high"}}`, rec.Body.String())
}

func TestAnalyzeAndHistory(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(jsonRequest(t, "/analyze", models.AnalyzeRequest{
		Resume:     sampleResume,
		JD:         "Looking for python and sql",
		TargetRole: "Data Scientist",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^[a-f0-9]{8}$`, resp.ID)
	assert.Equal(t, "Data Scientist", resp.TargetRole)
	assert.Contains(t, resp.ExtractedSkills, "python")
	assert.Greater(t, resp.JDMatch, 0.0)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, resp.ID, entries[0].ID)
	assert.Equal(t, models.SourceJSON, entries[0].Source)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/download/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hiresense_report_"+resp.ID+".pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHistoryEmpty(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "invalid json",
			req:    httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json")),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "blank resume",
			req:    jsonRequest(t, "/analyze", map[string]string{"resume": "   "}),
			status: http.StatusBadRequest,
			code:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestAnalyzeValidationNamesJSONField(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(jsonRequest(t, "/analyze", map[string]string{"resume": ""}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "resume is required", decodeError(t, rec).Message)
}

func TestAnalyzePayloadTooLarge(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{UploadMaxBytes: 1024})

	rec := env.do(jsonRequest(t, "/analyze", map[string]string{"resume": strings.Repeat("python ", 1000)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "payload_too_large", decodeError(t, rec).Code)
}

func TestAnalyzeFile(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(multipartRequest(t, "/analyze_file", "resume", "../../my resume.txt", []byte(sampleResume),
		map[string]string{"jd": "python sql", "target_role": "Backend Developer"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "my_resume.txt", resp.Filename)
	assert.Equal(t, "Backend Developer", resp.TargetRole)
}

func TestAnalyzeFileErrors(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "unsupported extension",
			req:    multipartRequest(t, "/analyze_file", "resume", "resume.exe", []byte("MZ"), nil),
			status: http.StatusBadRequest,
			code:   "unsupported_file_type",
		},
		{
			name:   "missing file",
			req:    multipartRequest(t, "/analyze_file", "", "", nil, map[string]string{"jd": "python"}),
			status: http.StatusBadRequest,
			code:   "missing_file",
		},
		{
			name:   "empty document",
			req:    multipartRequest(t, "/analyze_file", "resume", "resume.txt", []byte("  \n "), nil),
			status: http.StatusBadRequest,
			code:   "validation_error",
		},
		{
			name:   "not multipart",
			req:    jsonRequest(t, "/analyze_file", map[string]string{"resume": sampleResume}),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestDownloadNotFound(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	for _, id := range []string{"deadbeef", "not-an-id", "ABCDEF12"} {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/download/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, "not_found", decodeError(t, rec).Code)
	}
}

func TestDownloadReportsDisabled(t *testing.T) {
	repo, err := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), 10)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := analysis.NewService(analysis.NewEngine(roles.NewCatalog(), nil, nil), repo, nil, nil)
	srv := NewServer(config.ServerConfig{}, Deps{Analysis: svc})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/deadbeef", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "reports are disabled", decodeError(t, rec).Message)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{APIKeys: []string{"secret-key-123"}})

	rec := env.do(jsonRequest(t, "/analyze", models.AnalyzeRequest{Resume: sampleResume}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)

	req := jsonRequest(t, "/analyze", models.AnalyzeRequest{Resume: sampleResume})
	req.Header.Set("Authorization", "Bearer wrong")
	rec = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = jsonRequest(t, "/analyze", models.AnalyzeRequest{Resume: sampleResume})
	req.Header.Set("Authorization", "Bearer secret-key-123")
	rec = env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = jsonRequest(t, "/analyze", models.AnalyzeRequest{Resume: sampleResume})
	req.Header.Set("X-API-Key", "secret-key-123")
	rec = env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reads stay public
	rec = env.do(httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCodeAnalyze(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	src := "class Greeter:\n    def greet(self, name):\n        \"\"\"Say hello to someone.\"\"\"\n        return 'hi ' + name\n\n\ndef main():\n    pass\n"
	rec := env.do(multipartRequest(t, "/code/analyze", "code_file", "greeter.py", []byte(src), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.CodeReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "greeter.py", report.Filename)
	assert.Equal(t, []string{"Greeter"}, report.Structure.Classes)
	require.Len(t, report.Summaries, 2)
	assert.Equal(t, "Say hello to someone.", report.Summaries[0].Summary)
}

func TestCodeAnalyzeErrors(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(multipartRequest(t, "/code/analyze", "code_file", "main.rb", []byte("puts 1"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported_language", decodeError(t, rec).Code)

	rec = env.do(multipartRequest(t, "/code/analyze", "code_file", "bad.py", []byte("def broken(a, b)\n    return a\n"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "parse_error", decodeError(t, rec).Code)
}

func TestHistoryStream(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/history/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg.Type)
	assert.Equal(t, 1, env.stream.Subscribers())

	body, err := json.Marshal(models.AnalyzeRequest{Resume: sampleResume})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg = StreamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "analysis", msg.Type)
	require.NotNil(t, msg.Entry)
	assert.Equal(t, models.SourceJSON, msg.Entry.Source)
}
