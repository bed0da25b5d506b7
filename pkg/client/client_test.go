package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/hiresense/internal/models"
)

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "python developer", req.Resume)
		assert.Equal(t, "go services", req.JD)
		assert.Equal(t, "Backend Developer", req.TargetRole)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"abcd1234","ats_score":50,"recommended_roles":["Backend Developer"],"extracted_skills":["python"],"jd_match":0,"target_role":""}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key-123")
	resp, err := c.Analyze(context.Background(), AnalyzeRequest{
		Resume:     "python developer",
		JD:         "go services",
		TargetRole: "Backend Developer",
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", resp.ID)
	assert.Equal(t, 50.0, resp.ATSScore)
	assert.Equal(t, []string{"python"}, resp.ExtractedSkills)
}

func TestAnalyzeFileSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze_file", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "cv.txt", header.Filename)
		assert.Equal(t, "go and sql", string(data))
		assert.Equal(t, "need go", r.FormValue("jd"))
		assert.Equal(t, "Backend Developer", r.FormValue("target_role"))

		io.WriteString(w, `{"id":"00ff00ff","filename":"cv.txt"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	resp, err := c.AnalyzeFile(context.Background(), "cv.txt", strings.NewReader("go and sql"), "need go", "Backend Developer")
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", resp.Filename)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"not_found","message":"report not found"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.DownloadReport(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "API error: not_found - report not found", err.Error())
}

func TestPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Health(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestRolesAndHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/roles", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `["Data Scientist","Backend Developer"]`)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"abcd1234","uploaded_at":"2024-01-02 15:04","source":"json","ats_score":75}]`)
	})
	mux.HandleFunc("/role_insights", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"Data Scientist":{"demand":"high"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx := context.Background()

	names, err := c.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Scientist", "Backend Developer"}, names)

	entries, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abcd1234", entries[0].ID)
	assert.Equal(t, 75.0, entries[0].ATSScore)

	insights, err := c.RoleInsights(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Data Scientist":{"demand":"high"}}`, string(insights))
}
