package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHierarchyPath(t *testing.T) {
	tests := []struct {
		name    string
		level   causelist.Level
		parents []string
		want    string
		wantErr bool
	}{
		{name: "states", level: causelist.LevelState, want: "/api/states"},
		{name: "districts", level: causelist.LevelDistrict, parents: []string{"Delhi"}, want: "/api/districts/Delhi"},
		{
			name:    "complexes with spaces",
			level:   causelist.LevelCourtComplex,
			parents: []string{"Andhra Pradesh", "East Godavari"},
			want:    "/api/court-complexes/Andhra%20Pradesh/East%20Godavari",
		},
		{
			name:    "courts with reserved characters",
			level:   causelist.LevelCourt,
			parents: []string{"Delhi", "North/West", "Tis Hazari?"},
			want:    "/api/courts/Delhi/North%2FWest/Tis%20Hazari%3F",
		},
		{name: "missing parent", level: causelist.LevelCourt, parents: []string{"Delhi"}, wantErr: true},
		{name: "unknown level", level: causelist.Level(9), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HierarchyPath(tt.level, tt.parents)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Hierarchy(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"name":"Tis Hazari"},{"name":"Rohini"}]}`))
	})

	names, err := c.Hierarchy(context.Background(), causelist.LevelCourtComplex, []string{"Delhi", "North West"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Tis Hazari", "Rohini"}, names)
	assert.Equal(t, "/api/court-complexes/Delhi/North%20West", gotPath)
}

func TestClient_HierarchyFailureEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "ok status", status: http.StatusOK, body: `{"success":false,"error":"eCourts unavailable"}`, wantMsg: "eCourts unavailable"},
		{name: "server error status", status: http.StatusInternalServerError, body: `{"success":false,"error":"boom"}`, wantMsg: "boom"},
		{name: "no reason", status: http.StatusOK, body: `{"success":false}`, wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Hierarchy(context.Background(), causelist.LevelState, nil)

			var apiErr *causelist.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_HierarchyNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.Hierarchy(context.Background(), causelist.LevelState, nil)

	require.Error(t, err)
	var apiErr *causelist.APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_StartJob(t *testing.T) {
	var got causelist.JobRequest
	var method, contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		assert.Equal(t, "/api/download-causelist", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"Download started"}`))
	})

	req := causelist.JobRequest{
		State:        "Delhi",
		District:     "North",
		CourtComplex: "Tis Hazari",
		CourtName:    causelist.AllCourts,
		Date:         "05-03-2025",
	}
	require.NoError(t, c.StartJob(context.Background(), req))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, req, got)
}

func TestClient_StartJobRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid date format. Use DD-MM-YYYY"}`))
	})

	err := c.StartJob(context.Background(), causelist.JobRequest{})

	var apiErr *causelist.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid date format. Use DD-MM-YYYY", apiErr.Message)
}

func TestClient_Status(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"completed","message":"done","data":{"success":true,"message":"ok","filename":"a.pdf","download_url":"/download/a.pdf"}}`))
	})

	status, err := c.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, causelist.StatusCompleted, status.Status)
	require.NotNil(t, status.Data)
	assert.True(t, status.Data.Success)
	assert.Equal(t, "/download/a.pdf", status.Data.DownloadURL)
}

func TestClient_StatusTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, time.Second, nil)

	_, err := c.Status(context.Background())

	assert.ErrorContains(t, err, "failed to send request")
}

func TestClient_Download(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download/a.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.3 test"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"File not found"}`))
		}
	})

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "/download/a.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(13), n)
	assert.Equal(t, "%PDF-1.3 test", buf.String())

	_, err = c.Download(context.Background(), "/download/missing.pdf", io.Discard)
	var apiErr *causelist.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "File not found", apiErr.Message)
}
