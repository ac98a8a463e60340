package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/ecourts-causelist/internal/api/domain"
	"github.com/cuongbtq/ecourts-causelist/internal/api/model"
	"github.com/cuongbtq/ecourts-causelist/internal/api/storage"
)

func TestJobCursor_RoundTrip(t *testing.T) {
	in := storage.JobCursor{
		CreatedAt: time.Date(2025, 3, 5, 10, 30, 0, 123456789, time.UTC),
		JobID:     "3f2b8c1e-6a4d-4e7f-9b1a-2c3d4e5f6a7b",
	}

	out, err := DecodeJobCursor(EncodeJobCursor(in))

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.JobID, out.JobID)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "***"},
		{name: "no separator", cursor: enc("12345")},
		{name: "bad timestamp", cursor: enc("yesterday|3f2b8c1e-6a4d-4e7f-9b1a-2c3d4e5f6a7b")},
		{name: "bad job id", cursor: enc("12345|'; DROP TABLE")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJobCursor(tt.cursor)
			assert.Error(t, err)
		})
	}

	c, err := DecodeJobCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"causelist_Delhi_North_Tis Hazari_05_03_2025.pdf", true},
		{"a.pdf", true},
		{"", false},
		{"..", false},
		{".env", false},
		{"../etc/passwd", false},
		{"sub/a.pdf", false},
		{`..\a.pdf`, false},
		{"a\x00.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeFileName(tt.name))
		})
	}
}

func TestStatusOf(t *testing.T) {
	result := func(s string) types.NullJSONText {
		return types.NullJSONText{Valid: true, JSONText: types.JSONText(s)}
	}

	tests := []struct {
		name        string
		job         model.Job
		wantStatus  string
		wantMessage string
		wantSuccess *bool
	}{
		{
			name:        "pending",
			job:         model.Job{Status: domain.JobStatusPending},
			wantStatus:  "running",
			wantMessage: domain.MsgWaiting,
		},
		{
			name:        "running with step",
			job:         model.Job{Status: domain.JobStatusRunning, Step: "Rendering cause list..."},
			wantStatus:  "running",
			wantMessage: "Rendering cause list...",
		},
		{
			name:        "completed success",
			job:         model.Job{Status: domain.JobStatusCompleted, Result: result(`{"success":true,"message":"done","download_url":"/download/x.pdf"}`)},
			wantStatus:  "completed",
			wantMessage: "done",
			wantSuccess: boolPtr(true),
		},
		{
			name:        "completed failure",
			job:         model.Job{Status: domain.JobStatusCompleted, Result: result(`{"success":false,"error":"Download failed: disk full"}`)},
			wantStatus:  "completed",
			wantMessage: "Download failed: disk full",
			wantSuccess: boolPtr(false),
		},
		{
			name:        "completed without result",
			job:         model.Job{Status: domain.JobStatusCompleted},
			wantStatus:  "completed",
			wantMessage: "Job finished without a result",
			wantSuccess: boolPtr(false),
		},
		{
			name:        "failed",
			job:         model.Job{Status: domain.JobStatusFailed, ErrorMessage: "Download failed: job timed out"},
			wantStatus:  "error",
			wantMessage: "Download failed: job timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := statusOf(&tt.job)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMessage, got.Message)
			if tt.wantSuccess == nil {
				assert.Nil(t, got.Data)
				return
			}
			require.NotNil(t, got.Data)
			assert.Equal(t, *tt.wantSuccess, got.Data.Success)
		})
	}
}

func TestStatusOf_CorruptResult(t *testing.T) {
	job := model.Job{
		Status: domain.JobStatusCompleted,
		Result: types.NullJSONText{Valid: true, JSONText: types.JSONText(`{"success":`)},
	}

	_, err := statusOf(&job)

	assert.Error(t, err)
}

func boolPtr(b bool) *bool { return &b }
