package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		valid bool
	}{
		{
			name:  "valid session",
			data:  `{"id": "s1", "minutes": 5, "breaths": 10}`,
			valid: true,
		},
		{
			name:  "valid with extra fields",
			data:  `{"id": "s1", "minutes": 5, "breaths": 10, "technique": "box", "timestamp": "2026-02-01T08:00:00Z"}`,
			valid: true,
		},
		{
			name:  "empty id",
			data:  `{"id": "", "minutes": 5, "breaths": 10}`,
			valid: false,
		},
		{
			name:  "minutes wrong type",
			data:  `{"id": "x", "minutes": "5", "breaths": 10}`,
			valid: false,
		},
		{
			name:  "missing breaths",
			data:  `{"id": "x", "minutes": 5}`,
			valid: false,
		},
		{
			name:  "fractional minutes are numeric",
			data:  `{"id": "x", "minutes": 7.5, "breaths": 30}`,
			valid: true,
		},
		{
			name:  "not an object",
			data:  `[1, 2, 3]`,
			valid: false,
		},
		{
			name:  "not json",
			data:  `{id: s1`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Session([]byte(tt.data)))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		valid bool
	}{
		{
			name:  "valid minimal",
			data:  `{"version": 1, "total_sessions": 0, "sessions": []}`,
			valid: true,
		},
		{
			name:  "valid with populated sessions",
			data:  `{"version": 2, "total_sessions": 3, "sessions": [{"id": "s1"}], "badges": []}`,
			valid: true,
		},
		{
			name:  "version wrong type",
			data:  `{"version": "1", "total_sessions": 0, "sessions": []}`,
			valid: false,
		},
		{
			name:  "sessions not array shaped",
			data:  `{"version": 1, "total_sessions": 0, "sessions": {}}`,
			valid: false,
		},
		{
			name:  "missing total_sessions",
			data:  `{"version": 1, "sessions": []}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Progress([]byte(tt.data)))
		})
	}
}

func TestSyncRequest(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		valid bool
	}{
		{
			name:  "valid envelope",
			data:  `{"device_id": "dev-1", "is_guest": false, "data": {}}`,
			valid: true,
		},
		{
			name: "nested collections are not deep-validated here",
			// A malformed session inside a well-formed envelope still passes
			// envelope validation; the merge engine excludes it item-level.
			data:  `{"device_id": "dev-1", "is_guest": true, "data": {"sessions": [{"minutes": "bogus"}]}}`,
			valid: true,
		},
		{
			name:  "empty device id",
			data:  `{"device_id": "", "is_guest": false, "data": {}}`,
			valid: false,
		},
		{
			name:  "guest flag wrong type",
			data:  `{"device_id": "dev-1", "is_guest": "no", "data": {}}`,
			valid: false,
		},
		{
			name:  "missing data",
			data:  `{"device_id": "dev-1", "is_guest": false}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, SyncRequest([]byte(tt.data)))
		})
	}
}
