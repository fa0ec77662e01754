package server

import (
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whoop-mcp/internal/credentials"
	"whoop-mcp/internal/whoop"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestRangeFromRequestExplicitDates(t *testing.T) {
	params, err := rangeFromRequest(callRequest(map[string]any{
		"start_date": "2026-08-16",
		"end_date":   "2026-08-22",
		"limit":      float64(5), // JSON numbers arrive as float64
	}))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC), params.Start)
	// end_date is inclusive: the range runs to the end of the named day.
	assert.Equal(t, time.Date(2026, 8, 22, 23, 59, 59, 0, time.UTC), params.End)
	assert.Equal(t, 5, params.Limit)
}

func TestRangeFromRequestDefaults(t *testing.T) {
	params, err := rangeFromRequest(callRequest(nil))
	require.NoError(t, err)

	assert.Equal(t, defaultLimit, params.Limit)
	assert.False(t, params.Start.IsZero())
	assert.False(t, params.End.IsZero())
	assert.True(t, params.Start.Before(params.End))
}

func TestRangeFromRequestInvalidDate(t *testing.T) {
	_, err := rangeFromRequest(callRequest(map[string]any{"start_date": "16-08-2026"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}

func TestRangeFromRequestReversedRange(t *testing.T) {
	_, err := rangeFromRequest(callRequest(map[string]any{
		"start_date": "2026-08-22",
		"end_date":   "2026-08-16",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start_date")
}

// TestToolErrorRemediation checks that each error class produces text with
// the right remediation: setup, configuration fix, re-authentication, or
// retry later.
func TestToolErrorRemediation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "no credentials -> run setup",
			err:  credentials.ErrCredentialsUnavailable,
			want: "whoop-mcp setup",
		},
		{
			name: "missing client credentials -> configuration fix",
			err:  credentials.ErrMissingClientCredentials,
			want: "WHOOP_CLIENT_ID",
		},
		{
			name: "no refresh token -> re-authenticate",
			err:  credentials.ErrRefreshUnavailable,
			want: "re-authenticate",
		},
		{
			name: "vendor rejected refresh -> re-authenticate with status",
			err:  &credentials.RefreshError{Status: 400, Body: "invalid_grant"},
			want: "status 400",
		},
		{
			name: "api failure -> transient",
			err:  &whoop.APIError{Status: 503, Body: "maintenance"},
			want: "transient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toolError(tt.err)
			require.True(t, result.IsError)

			require.NotEmpty(t, result.Content)
			text, ok := result.Content[0].(mcp.TextContent)
			require.True(t, ok)
			if !strings.Contains(text.Text, tt.want) {
				t.Errorf("error text missing %q:\n%s", tt.want, text.Text)
			}
		})
	}
}
