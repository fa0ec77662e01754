package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"whoop-mcp/internal/credentials"
	"whoop-mcp/internal/whoop"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 7
	defaultLimit     = 10
	maxLimit         = 25 // WHOOP caps collection pages at 25 records
)

func (s *Server) handleGetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := s.client.Profile(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatProfile(profile)), nil
}

func (s *Server) handleGetBodyMeasurement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	measurement, err := s.client.BodyMeasurement(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatBodyMeasurement(measurement)), nil
}

func (s *Server) handleGetCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := rangeFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cycles, err := s.client.Cycles(ctx, params)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatCycles(cycles)), nil
}

func (s *Server) handleGetRecoveries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := rangeFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recoveries, err := s.client.Recoveries(ctx, params)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatRecoveries(recoveries)), nil
}

func (s *Server) handleGetSleep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := rangeFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sleeps, err := s.client.Sleeps(ctx, params)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatSleeps(sleeps)), nil
}

func (s *Server) handleGetWorkouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := rangeFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	workouts, err := s.client.Workouts(ctx, params)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatWorkouts(workouts)), nil
}

func (s *Server) handleGetLatestRecovery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recoveries, err := s.client.Recoveries(ctx, whoop.RangeParams{Limit: 1})
	if err != nil {
		return toolError(err), nil
	}
	if len(recoveries.Records) == 0 {
		return mcp.NewToolResultText("No recovery data available yet."), nil
	}
	latest := recoveries.Records[0]

	// Strain context for the same physiological day; skipped on failure,
	// the recovery alone is still a useful answer.
	var cycle *whoop.Cycle
	if cycles, err := s.client.Cycles(ctx, whoop.RangeParams{Limit: 5}); err == nil {
		for i := range cycles.Records {
			if cycles.Records[i].ID == latest.CycleID {
				cycle = &cycles.Records[i]
				break
			}
		}
	}

	return mcp.NewToolResultText(formatLatestRecovery(&latest, cycle)), nil
}

// rangeFromRequest builds RangeParams from the shared start_date / end_date /
// limit arguments. Dates are inclusive calendar days in UTC.
func rangeFromRequest(request mcp.CallToolRequest) (whoop.RangeParams, error) {
	now := time.Now().UTC()
	params := whoop.RangeParams{
		Start: now.AddDate(0, 0, -defaultRangeDays).Truncate(24 * time.Hour),
		End:   now,
		Limit: request.GetInt("limit", defaultLimit),
	}
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	if raw := request.GetString("start_date", ""); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return whoop.RangeParams{}, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", raw)
		}
		params.Start = start
	}
	if raw := request.GetString("end_date", ""); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return whoop.RangeParams{}, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", raw)
		}
		// End of the named day, so the date is inclusive.
		params.End = end.AddDate(0, 0, 1).Add(-time.Second)
	}

	if params.End.Before(params.Start) {
		return whoop.RangeParams{}, fmt.Errorf("end_date is before start_date")
	}

	return params, nil
}

// toolError converts a core error into a user-facing tool result whose text
// distinguishes the three remediation classes: fix the configuration,
// re-authenticate, or retry later.
func toolError(err error) *mcp.CallToolResult {
	var refreshErr *credentials.RefreshError
	var apiErr *whoop.APIError

	switch {
	case errors.Is(err, credentials.ErrCredentialsUnavailable):
		return mcp.NewToolResultError(
			"No WHOOP credentials found. Run `whoop-mcp setup` to authorize this server, " +
				"or set WHOOP_INITIAL_ACCESS_TOKEN and WHOOP_INITIAL_REFRESH_TOKEN.")
	case errors.Is(err, credentials.ErrMissingClientCredentials):
		return mcp.NewToolResultError(
			"WHOOP client credentials are not configured. Set WHOOP_CLIENT_ID and " +
				"WHOOP_CLIENT_SECRET (or auth.client_id / auth.client_secret in the config file).")
	case errors.Is(err, credentials.ErrRefreshUnavailable):
		return mcp.NewToolResultError(
			"The stored WHOOP session has no refresh token. Run `whoop-mcp setup` to re-authenticate.")
	case errors.As(err, &refreshErr):
		return mcp.NewToolResultError(fmt.Sprintf(
			"WHOOP rejected the token refresh (status %d). The session has likely expired; "+
				"run `whoop-mcp setup` to re-authenticate. Details: %s", refreshErr.Status, refreshErr.Body))
	case errors.As(err, &apiErr):
		return mcp.NewToolResultError(fmt.Sprintf(
			"WHOOP API request failed (status %d). This is usually transient; try again shortly. "+
				"Details: %s", apiErr.Status, apiErr.Body))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
