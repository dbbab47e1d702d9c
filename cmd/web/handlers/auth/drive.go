// Package auth holds the Google Drive consent handlers.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/channelscribe/cmd/web/auth"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/common"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
)

// HandleDriveAuth starts the consent flow. ?run= names the run to return to.
func HandleDriveAuth(sm *auth.SessionManager, dc runs.DriveClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dc == nil {
			return common.ErrServiceUnavailable("google drive is not configured")
		}

		run := c.QueryParam("run")
		if _, err := uuid.Parse(run); err != nil {
			run = ""
		}

		state, err := sm.BeginOAuth(c.Response().Writer, c.Request(), run)
		if err != nil {
			slog.Error("failed to save oauth state", "error", err)
			return common.ErrInternal("could not start authorization")
		}
		return c.Redirect(http.StatusFound, dc.AuthCodeURL(state))
	}
}

// HandleDriveCallback completes the consent flow and caches the token.
func HandleDriveCallback(sm *auth.SessionManager, dc runs.DriveClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dc == nil {
			return common.ErrServiceUnavailable("google drive is not configured")
		}

		run, err := sm.FinishOAuth(c.Response().Writer, c.Request(), c.QueryParam("state"))
		if err != nil {
			slog.Warn("rejected oauth callback", "error", err)
			if errors.Is(err, auth.ErrStateExpired) {
				return common.ErrBadRequest("authorization expired, please try again")
			}
			return common.ErrBadRequest("invalid authorization state")
		}

		q := url.Values{}
		if run != "" {
			q.Set("run", run)
		}

		if reason := c.QueryParam("error"); reason != "" {
			slog.Info("google drive consent declined", "reason", reason)
			q.Set("drive", "denied")
			return c.Redirect(http.StatusFound, "/?"+q.Encode())
		}

		code := c.QueryParam("code")
		if code == "" {
			return common.ErrBadRequest("missing authorization code")
		}
		if err := dc.Exchange(c.Request().Context(), code); err != nil {
			slog.Error("failed to exchange authorization code", "error", err)
			return common.ErrInternal("could not complete google authorization")
		}

		slog.Info("google drive connected")
		q.Set("drive", "connected")
		return c.Redirect(http.StatusFound, "/?"+q.Encode())
	}
}
