package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

type SessionHandler struct {
	Sessions *service.SessionService
	Cookie   httpx.SessionCookie
}

// HandleGet godoc
//
//	@Summary		Current session
//	@Description	Returns the onboarding view of the current session.
//	@Tags			Session
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		401	{object}	httpx.APIError	"error, error_description"
//	@Router			/api/auth/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		httpx.ErrInvalidSession.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(claims, ""))
}

// HandleUpdate godoc
//
//	@Summary		Refresh session onboarding fields
//	@Description	Re-resolves the onboarding status of the current session and reissues the cookie.
//	@Description	A completed session is never reverted. Completion itself is recorded by the onboarding endpoints;
//	@Description	a body carrying onboarding_completed is rejected as an unknown field.
//	@Tags			Session
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SessionUpdateRequest	false	"partial onboarding fields"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	httpx.APIError	"error, error_description"
//	@Failure		401		{object}	httpx.APIError	"error, error_description"
//	@Router			/api/auth/session [post].
func (h *SessionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.SessionFromContext(ctx)
	if !ok {
		httpx.ErrInvalidSession.WriteError(w)
		return
	}

	var req SessionUpdateRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
			return
		}
	}

	sess, err := h.Sessions.Update(ctx, claims, service.SessionUpdate{
		OnboardingRedirectTo: req.OnboardingRedirectTo,
	})
	if err != nil {
		log.Error("session update failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess.Claims, ""))
}

func sessionResponse(c jwtx.Claims, token string) SessionResponse {
	resp := SessionResponse{
		UserID:               c.Subject,
		UserType:             c.UserType,
		OnboardingCompleted:  c.OnboardingCompleted,
		OnboardingRedirectTo: c.OnboardingRedirectTo,
		Token:                token,
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Time
	}
	return resp
}

func identityFromClaims(c jwtx.Claims) domain.Identity {
	return domain.Identity{UserID: c.Subject, UserType: domain.UserType(c.UserType)}
}

// writeServiceError maps service and store errors onto API errors.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.ErrUnauthorized.WithDescription("invalid email or password").WriteError(w)
	case errors.Is(err, service.ErrWrongUserType):
		httpx.ErrWrongAccountType.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		httpx.ErrConflict.WithDescription("email is already registered").WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		httpx.ErrNotFound.WriteError(w)
	default:
		log.Error("request failed", "err", err)
		httpx.ErrServerError.WriteError(w)
	}
}
