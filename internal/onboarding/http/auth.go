package http

import (
	"net/http"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

type AuthHandler struct {
	Users    *service.UserService
	Auth     service.Authenticator
	Sessions *service.SessionService
	Cookie   httpx.SessionCookie
}

// HandleSignUp godoc
//
//	@Summary		Create an account
//	@Description	Registers a job seeker or employer and signs them in. New accounts start onboarding.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignUpRequest	true	"email, name, password, user_type"
//	@Success		201		{object}	SignUpResponse
//	@Failure		400		{object}	httpx.APIError	"error, error_description"
//	@Failure		409		{object}	httpx.APIError	"email already registered"
//	@Failure		429		{object}	httpx.APIError	"rate limited"
//	@Router			/api/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignUpRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	u, err := h.Users.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		UserType: domain.UserType(req.UserType),
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	log.Info("user registered", "user_id", u.ID, "user_type", u.UserType)

	sess, err := h.Sessions.SignIn(ctx, service.AuthenticatedUser{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		UserType:            u.UserType,
		OnboardingCompleted: u.OnboardingCompleted,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusCreated, SignUpResponse{
		User: UserResponse{
			UserID:   u.ID,
			Email:    u.Email,
			Name:     u.Name,
			UserType: string(u.UserType),
		},
		Session: sessionResponse(sess.Claims, sess.Token),
	})
}

// HandleSignIn godoc
//
//	@Summary		Sign in
//	@Description	Verifies credentials and issues a session cookie carrying the onboarding status.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignInRequest	true	"email, password"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	httpx.APIError	"error, error_description"
//	@Failure		401		{object}	httpx.APIError	"invalid email or password"
//	@Failure		429		{object}	httpx.APIError	"rate limited"
//	@Router			/api/auth/signin [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignInRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.ErrInvalidRequest.WithDescription("email and password are required").WriteError(w)
		return
	}

	u, err := h.Auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	sess, err := h.Sessions.SignIn(ctx, u)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	log.Info("user signed in", "user_id", u.ID, "onboarding_completed", sess.Claims.OnboardingCompleted)

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess.Claims, sess.Token))
}

// HandleSignOut godoc
//
//	@Summary	Sign out
//	@Tags		Auth
//	@Success	204
//	@Router		/api/auth/signout [post].
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
