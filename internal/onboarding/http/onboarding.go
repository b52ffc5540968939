package http

import (
	"net/http"

	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

// OnboardingHandler serves the writes that move a user through onboarding.
// Each one reissues the session cookie so the next page load sees the new
// status without a lookup.
type OnboardingHandler struct {
	Onboarding *service.OnboardingService
	Sessions   *service.SessionService
	Cookie     httpx.SessionCookie
}

// HandleCompleteJobSeeker godoc
//
//	@Summary	Finish job seeker onboarding
//	@Tags		Onboarding
//	@Security	SessionCookie
//	@Produce	json
//	@Success	200	{object}	SessionResponse
//	@Failure	401	{object}	httpx.APIError	"error, error_description"
//	@Failure	403	{object}	httpx.APIError	"wrong account type"
//	@Router		/api/job-seeker/onboarding/complete [post].
func (h *OnboardingHandler) HandleCompleteJobSeeker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	claims, _ := httpx.SessionFromContext(ctx)

	if err := h.Onboarding.CompleteJobSeeker(ctx, identityFromClaims(claims)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	sess, err := h.Sessions.Update(ctx, claims, assertCompleted())
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	log.Info("job seeker onboarding completed")

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess.Claims, ""))
}

// HandleSaveProgress godoc
//
//	@Summary	Save employer onboarding step
//	@Tags		Onboarding
//	@Security	SessionCookie
//	@Accept		json
//	@Produce	json
//	@Param		body	body		StepRequest	true	"1-based step"
//	@Success	200		{object}	ProgressResponse
//	@Failure	400		{object}	httpx.APIError	"error, error_description"
//	@Failure	401		{object}	httpx.APIError	"error, error_description"
//	@Failure	403		{object}	httpx.APIError	"wrong account type"
//	@Router		/api/employer/onboarding/progress [put].
func (h *OnboardingHandler) HandleSaveProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	claims, _ := httpx.SessionFromContext(ctx)

	var req StepRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	p, err := h.Onboarding.SaveEmployerStep(ctx, identityFromClaims(claims), req.Step)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	sess, err := h.Sessions.Refresh(ctx, claims)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, ProgressResponse{
		CurrentStep: p.CurrentStep,
		Status:      string(p.Status),
		Session:     sessionResponse(sess.Claims, ""),
	})
}

// HandleCompleteEmployer godoc
//
//	@Summary	Finish employer onboarding
//	@Tags		Onboarding
//	@Security	SessionCookie
//	@Accept		json
//	@Produce	json
//	@Param		body	body		EmployerProfileRequest	true	"company profile"
//	@Success	200		{object}	EmployerProfileResponse
//	@Failure	400		{object}	httpx.APIError	"error, error_description"
//	@Failure	401		{object}	httpx.APIError	"error, error_description"
//	@Failure	403		{object}	httpx.APIError	"wrong account type"
//	@Router		/api/employer/onboarding/complete [post].
func (h *OnboardingHandler) HandleCompleteEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	claims, _ := httpx.SessionFromContext(ctx)

	var req EmployerProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	profile, err := h.Onboarding.CompleteEmployerProfile(ctx, identityFromClaims(claims), service.EmployerProfileInput{
		CompanyName:  req.CompanyName,
		Website:      req.Website,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	sess, err := h.Sessions.Update(ctx, claims, assertCompleted())
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	log.Info("employer onboarding completed", "company", profile.CompanyName)

	h.Cookie.Set(w, sess.Token, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, EmployerProfileResponse{
		CompanyName:  profile.CompanyName,
		Website:      profile.Website,
		ContactName:  profile.ContactName,
		ContactPhone: profile.ContactPhone,
		CompletedAt:  profile.CompletedAt,
		Session:      sessionResponse(sess.Claims, ""),
	})
}

// assertCompleted is the update sent right after a completing write.
func assertCompleted() service.SessionUpdate {
	done := true
	return service.SessionUpdate{OnboardingCompleted: &done}
}
