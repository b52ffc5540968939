/*
Package gatesdk provides a client SDK for the Temu session gate service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (sign up, sign in, health, anonymous page visits)
  - Session: operations on behalf of a signed-in user

	client := gatesdk.NewSDKClient("https://gate.example.com")

	session, err := client.SignIn(ctx, "hr@example.com", "password")
	if err != nil {
		return err
	}

	// Ask the gate where a page load would land.
	decision, err := session.Decision(ctx, "/employer/dashboard")

	// Move onboarding along.
	progress, err := session.SaveEmployerStep(ctx, 3)

# Token Reissue

The service reissues the session token in its cookie whenever onboarding
state changes or a page load refreshes a stale token. Session picks the new
token up from every response, so callers always send the latest one.

# Errors

Non-2xx responses are returned as *APIError carrying the HTTP status and
the error code from the body:

	if _, err := client.SignIn(ctx, email, password); gatesdk.IsStatus(err, http.StatusTooManyRequests) {
		// back off
	}

Sessions are safe for concurrent use.
*/
package gatesdk
