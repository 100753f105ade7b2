package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "oauthstate"

// NewGoogleOAuthConfig returns nil when Google sign-in is not configured
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// GoogleLoginHandler redirects the browser to Google's consent screen
func (h *Handler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Google Login API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if h.googleOAuth == nil {
		utils.RespondError(w, logMessageBuilder, "Google login is not configured", http.StatusServiceUnavailable)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  h.now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	utils.AddToLogMessage(logMessageBuilder, "Redirecting to Google Auth")
	http.Redirect(w, r, h.googleOAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallbackHandler exchanges the authorization code and signs the
// user in with the returned ID token.
func (h *Handler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Google Callback API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if h.googleOAuth == nil {
		utils.RespondError(w, logMessageBuilder, "Google login is not configured", http.StatusServiceUnavailable)
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	state := r.FormValue("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		utils.RespondError(w, logMessageBuilder, "State invalid", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.FormValue("code")
	if code == "" {
		utils.RespondError(w, logMessageBuilder, "Code not found", http.StatusBadRequest)
		return
	}

	var token *oauth2.Token
	err = auth.CallUpstream(r.Context(), h.upstreamTimeout, func(ctx context.Context) error {
		var exErr error
		token, exErr = h.googleOAuth.Exchange(ctx, code)
		return exErr
	})
	if err != nil {
		utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Failed to exchange token: %v", err))
		respondServiceError(w, logMessageBuilder, fmt.Errorf("%w: %w", auth.ErrIdentityRejected, err), "Google authentication failed")
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		utils.RespondError(w, logMessageBuilder, "Google authentication failed", http.StatusInternalServerError)
		return
	}

	session, err := h.auth.GoogleLogin(r.Context(), idToken)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Google authentication failed")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Google login for user %s", session.User.ID.Hex()))
	utils.RespondJSON(w, http.StatusOK, h.presentSession(r.Context(), session))
}
