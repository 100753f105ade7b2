package api

import (
	"fmt"
	"net/http"

	"github.com/raushankrgupta/fitly/utils"
)

// SignupHandler handles user registration
func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Signup API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	var req SignupRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Please provide all required fields") {
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	session, err := h.auth.Signup(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Error creating user")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("User registered: %s", session.User.ID.Hex()))
	utils.RespondJSON(w, http.StatusCreated, h.presentSession(r.Context(), session))
}

// LoginHandler handles email and password login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Login API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	var req LoginRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Please provide email and password") {
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Error logging in")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, "Login successful")
	utils.RespondJSON(w, http.StatusOK, h.presentSession(r.Context(), session))
}

// GoogleAuthHandler signs in with a Google ID token obtained by the frontend
func (h *Handler) GoogleAuthHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Google Auth API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	var req GoogleAuthRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Token is required") {
		return
	}

	session, err := h.auth.GoogleLogin(r.Context(), req.credential())
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Google authentication failed")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Google login for user %s", session.User.ID.Hex()))
	utils.RespondJSON(w, http.StatusOK, h.presentSession(r.Context(), session))
}

// LogoutHandler exists for symmetry; sessions are stateless and the client
// drops its token.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// RequestPasswordResetHandler emails a reset link
func (h *Handler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Request Password Reset API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	var req RequestPasswordResetRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Email is required") {
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondServiceError(w, logMessageBuilder, err, "Failed to send password reset email")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, "Password reset email sent")
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent successfully"})
}

// ResetPasswordHandler sets a new password using an emailed reset token
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Reset Password API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	var req ResetPasswordRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Reset token and new password are required") {
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	if err := h.auth.ResetPassword(ctx, req.ResetToken, req.NewPassword); err != nil {
		respondServiceError(w, logMessageBuilder, err, "Failed to reset password")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, "Password reset successfully")
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}
