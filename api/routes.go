package api

import (
	"net/http"

	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/utils"
)

// Routes builds the full HTTP handler, middleware included
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// public
	mux.HandleFunc("GET /api/health", h.HealthHandler)
	mux.HandleFunc("GET /api/time", h.TimeHandler)

	mux.HandleFunc("POST /api/auth/signup", h.SignupHandler)
	mux.HandleFunc("POST /api/auth/login", h.LoginHandler)
	mux.HandleFunc("POST /api/auth/googleAuth", h.GoogleAuthHandler)
	mux.HandleFunc("POST /api/auth/requestPasswordReset", h.RequestPasswordResetHandler)
	mux.HandleFunc("POST /api/auth/resetPassword", h.ResetPasswordHandler)
	mux.HandleFunc("GET /api/auth/google/login", h.GoogleLoginHandler)
	mux.HandleFunc("GET /api/auth/google/callback", h.GoogleCallbackHandler)

	// behind the gate
	mux.HandleFunc("GET /api/auth/logout", h.Protect(h.LogoutHandler))

	mux.HandleFunc("GET /api/profile/getUserProfile", h.Protect(h.GetUserProfileHandler))
	mux.HandleFunc("PUT /api/profile/updatePersonalInfo", h.Protect(h.UpdatePersonalInfoHandler))
	mux.HandleFunc("GET /api/profile/checkProfileCompletion", h.Protect(h.CheckProfileCompletionHandler))
	mux.HandleFunc("POST /api/profile/uploadProfileImage", h.Protect(h.UploadProfileImageHandler))

	mux.HandleFunc("GET /api/user/stats", h.Protect(h.GetUserStatsHandler))
	mux.HandleFunc("PUT /api/user/stats", h.Protect(h.UpdateUserStatsHandler))
	mux.HandleFunc("POST /api/user/workout", h.Protect(h.AddWorkoutSessionHandler))
	mux.HandleFunc("GET /api/user/weekly-workouts", h.Protect(h.GetWeeklyWorkoutsHandler))
	mux.HandleFunc("GET /api/user/rest-days", h.Protect(h.GetRestDaysHandler))
	mux.HandleFunc("POST /api/user/increment-rest-days", h.Protect(h.IncrementRestDaysHandler))
	mux.HandleFunc("GET /api/user/last-workout", h.Protect(h.GetLastWorkoutHandler))

	mux.HandleFunc("POST /api/ai/chat", h.Protect(h.ChatHandler))

	mux.HandleFunc("GET /api/admin/users", h.Protect(RequireRole(models.RoleAdmin, h.ListUsersHandler)))

	var handler http.Handler = mux
	handler = CORSMiddleware(h.corsOrigin)(handler)
	handler = utils.LatencyMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}
