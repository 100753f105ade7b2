package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raushankrgupta/fitly/assistant"
	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/utils"
)

const maxJSONBody = 1 << 20

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleAuthRequest carries a Google ID token. Older clients send it as
// "token", newer ones as "idToken".
type GoogleAuthRequest struct {
	Token   string `json:"token" validate:"required_without=IDToken"`
	IDToken string `json:"idToken"`
}

func (r GoogleAuthRequest) credential() string {
	if r.IDToken != "" {
		return r.IDToken
	}
	return r.Token
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// UpdatePersonalInfoRequest only touches the fields present in the body
type UpdatePersonalInfoRequest struct {
	FullName           *string         `json:"fullName" validate:"omitempty,max=100"`
	Height             *models.Measure `json:"height" validate:"omitempty,gte=0,lte=300"`
	Weight             *models.Measure `json:"weight" validate:"omitempty,gte=0,lte=700"`
	ContactNumber      *string         `json:"contactNumber" validate:"omitempty,max=30"`
	Location           *string         `json:"location" validate:"omitempty,max=200"`
	TrainingExperience *string         `json:"trainingExperience" validate:"omitempty,max=100"`
	Allergies          []string        `json:"allergies" validate:"omitempty,dive,max=100"`
	ProteinPreference  []string        `json:"proteinPreference" validate:"omitempty,dive,max=100"`
}

type UpdateStatsRequest struct {
	Calories          *float64              `json:"calories" validate:"omitempty,gte=0"`
	Protein           *float64              `json:"protein" validate:"omitempty,gte=0"`
	Water             *float64              `json:"water" validate:"omitempty,gte=0"`
	WorkoutsCompleted *int                  `json:"workoutsCompleted" validate:"omitempty,gte=0"`
	Streak            *int                  `json:"streak" validate:"omitempty,gte=0"`
	Points            *int                  `json:"points" validate:"omitempty,gte=0"`
	RestDays          *int                  `json:"restDays" validate:"omitempty,gte=0"`
	WeeklyWorkouts    models.WeeklyWorkouts `json:"weeklyWorkouts"`
	LastWorkoutTime   *string               `json:"lastWorkoutTime"`
	LastWorkoutDate   *string               `json:"lastWorkoutDate"`
}

type WorkoutRequest struct {
	Date        string  `json:"date" validate:"required"`
	WorkoutType string  `json:"workoutType" validate:"required"`
	Duration    float64 `json:"duration" validate:"gte=0"`
	Time        string  `json:"time"`
}

type ChatRequest struct {
	Messages    []assistant.Message `json:"messages" validate:"required,min=1,endswithuser,dive"`
	UserProfile *assistant.Profile  `json:"userProfile"`
	UserStats   *assistant.Stats    `json:"userStats"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// the reply answers the last message, so it has to be the user's
	_ = v.RegisterValidation("endswithuser", func(fl validator.FieldLevel) bool {
		messages, ok := fl.Field().Interface().([]assistant.Message)
		return ok && len(messages) > 0 && messages[len(messages)-1].Role == assistant.RoleUser
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and checks it. On failure it
// writes the 400 response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *strings.Builder, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorDetails(w, logger, "Invalid request body", map[string]string{"body": err.Error()}, http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		utils.RespondErrorDetails(w, logger, message, validationDetails(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["body"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = describe(fe)
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "endswithuser":
		return "must end with a user message"
	default:
		return "is invalid"
	}
}
