package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/store"
	"github.com/raushankrgupta/fitly/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type statsView struct {
	ID primitive.ObjectID `json:"id"`
	models.Stats
}

// GetUserStatsHandler returns the fitness and nutrition counters
func (h *Handler) GetUserStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user": statsView{ID: user.ID, Stats: user.Stats},
	})
}

// UpdateUserStatsHandler updates the counters present in the body
func (h *Handler) UpdateUserStatsHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Update User Stats API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	user, _ := UserFromContext(r.Context())

	var req UpdateStatsRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Validation failed") {
		return
	}

	changes := store.NewChanges()
	setFloat(changes, models.FieldCalories, req.Calories)
	setFloat(changes, models.FieldProtein, req.Protein)
	setFloat(changes, models.FieldWater, req.Water)
	setInt(changes, models.FieldWorkoutsCompleted, req.WorkoutsCompleted)
	setInt(changes, models.FieldStreak, req.Streak)
	setInt(changes, models.FieldPoints, req.Points)
	setInt(changes, models.FieldRestDays, req.RestDays)
	setString(changes, models.FieldLastWorkoutTime, req.LastWorkoutTime)

	if req.LastWorkoutDate != nil {
		date := models.WorkoutDate("")
		if strings.TrimSpace(*req.LastWorkoutDate) != "" {
			parsed, err := models.ParseWorkoutDate(strings.TrimSpace(*req.LastWorkoutDate))
			if err != nil {
				utils.RespondErrorDetails(w, logMessageBuilder, "Validation failed",
					map[string]string{"lastWorkoutDate": "must be a date (YYYY-MM-DD)"}, http.StatusBadRequest)
				return
			}
			date = parsed
		}
		changes.Set(models.FieldLastWorkoutDate, date)
	}

	if req.WeeklyWorkouts != nil {
		normalized := make(models.WeeklyWorkouts, len(req.WeeklyWorkouts))
		for day, entry := range req.WeeklyWorkouts {
			date, err := models.ParseWorkoutDate(string(day))
			if err != nil {
				utils.RespondErrorDetails(w, logMessageBuilder, "Validation failed",
					map[string]string{"weeklyWorkouts": fmt.Sprintf("%q is not a date (YYYY-MM-DD)", day)}, http.StatusBadRequest)
				return
			}
			normalized[date] = entry
		}
		changes.Set(models.FieldWeeklyWorkouts, normalized)
	}

	if changes.Empty() {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "User stats updated", "user": h.presentUser(r.Context(), user)})
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	updated, err := h.users.Update(ctx, user.ID.Hex(), changes)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Server error")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, "User stats updated")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "User stats updated", "user": h.presentUser(r.Context(), updated)})
}

// AddWorkoutSessionHandler logs a workout for a day. It replaces any
// workout already logged that day and resets the rest-day counter.
func (h *Handler) AddWorkoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Add Workout API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	user, _ := UserFromContext(r.Context())

	var req WorkoutRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Validation failed") {
		return
	}

	date, err := models.ParseWorkoutDate(strings.TrimSpace(req.Date))
	if err != nil {
		utils.RespondErrorDetails(w, logMessageBuilder, "Validation failed",
			map[string]string{"date": "must be a date (YYYY-MM-DD)"}, http.StatusBadRequest)
		return
	}

	weekly := make(models.WeeklyWorkouts, len(user.WeeklyWorkouts)+1)
	for day, entry := range user.WeeklyWorkouts {
		weekly[day] = entry
	}
	weekly[date] = models.WorkoutEntry{WorkoutType: strings.TrimSpace(req.WorkoutType), Duration: req.Duration}

	changes := store.NewChanges().
		Set(models.FieldWeeklyWorkouts, weekly).
		Set(models.FieldLastWorkoutDate, date).
		Set(models.FieldLastWorkoutTime, req.Time).
		Set(models.FieldRestDays, 0)

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	updated, err := h.users.Update(ctx, user.ID.Hex(), changes)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Server error")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Workout logged for %s", date))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Workout logged successfully", "user": h.presentUser(r.Context(), updated)})
}

func (h *Handler) GetWeeklyWorkoutsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	weekly := user.WeeklyWorkouts
	if weekly == nil {
		weekly = models.WeeklyWorkouts{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"weeklyWorkouts": weekly})
}

func (h *Handler) GetRestDaysHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]int{"restDays": user.RestDays})
}

// IncrementRestDaysHandler counts a day without training
func (h *Handler) IncrementRestDaysHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Increment Rest Days API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	user, _ := UserFromContext(r.Context())

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	updated, err := h.users.Update(ctx, user.ID.Hex(), store.NewChanges().Inc(models.FieldRestDays, 1))
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Server error")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Rest days now %d", updated.RestDays))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Rest days incremented", "user": h.presentUser(r.Context(), updated)})
}

func (h *Handler) GetLastWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"lastWorkoutTime": user.LastWorkoutTime,
		"lastWorkoutDate": string(user.LastWorkoutDate),
	})
}

func setFloat(changes *store.Changes, field string, value *float64) {
	if value != nil {
		changes.Set(field, *value)
	}
}

func setInt(changes *store.Changes, field string, value *int) {
	if value != nil {
		changes.Set(field, *value)
	}
}
