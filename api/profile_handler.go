package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/store"
	"github.com/raushankrgupta/fitly/utils"
)

const (
	MaxProfileImageSize = 5 << 20
	ProfileImageField   = "profileImage"
	ProfileImagePrefix  = "profile_images"
)

// GetUserProfileHandler returns the signed-in user's profile
func (h *Handler) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user":            h.presentUser(r.Context(), user),
		"profileComplete": models.IsProfileComplete(user),
	})
}

// UpdatePersonalInfoHandler updates the personal info fields present in the body
func (h *Handler) UpdatePersonalInfoHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Update Personal Info API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	user, _ := UserFromContext(r.Context())

	var req UpdatePersonalInfoRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Validation failed") {
		return
	}

	changes := store.NewChanges()
	setString(changes, models.FieldFullName, req.FullName)
	setString(changes, models.FieldContactNumber, req.ContactNumber)
	setString(changes, models.FieldLocation, req.Location)
	setString(changes, models.FieldTrainingExperience, req.TrainingExperience)
	if req.Height != nil {
		changes.Set(models.FieldHeight, *req.Height)
	}
	if req.Weight != nil {
		changes.Set(models.FieldWeight, *req.Weight)
	}
	if req.Allergies != nil {
		changes.Set(models.FieldAllergies, trimAll(req.Allergies))
	}
	if req.ProteinPreference != nil {
		changes.Set(models.FieldProteinPreference, trimAll(req.ProteinPreference))
	}

	if changes.Empty() {
		utils.AddToLogMessage(logMessageBuilder, "Nothing to update")
		h.respondProfile(w, r, user, "Profile is already up to date")
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	updated, err := h.users.Update(ctx, user.ID.Hex(), changes)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Failed to update profile")
		return
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Updated %d fields", len(changes.Fields())))
	h.respondProfile(w, r, updated, "Profile updated successfully")
}

func (h *Handler) respondProfile(w http.ResponseWriter, r *http.Request, user *models.User, message string) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":         message,
		"user":            h.presentUser(r.Context(), user),
		"profileComplete": models.IsProfileComplete(user),
	})
}

// CheckProfileCompletionHandler reports whether the required profile fields are filled
func (h *Handler) CheckProfileCompletionHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]bool{
		"profileComplete": models.IsProfileComplete(user),
	})
}

// UploadProfileImageHandler stores a new profile image and points the user at it
func (h *Handler) UploadProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[Upload Profile Image API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if h.storage == nil {
		utils.RespondError(w, logMessageBuilder, "Image storage is not configured", http.StatusServiceUnavailable)
		return
	}
	user, _ := UserFromContext(r.Context())

	// leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, MaxProfileImageSize+(1<<20))
	if err := r.ParseMultipartForm(MaxProfileImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, logMessageBuilder, "File is too large, the limit is 5MB", http.StatusBadRequest)
			return
		}
		utils.RespondError(w, logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(ProfileImageField)
	if err != nil {
		utils.RespondError(w, logMessageBuilder, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > MaxProfileImageSize {
		utils.RespondError(w, logMessageBuilder, "File is too large, the limit is 5MB", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxProfileImageSize+1))
	if err != nil {
		utils.RespondError(w, logMessageBuilder, "Error retrieving file", http.StatusBadRequest)
		return
	}
	if len(data) > MaxProfileImageSize {
		utils.RespondError(w, logMessageBuilder, "File is too large, the limit is 5MB", http.StatusBadRequest)
		return
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		utils.RespondError(w, logMessageBuilder, "Only image files are allowed", http.StatusBadRequest)
		return
	}
	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Received %s (%d bytes)", mtype.String(), len(data)))

	objectKey := fmt.Sprintf("%s/%s/%s%s", ProfileImagePrefix, user.ID.Hex(), uuid.NewString(), mtype.Extension())
	err = auth.CallUpstream(r.Context(), h.upstreamTimeout, func(ctx context.Context) error {
		_, upErr := h.storage.Upload(ctx, bytes.NewReader(data), objectKey, mtype.String())
		return upErr
	})
	if err != nil {
		respondServiceError(w, logMessageBuilder, fmt.Errorf("%w: %w", auth.ErrUpstream, err), "Failed to upload profile image")
		return
	}

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	updated, err := h.users.Update(ctx, user.ID.Hex(), store.NewChanges().Set(models.FieldProfileImage, objectKey))
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Failed to upload profile image")
		return
	}

	presented := h.presentUser(r.Context(), updated)
	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Stored profile image %s", objectKey))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"profileImage": presented.ProfileImage,
		"user":         presented,
	})
}

func setString(changes *store.Changes, field string, value *string) {
	if value != nil {
		changes.Set(field, strings.TrimSpace(*value))
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
