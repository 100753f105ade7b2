package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raushankrgupta/fitly/assistant"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/utils"
)

// ChatHandler answers the user's message as a fitness coach who knows their
// profile and stats. Profile and stats the client leaves out are taken from
// the user's record.
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[AI Chat API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if h.chat == nil {
		utils.RespondError(w, logMessageBuilder, "AI assistant is not configured", http.StatusInternalServerError)
		return
	}
	user, _ := UserFromContext(r.Context())

	var req ChatRequest
	if !h.decodeAndValidate(w, r, logMessageBuilder, &req, "Messages are required") {
		return
	}

	profile := assistant.ProfileFromUser(user)
	if req.UserProfile != nil {
		profile = *req.UserProfile
	}
	stats := assistant.StatsFromUser(user)
	if req.UserStats != nil {
		stats = *req.UserStats
	}

	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Chat request with %d messages", len(req.Messages)))

	var reply string
	err := auth.CallUpstream(r.Context(), h.upstreamTimeout, func(ctx context.Context) error {
		var chatErr error
		reply, chatErr = assistant.Reply(ctx, h.chat, profile, stats, req.Messages)
		return chatErr
	})
	if err != nil {
		if !errors.Is(err, auth.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", auth.ErrUpstream, err)
		}
		respondServiceError(w, logMessageBuilder, err, "Error processing your request")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": reply})
}
