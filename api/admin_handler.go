package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/utils"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// UserListResponse is one page of the admin user listing
type UserListResponse struct {
	Users       []*models.User `json:"users"`
	Total       int64          `json:"total"`
	CurrentPage int            `json:"current_page"`
	TotalPages  int            `json:"total_pages"`
}

// ListUsersHandler pages through all accounts, newest first
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := utils.NewRequestLog("[List Users API]", RequestIDFromContext(r.Context()))
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	page, limit := pagination(r)

	ctx, cancel := dbContext(r.Context())
	defer cancel()

	users, total, err := h.users.List(ctx, page, limit)
	if err != nil {
		respondServiceError(w, logMessageBuilder, err, "Failed to fetch data")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.userPage(r.Context(), users, total, page, limit))
}

func (h *Handler) userPage(ctx context.Context, users []models.User, total int64, page, limit int) UserListResponse {
	presented := make([]*models.User, 0, len(users))
	for i := range users {
		presented = append(presented, h.presentUser(ctx, &users[i]))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return UserListResponse{
		Users:       presented,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageLimit
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
