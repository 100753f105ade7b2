// Package api serves the fitly HTTP API.
package api

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/raushankrgupta/fitly/assistant"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/store"
	"golang.org/x/oauth2"
)

// ObjectStorage keeps uploaded profile images
type ObjectStorage interface {
	Upload(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
	ResolveImageURL(ctx context.Context, image string) string
}

// Deps are the collaborators a Handler is built from. Storage, Chat and
// GoogleOAuth may be nil when the provider is not configured.
type Deps struct {
	Auth            *auth.Service
	Users           store.UserStore
	Storage         ObjectStorage
	Chat            assistant.Completer
	GoogleOAuth     *oauth2.Config
	CORSOrigin      string
	UpstreamTimeout time.Duration
	Now             func() time.Time
}

type Handler struct {
	auth            *auth.Service
	users           store.UserStore
	storage         ObjectStorage
	chat            assistant.Completer
	googleOAuth     *oauth2.Config
	corsOrigin      string
	upstreamTimeout time.Duration
	now             func() time.Time
	validate        *validator.Validate
}

func NewHandler(d Deps) *Handler {
	if d.UpstreamTimeout <= 0 {
		d.UpstreamTimeout = auth.DefaultUpstreamTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{
		auth:            d.Auth,
		users:           d.Users,
		storage:         d.Storage,
		chat:            d.Chat,
		googleOAuth:     d.GoogleOAuth,
		corsOrigin:      d.CORSOrigin,
		upstreamTimeout: d.UpstreamTimeout,
		now:             d.Now,
		validate:        newValidator(),
	}
}

// presentUser prepares a record for a response: secrets are dropped and a
// stored image key becomes a loadable URL.
func (h *Handler) presentUser(ctx context.Context, u *models.User) *models.User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.ResetPasswordToken = ""
	out.ResetPasswordExpires = nil
	if h.storage != nil {
		out.ProfileImage = h.storage.ResolveImageURL(ctx, out.ProfileImage)
	}
	return &out
}

func (h *Handler) presentSession(ctx context.Context, s *auth.Session) *auth.Session {
	out := *s
	out.User = h.presentUser(ctx, s.User)
	return &out
}

// dbContext bounds a single store round trip
func dbContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 10*time.Second)
}
