package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/store"
)

const DefaultUpstreamTimeout = 15 * time.Second

// Mailer delivers the password reset link
type Mailer interface {
	SendPasswordReset(ctx context.Context, toName, toEmail, resetURL string) error
}

type Options struct {
	// FrontendURL is the base of the emailed reset link
	FrontendURL     string
	UpstreamTimeout time.Duration
	Now             func() time.Time
}

// Session is returned by every successful sign-in
type Session struct {
	Token           string       `json:"token"`
	User            *models.User `json:"user"`
	ProfileComplete bool         `json:"profileComplete"`
}

// Service composes the user store with hashing, tokens, Google identity
// verification and email delivery.
type Service struct {
	users  store.UserStore
	hasher *PasswordHasher
	tokens *TokenIssuer
	google IdentityVerifier
	mailer Mailer
	opts   Options
}

func NewService(users store.UserStore, hasher *PasswordHasher, tokens *TokenIssuer, google IdentityVerifier, mailer Mailer, opts Options) *Service {
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		google: google,
		mailer: mailer,
		opts:   opts,
	}
}

func (s *Service) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, ErrMissingFields
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(email, name, s.opts.Now())
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.newSession(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// accounts created through Google have no password
	if user.PasswordHash == "" {
		return nil, ErrInvalidPassword
	}
	ok, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	updated, err := s.users.Update(ctx, user.ID.Hex(), store.NewChanges().Set(models.FieldLastLogin, s.opts.Now()))
	if err != nil {
		return nil, err
	}
	return s.newSession(updated)
}

// GoogleLogin signs in with a Google ID token, creating the account on first
// use. An existing account keeps a custom avatar and always takes the
// latest Google subject id.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*Session, error) {
	if idToken == "" {
		return nil, ErrMissingFields
	}

	var identity *GoogleIdentity
	err := CallUpstream(ctx, s.opts.UpstreamTimeout, func(ctx context.Context) error {
		var verr error
		identity, verr = s.google.Verify(ctx, idToken)
		return verr
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}

	user, err := s.users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.createGoogleUser(ctx, identity)
		if err == nil {
			return s.newSession(user)
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		// lost a race with a concurrent first sign-in for the same email,
		// or the subject already belongs to an account under another email
		user, err = s.users.FindByEmail(ctx, identity.Email)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: google account is linked to another user", ErrIdentityRejected)
		}
	}
	if err != nil {
		return nil, err
	}

	changes := store.NewChanges().
		Set(models.FieldLastLogin, s.opts.Now()).
		Set(models.FieldGoogleID, identity.Subject)
	if !user.HasCustomAvatar() && identity.Picture != "" {
		changes.Set(models.FieldProfileImage, identity.Picture)
	}

	updated, err := s.users.Update(ctx, user.ID.Hex(), changes)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: google account is linked to another user", ErrIdentityRejected)
		}
		return nil, err
	}
	return s.newSession(updated)
}

func (s *Service) createGoogleUser(ctx context.Context, identity *GoogleIdentity) (*models.User, error) {
	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	user := models.NewUser(identity.Email, name, s.opts.Now())
	user.GoogleID = identity.Subject
	if identity.Picture != "" {
		user.ProfileImage = identity.Picture
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset stores the hash of a fresh reset token, replacing any
// earlier one, and emails the raw token as a link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoAccountForEmail
		}
		return err
	}

	token, hash, err := generateResetToken()
	if err != nil {
		return err
	}
	changes := store.NewChanges().
		Set(models.FieldResetPasswordToken, hash).
		Set(models.FieldResetPasswordExpires, s.opts.Now().Add(ResetTTL))
	if _, err := s.users.Update(ctx, user.ID.Hex(), changes); err != nil {
		return err
	}

	resetURL := strings.TrimRight(s.opts.FrontendURL, "/") + "/reset-password?token=" + token
	err = CallUpstream(ctx, s.opts.UpstreamTimeout, func(ctx context.Context) error {
		return s.mailer.SendPasswordReset(ctx, user.Name, user.Email, resetURL)
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// ResetPassword consumes a reset token. Unknown, expired and already used
// tokens all fail with ErrInvalidOrExpiredReset.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}

	changes := store.NewChanges().SetPassword(newPassword)
	if err := s.hashPending(changes); err != nil {
		return err
	}

	_, err := s.users.ConsumeResetToken(ctx, hashResetToken(token), s.opts.Now(), changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredReset
		}
		return err
	}
	return nil
}

// Authenticate resolves the user behind an Authorization header value,
// which must be exactly "Bearer <token>".
func (s *Service) Authenticate(ctx context.Context, authorization string) (*models.User, error) {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return nil, ErrNoToken
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountGone
		}
		return nil, err
	}
	return user, nil
}

// hashPending replaces a staged plaintext password with its hash. It is the
// only path by which a password reaches the store.
func (s *Service) hashPending(changes *store.Changes) error {
	if !changes.PasswordDirty() {
		return nil
	}
	hash, err := s.hasher.Hash(changes.PlainPassword())
	if err != nil {
		return err
	}
	changes.ApplyPasswordHash(hash)
	return nil
}

func (s *Service) newSession(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	public := *user
	public.PasswordHash = ""
	public.ResetPasswordToken = ""
	public.ResetPasswordExpires = nil
	return &Session{
		Token:           token,
		User:            &public,
		ProfileComplete: models.IsProfileComplete(&public),
	}, nil
}

// CallUpstream bounds an outbound call by timeout and reports a deadline
// overrun as ErrUpstreamUnavailable.
func CallUpstream(ctx context.Context, timeout time.Duration, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := call(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return err
}
