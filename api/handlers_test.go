package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly/assistant"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/models"
	"github.com/raushankrgupta/fitly/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	args := m.Called(ctx, idToken)
	identity, _ := args.Get(0).(*auth.GoogleIdentity)
	return identity, args.Error(1)
}

type captureMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func (s *fakeStorage) Upload(_ context.Context, file io.Reader, objectKey, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = contentType
	return objectKey, nil
}

func (s *fakeStorage) ResolveImageURL(_ context.Context, image string) string {
	if image == "" || strings.HasPrefix(image, "http") {
		return image
	}
	return "https://cdn.test/" + image
}

type stubCompleter struct {
	mu     sync.Mutex
	system string
	reply  string
	err    error
	hang   bool
}

func (s *stubCompleter) Complete(ctx context.Context, system string, _ []assistant.Message) (string, error) {
	s.mu.Lock()
	s.system = system
	reply, err, hang := s.reply, s.err, s.hang
	s.mu.Unlock()
	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

type testEnv struct {
	handler  http.Handler
	users    *store.MemoryStore
	verifier *MockVerifier
	mailer   *captureMailer
	storage  *fakeStorage
	chat     *stubCompleter
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    store.NewMemoryStore(),
		verifier: &MockVerifier{},
		mailer:   &captureMailer{},
		storage:  &fakeStorage{objects: map[string]string{}},
		chat:     &stubCompleter{},
		now:      time.Now(),
	}
	clock := func() time.Time { return env.now }

	svc := auth.NewService(env.users, auth.NewPasswordHasher(),
		auth.NewTokenIssuer("test-secret").WithClock(clock),
		env.verifier, env.mailer, auth.Options{
			FrontendURL:     "http://localhost:3000",
			UpstreamTimeout: time.Second,
			Now:             clock,
		})
	env.handler = NewHandler(Deps{
		Auth:            svc,
		Users:           env.users,
		Storage:         env.storage,
		Chat:            env.chat,
		CORSOrigin:      "http://localhost:3000",
		UpstreamTimeout: 200 * time.Millisecond,
		Now:             clock,
	}).Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T, email, password, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": password, "name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "a@x.com", "password": "P@ssw0rd1", "name": "Ann",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, false, body["profileComplete"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, rec.Body.String(), "P@ssw0rd1")

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "P@ssw0rd1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrongpass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Invalid password", body["error"])
	assert.NotContains(t, body, "token")

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@x.com", "password": "P@ssw0rd1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["error"])
}

func TestSignup_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@x.com", "password": "x", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "b@x.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Please provide all required fields", body["error"])
	assert.Equal(t, "is required", body["details"].(map[string]any)["name"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordLengthLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "long@x.com", "password": strings.Repeat("a", 73), "name": "Lee",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be at most 72 characters", decode(t, rec)["details"].(map[string]any)["password"])

	// 40 characters pass the schema but are 80 bytes
	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "long@x.com", "password": strings.Repeat("é", 40), "name": "Lee",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes", decode(t, rec)["error"])

	env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")
	rec = env.do(t, http.MethodPost, "/api/auth/requestPasswordReset", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, resetToken, found := strings.Cut(env.mailer.urls[0], "token=")
	require.True(t, found)

	rec = env.do(t, http.MethodPost, "/api/auth/resetPassword", "", map[string]string{"resetToken": resetToken, "newPassword": strings.Repeat("a", 73)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "newPassword")

	rec = env.do(t, http.MethodPost, "/api/auth/resetPassword", "", map[string]string{"resetToken": resetToken, "newPassword": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/resetPassword", "", map[string]string{"resetToken": resetToken, "newPassword": "NewP@ss1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodGet, "/api/profile/getUserProfile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token provided", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/profile/getUserProfile", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Not authorized, no token provided"}`, rr.Body.String())

	rec = env.do(t, http.MethodGet, "/api/profile/getUserProfile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decode(t, rec)["error"])

	env.now = env.now.Add(59 * time.Minute)
	rec = env.do(t, http.MethodGet, "/api/profile/getUserProfile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.now = env.now.Add(2 * time.Minute)
	rec = env.do(t, http.MethodGet, "/api/profile/getUserProfile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired, please log in again", decode(t, rec)["error"])
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodGet, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode(t, rec)["message"])
}

func TestUpdatePersonalInfo_RejectsNonNumericHeight(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{"fullName": "Ann Lee", "height": 170})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{"fullName": "Changed", "height": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := env.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", stored.FullName)
	assert.Equal(t, models.Measure(170), stored.Height)

	rec = env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{"weight": -4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "weight")
}

func TestProfileCompletion(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	check := func() bool {
		rec := env.do(t, http.MethodGet, "/api/profile/checkProfileCompletion", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode(t, rec)["profileComplete"].(bool)
	}
	assert.False(t, check())

	rec := env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{
		"fullName": "Ann Lee", "height": "172", "weight": 64.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["profileComplete"])

	rec = env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{
		"contactNumber": "555-0100", "location": "Austin", "trainingExperience": "beginner",
		"allergies": []string{" peanuts ", ""},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["profileComplete"])
	assert.Equal(t, []any{"peanuts"}, body["user"].(map[string]any)["allergies"])
	assert.True(t, check())

	rec = env.do(t, http.MethodPut, "/api/profile/updatePersonalInfo", token, map[string]any{"location": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, check())

	rec = env.do(t, http.MethodGet, "/api/profile/getUserProfile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["profileComplete"])
	assert.Equal(t, "Ann Lee", body["user"].(map[string]any)["fullName"])
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodPost, "/api/auth/requestPasswordReset", "", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/requestPasswordReset", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.mailer.urls, 1)
	_, resetToken, found := strings.Cut(env.mailer.urls[0], "token=")
	require.True(t, found)

	rec = env.do(t, http.MethodPost, "/api/auth/resetPassword", "", map[string]string{"resetToken": resetToken, "newPassword": "NewP@ss1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/resetPassword", "", map[string]string{"resetToken": resetToken, "newPassword": "Again1!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired reset token", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "NewP@ss1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "P@ssw0rd1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleAuth(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.On("Verify", mock.Anything, "good").Return(&auth.GoogleIdentity{
		Subject: "sub-1", Email: "g@x.com", Name: "Gia", Picture: "https://lh3.googleusercontent.com/g.png",
	}, nil)
	env.verifier.On("Verify", mock.Anything, "bad").Return(nil, errors.New("wrong audience"))

	rec := env.do(t, http.MethodPost, "/api/auth/googleAuth", "", map[string]string{"token": "good"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)
	assert.NotEmpty(t, first["token"])
	assert.Equal(t, "https://lh3.googleusercontent.com/g.png", first["user"].(map[string]any)["profileImage"])

	rec = env.do(t, http.MethodPost, "/api/auth/googleAuth", "", map[string]string{"idToken": "good"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first["user"].(map[string]any)["id"], decode(t, rec)["user"].(map[string]any)["id"])

	env.verifier.On("Verify", mock.Anything, "moved").Return(&auth.GoogleIdentity{Subject: "sub-1", Email: "moved@x.com", Name: "Gia"}, nil)
	rec = env.do(t, http.MethodPost, "/api/auth/googleAuth", "", map[string]string{"token": "moved"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Google authentication failed", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/googleAuth", "", map[string]string{"token": "bad"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Google authentication failed", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/googleAuth", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleRedirect_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/auth/google/login", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGoogleLoginRedirect(t *testing.T) {
	h := NewHandler(Deps{GoogleOAuth: NewGoogleOAuthConfig("client-id", "secret", "http://localhost:8080/api/auth/google/callback")})

	rec := httptest.NewRecorder()
	h.GoogleLoginHandler(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Contains(t, rec.Header().Get("Location"), "state="+cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.GoogleCallbackHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkoutLog(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/user/increment-rest-days", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/user/rest-days", token, nil)
	assert.EqualValues(t, 2, decode(t, rec)["restDays"])

	rec = env.do(t, http.MethodPost, "/api/user/workout", token, map[string]any{
		"date": "2025-03-04T10:00:00Z", "workoutType": "Run", "duration": 30, "time": "10:00:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	assert.EqualValues(t, 0, user["restDays"])
	assert.Equal(t, "2025-03-04", user["lastWorkoutDate"])
	assert.EqualValues(t, 0, user["workoutsCompleted"])

	rec = env.do(t, http.MethodPost, "/api/user/workout", token, map[string]any{
		"date": "2025-03-04", "workoutType": "Lift", "duration": 45, "time": "18:00:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/user/weekly-workouts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	weekly := decode(t, rec)["weeklyWorkouts"].(map[string]any)
	require.Len(t, weekly, 1)
	assert.Equal(t, "Lift", weekly["2025-03-04"].(map[string]any)["workoutType"])

	rec = env.do(t, http.MethodGet, "/api/user/last-workout", token, nil)
	assert.Equal(t, map[string]any{"lastWorkoutTime": "18:00:00", "lastWorkoutDate": "2025-03-04"}, decode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/user/workout", token, map[string]any{"date": "yesterday", "workoutType": "Run"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserStats(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	rec := env.do(t, http.MethodPut, "/api/user/stats", token, map[string]any{
		"calories": 2100, "water": 1500, "workoutsCompleted": 3, "streak": 2,
		"weeklyWorkouts": map[string]any{"2025-03-02": map[string]any{"workoutType": "Yoga", "duration": 20}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User stats updated", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPut, "/api/user/stats", token, map[string]any{"points": 50})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/user/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["user"].(map[string]any)
	assert.EqualValues(t, 2100, stats["calories"])
	assert.EqualValues(t, 3, stats["workoutsCompleted"])
	assert.EqualValues(t, 50, stats["points"])
	assert.Contains(t, stats["weeklyWorkouts"], "2025-03-02")

	rec = env.do(t, http.MethodPut, "/api/user/stats", token, map[string]any{"streak": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/user/stats", token, map[string]any{"weeklyWorkouts": map[string]any{"monday": map[string]any{}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")
	env.chat.reply = "**Great** start!\n\n\n\nKeep going."

	rec := env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "How am I doing?"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Great start!\n\nKeep going.", decode(t, rec)["message"])
	assert.Contains(t, env.chat.system, "- Name: Ann\n", "profile falls back to the stored user")

	rec = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{
		"messages":    []map[string]string{{"role": "user", "content": "hi"}},
		"userProfile": map[string]any{"fullName": "Annie", "height": "170"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.chat.system, "- Name: Annie\n")
	assert.Contains(t, env.chat.system, "- Height: 170\n")

	rec = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "Hello!"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must end with a user message", decode(t, rec)["details"].(map[string]any)["messages"])

	env.chat.err = errors.New("openai: 500 internal")
	rec = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error processing your request", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "openai")
}

func TestChat_ProviderTimeout(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")
	env.chat.hang = true

	rec := env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChat_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")
	user, err := env.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	h := NewHandler(Deps{Users: env.users})
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req = req.WithContext(context.WithValue(req.Context(), userKey, user))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI assistant is not configured", decode(t, rec)["error"])
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadProfileImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "a@x.com", "P@ssw0rd1", "Ann")

	upload := func(field string, content []byte) *httptest.ResponseRecorder {
		body, contentType := multipartImage(t, field, "me.png", content)
		req := httptest.NewRequest(http.MethodPost, "/api/profile/uploadProfileImage", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	rec := upload(ProfileImageField, png)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	url := body["profileImage"].(string)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/profile_images/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.Len(t, env.storage.objects, 1)

	stored, err := env.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimPrefix(url, "https://cdn.test/"), stored.ProfileImage, "the object key is stored, not the URL")

	rec = upload(ProfileImageField, []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only image files are allowed", decode(t, rec)["error"])

	rec = upload("avatar", png)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decode(t, rec)["error"])

	rec = upload(ProfileImageField, append(png, make([]byte, MaxProfileImageSize)...))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.storage.err = errors.New("s3: access denied")
	rec = upload(ProfileImageField, png)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to upload profile image", decode(t, rec)["error"])
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "admin@x.com", "P@ssw0rd1", "Root")
	env.signup(t, "b@x.com", "P@ssw0rd1", "Bo")
	env.signup(t, "c@x.com", "P@ssw0rd1", "Cy")

	rec := env.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := env.users.FindByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	_, err = env.users.Update(context.Background(), admin.ID.Hex(), store.NewChanges().Set(models.FieldRole, models.RoleAdmin))
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/api/admin/users?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["current_page"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.Len(t, body["users"], 1)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = env.do(t, http.MethodGet, "/api/time", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "timestamp")

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
