package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ripple/internal/cache"
	"ripple/internal/config"
	"ripple/internal/database"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:               "test-secret-key-for-handler-tests!!",
		Port:                    "8080",
		Env:                     "test",
		FeedCacheTTLSeconds:     60,
		FeedTrendingTTLSeconds:  30,
		FeedDefaultLimit:        20,
		FeedPoolSize:            150,
		FeedCandidateFactor:     2,
		FeedHistoryWindowDays:   90,
		FeedAlgorithmicPoolDays: 7,
	}
}

type testApp struct {
	app *fiber.App
	srv *Server
	db  *gorm.DB
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	srv, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testApp{app: app, srv: srv, db: db}
}

func (ta *testApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// signup registers a user and returns the issued token.
func (ta *testApp) signup(t *testing.T, username string) string {
	t.Helper()
	resp := ta.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "Devpassword123!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSignupLoginRoundTrip(t *testing.T) {
	ta := setupApp(t)

	token := ta.signup(t, "alice")

	// The issued token is accepted on a protected route.
	resp := ta.request(t, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alice", body["username"])

	// Login with the same credentials issues a fresh token.
	resp = ta.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Devpassword123!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])
}

func TestSignupRejectsWeakInput(t *testing.T) {
	ta := setupApp(t)

	resp := ta.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ta.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "_bad_",
		"email":    "bad@example.com",
		"password": "Devpassword123!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	ta := setupApp(t)
	ta.signup(t, "alice")

	resp := ta.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "Devpassword123!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginBadCredentials(t *testing.T) {
	ta := setupApp(t)
	ta.signup(t, "alice")

	resp := ta.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "WrongPassword1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "ghost@example.com",
		"password": "Devpassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ta := setupApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/posts/"},
		{http.MethodPost, "/api/posts/1/like"},
		{http.MethodGet, "/api/notifications/"},
	} {
		resp := ta.request(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode,
			"%s %s without token", tc.method, tc.path)
	}
}

func TestTimeline_InvalidModeIs400(t *testing.T) {
	ta := setupApp(t)

	resp := ta.request(t, http.MethodGet, "/api/timeline?mode=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "INVALID_MODE", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestTimeline_AnonymousAndAuthed(t *testing.T) {
	ta := setupApp(t)
	token := ta.signup(t, "alice")

	// Seed some content directly.
	var author models.User
	require.NoError(t, ta.db.Where("username = ?", "alice").First(&author).Error)
	for i := 0; i < 3; i++ {
		require.NoError(t, ta.db.Create(&models.Post{
			UserID:    author.ID,
			Content:   fmt.Sprintf("post %d", i),
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		}).Error)
	}

	// Anonymous request defaults to chronological.
	resp := ta.request(t, http.MethodGet, "/api/timeline", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "chronological", body["mode"])
	posts, ok := body["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 3)

	// Authenticated algorithmic request also succeeds.
	resp = ta.request(t, http.MethodGet, "/api/timeline?mode=algorithmic", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "algorithmic", body["mode"])
}

func TestTimeline_Pagination(t *testing.T) {
	ta := setupApp(t)
	token := ta.signup(t, "alice")

	var author models.User
	require.NoError(t, ta.db.Where("username = ?", "alice").First(&author).Error)
	for i := 0; i < 7; i++ {
		require.NoError(t, ta.db.Create(&models.Post{
			UserID:    author.ID,
			Content:   fmt.Sprintf("post %d", i),
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		}).Error)
	}

	resp := ta.request(t, http.MethodGet, "/api/timeline?limit=5&page=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody(t, resp)
	assert.Len(t, first["posts"].([]any), 5)

	resp = ta.request(t, http.MethodGet, "/api/timeline?limit=5&page=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody(t, resp)
	assert.Len(t, second["posts"].([]any), 2)
}

func TestTimeline_RankedRolloutFlag(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := testConfig()
	cfg.FeatureFlags = "ranked_timeline=off"
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	ta := &testApp{app: app, srv: srv, db: db}

	// With the flag off, algorithmic requests fall back to chronological.
	resp := ta.request(t, http.MethodGet, "/api/timeline?mode=algorithmic", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "chronological", decodeBody(t, resp)["mode"])

	// The evaluated flag set is visible to clients.
	resp = ta.request(t, http.MethodGet, "/api/flags", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flags := decodeBody(t, resp)["flags"].(map[string]any)
	assert.Equal(t, false, flags["ranked_timeline"])
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	ta := setupApp(t)
	aliceToken := ta.signup(t, "alice")
	bobToken := ta.signup(t, "bob")

	// Alice posts.
	resp := ta.request(t, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "hello #world",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decodeBody(t, resp)
	postID := uint(post["id"].(float64))
	assert.Equal(t, "world", post["hashtags"])

	// Bob likes it.
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", postID), bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["liked"])

	// The like shows in the hydrated single-post view.
	resp = ta.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob reposts it.
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/repost", postID), bobToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Alice has a like and a repost notification.
	resp = ta.request(t, http.MethodGet, "/api/notifications/", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes := decodeBody(t, resp)["notifications"].([]any)
	assert.Len(t, notes, 2)

	// Bob cannot delete Alice's post.
	resp = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Alice can.
	resp = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFollowOverHTTP(t *testing.T) {
	ta := setupApp(t)
	aliceToken := ta.signup(t, "alice")
	ta.signup(t, "bob")

	var bob models.User
	require.NoError(t, ta.db.Where("username = ?", "bob").First(&bob).Error)

	resp := ta.request(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicUserProfile(t *testing.T) {
	ta := setupApp(t)
	ta.signup(t, "alice")

	resp := ta.request(t, http.MethodGet, "/api/users/alice", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alice", body["username"])

	resp = ta.request(t, http.MethodGet, "/api/users/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	ta := setupApp(t)

	resp := ta.request(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.request(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}
