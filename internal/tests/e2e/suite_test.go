package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/app"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/notifications"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/repositories"
	testconfig "github.com/codistan-isb/intempco-api-plugin-authentication/internal/tests/config"
)

// TestSuite runs the full service against in-memory SQLite and Redis
type TestSuite struct {
	t         *testing.T
	Container *app.Container
	Server    *httptest.Server
	Redis     *redis.Client
	Mini      *miniredis.Miniredis
}

// Response is a decoded JSON reply
type Response struct {
	Status int
	Body   map[string]any
}

// Data returns the "data" object of a successful reply
func (r Response) Data(t *testing.T) map[string]any {
	t.Helper()
	data, ok := r.Body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got %v", r.Body)
	return data
}

// Error returns the "error" message of a failed reply
func (r Response) Error() string {
	msg, _ := r.Body["error"].(string)
	return msg
}

func newTestSuite(t *testing.T, overrides map[string]string) *TestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testconfig.LoadTestConfig(t, overrides)

	// A file database lets the policy adapter use a second connection while
	// its own transaction is open.
	dsn := filepath.Join(t.TempDir(), "accounts.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c, err := app.NewContainerWithStores(cfg, nil, db, rdb)
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router())
	t.Cleanup(func() {
		srv.Close()
		c.Close()
	})

	s := &TestSuite{t: t, Container: c, Server: srv, Redis: rdb, Mini: mr}
	s.seedShop()
	return s
}

func (s *TestSuite) seedShop() {
	s.t.Helper()
	shop := repositories.DBShop{
		ID:           "shop-1",
		Name:         "Test Shop",
		ShopType:     repositories.PrimaryShopType,
		Language:     "en",
		ContactEmail: "support@shop.test",
	}
	require.NoError(s.t, s.Container.DB.Create(&shop).Error)
}

// seedAdmin stores a verified admin account directly
func (s *TestSuite) seedAdmin(email, password string) string {
	s.t.Helper()
	ctx := context.Background()

	hash, err := s.Container.PasswordSvc.Hash(password)
	require.NoError(s.t, err)

	now := time.Now()
	account := &domain.Account{
		ID:           "admin-seed",
		Username:     "root",
		Emails:       []domain.Email{{Address: email, Verified: true, Provides: "default"}},
		Type:         domain.IdentityEmail,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		State:        domain.AccountStateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(s.t, s.Container.AccountRepo.Create(ctx, account))
	require.NoError(s.t, s.Container.AccountRepo.CreateProfile(ctx, &domain.AccountProfile{
		AccountID: account.ID,
		Name:      "Root Admin",
		Username:  account.Username,
		Emails:    account.Emails,
		State:     domain.AccountStateActive,
		Type:      domain.IdentityEmail,
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return account.ID
}

// popEmail takes the oldest queued email job
func (s *TestSuite) popEmail() domain.EmailMessage {
	s.t.Helper()
	raw, err := s.Redis.LPop(context.Background(), s.Container.Config.EmailQueue).Bytes()
	require.NoError(s.t, err, "expected a queued email")

	var job notifications.EmailJob
	require.NoError(s.t, json.Unmarshal(raw, &job))
	return job.Message
}

// queuedEmails reports how many email jobs are waiting
func (s *TestSuite) queuedEmails() int64 {
	s.t.Helper()
	n, err := s.Redis.LLen(context.Background(), s.Container.Config.EmailQueue).Result()
	require.NoError(s.t, err)
	return n
}

func (s *TestSuite) do(method, path string, body any, token string) Response {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := Response{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &out.Body), "body: %s", raw)
	}
	return out
}

func (s *TestSuite) post(path string, body any) Response {
	s.t.Helper()
	return s.do(http.MethodPost, path, body, "")
}

// login returns the access and refresh tokens for a successful login
func (s *TestSuite) login(email, password string) (string, string) {
	s.t.Helper()
	resp := s.post("/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, resp.Status, "login failed: %v", resp.Body)
	data := resp.Data(s.t)
	return data["access_token"].(string), data["refresh_token"].(string)
}
