package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/config"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/database/accounts"
	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/database/designs"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/metrics"
	"github.com/asowa/marketplace/internal/uploads"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	db       *database.Database
	accounts *accounts.Repository
	designs  *designs.Repository
	images   *uploads.Store
	service  *auth.Service
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
	audit    *audit.Service
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accountsRepo := accounts.NewRepository(db.DB)
	designsRepo := designs.NewRepository(db.DB)

	images, err := uploads.NewStore(config.Uploads{Dir: t.TempDir(), MaxBytes: 1 << 20})
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager([]byte("router-test-secret"), time.Hour)
	require.NoError(t, err)
	service, err := auth.NewService(accountsRepo, auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	m := metrics.New(prometheus.NewRegistry())
	auditor := audit.NewService(auditRepo.NewRepository(db.DB), log)
	t.Cleanup(auditor.Wait)

	cfg := RouterConfig{
		Database:           db,
		Accounts:           accountsRepo,
		Designs:            designsRepo,
		Images:             images,
		AuthService:        service,
		Tokens:             tokens,
		UploadDir:          images.Root(),
		MaxImageBytes:      images.MaxBytes(),
		Logger:             log,
		Metrics:            m,
		Audit:              auditor,
		CORSAllowedOrigins: []string{"http://localhost:8080"},
		Version:            "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router := NewRouter(cfg)

	return &testServer{
		router:   router,
		db:       db,
		accounts: accountsRepo,
		designs:  designsRepo,
		images:   images,
		service:  service,
		tokens:   tokens,
		metrics:  m,
		audit:    auditor,
	}
}

// tokenFor creates an account with the given role and returns a bearer token for it.
func (s *testServer) tokenFor(t *testing.T, email string, role entities.Role) string {
	t.Helper()
	account, err := s.service.CreateAccount(context.Background(),
		auth.RegistrationInput{Fullname: "Test " + string(role), Email: email, Password: "secret123"}, role)
	require.NoError(t, err)
	token, err := s.tokens.Issue(account.ID, account.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) request(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) postJSON(path, token string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return s.request(http.MethodPost, path, token, body)
}

// multipartRequest builds a form with optional image bytes.
func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "design.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
