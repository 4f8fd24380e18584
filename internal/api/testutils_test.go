package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"transcripto-backend/internal/auth"
	"transcripto-backend/internal/chat"
	"transcripto-backend/internal/database"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
	pkgapi "transcripto-backend/pkg/api"
)

var testJWTSecret = []byte("test-secret")

type testEnv struct {
	db      *gorm.DB
	router  chi.Router
	service *BackendService
	queue   *messaging.InMemoryQueue
	store   storage.ObjectStore
}

func newTestEnv(t *testing.T) *testEnv {
	store, err := storage.NewLocalObjectStore(t.TempDir(), "http://localhost:8001/audio")
	require.NoError(t, err)
	return newTestEnvWithStore(t, store)
}

func newTestEnvWithStore(t *testing.T, store storage.ObjectStore) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())

	queue := messaging.NewInMemoryQueue()

	hub := chat.NewHub()
	go hub.Run()
	chatService := NewChatService(db, hub)

	service := NewBackendService(db, queue, store, &transcriber.Static{Text: "test transcription"}, chatService, testJWTSecret)
	router := chi.NewRouter()
	service.AddRoutes(router)

	return &testEnv{db: db, router: router, service: service, queue: queue, store: store}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (e *testEnv) signup(t *testing.T, email, password string) pkgapi.AuthResponse {
	t.Helper()
	rec := e.request(t, http.MethodPost, "/auth/signup", pkgapi.SignupRequest{
		Email:    email,
		Password: password,
		FullName: "Test User",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeResponse[pkgapi.AuthResponse](t, rec)
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) pkgapi.AuthResponse {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	admin := database.Profile{
		Id:           uuid.New(),
		Email:        email,
		FullName:     "Admin",
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, e.db.Create(&admin).Error)

	rec := e.request(t, http.MethodPost, "/auth/admin/login", pkgapi.LoginRequest{Email: email, Password: password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeResponse[pkgapi.AuthResponse](t, rec)
}
