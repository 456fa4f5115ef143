package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crm/backend/internal/application/contact"
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestServer wires the HTTP stack on top of a container-backed database.
type TestServer struct {
	DB     *TestDB
	Engine *gin.Engine
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	log := zap.NewNop()
	db := &persistence.Database{DB: testDB.DB}

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-access-secret-1234567890",
		RefreshSecret:          "integration-refresh-secret-1234567890",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "crm-integration",
	})
	blacklist := auth.NewMemoryTokenBlacklist()

	identityRepo := persistence.NewIdentityRepository(testDB.DB)
	personRepo := persistence.NewPersonRepository(testDB.DB)
	householdRepo := persistence.NewHouseholdRepository(testDB.DB)
	listRepo := persistence.NewListRepository(testDB.DB)
	teamRepo := persistence.NewTeamRepository(testDB.DB)
	taskRepo := persistence.NewTaskRepository(testDB.DB)
	messageRepo := persistence.NewEmailMessageRepository(testDB.DB)
	settingRepo := persistence.NewSettingRepository(testDB.DB)

	authService := identity.NewAuthService(db, identityRepo, personRepo, jwtService, blacklist, log)
	personService := contact.NewPersonService(db, personRepo, householdRepo, listRepo, teamRepo, taskRepo, messageRepo, settingRepo, log)

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		JWTService: jwtService,
		Blacklist:  blacklist,
		Logger:     log,
	})

	engine := gin.New()
	router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithProtection(authMiddleware),
	).
		Register(handler.NewAuthHandler(authService, authMiddleware)).
		RegisterProtected(handler.NewPersonHandler(personService)).
		Setup()

	return &TestServer{DB: testDB, Engine: engine}
}

// envelope mirrors the API response wrapper with the payload kept raw so
// each test can decode it into its own type.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (ts *TestServer) request(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (ts *TestServer) signUp(t *testing.T, org, email string) identity.AuthResponse {
	t.Helper()

	w, env := ts.request(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"organization_name": org,
		"first_name":        "Pat",
		"last_name":         "Riley",
		"email":             email,
		"password":          "correct horse battery",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp identity.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.Tokens)
	return resp
}

func TestAuthFlow(t *testing.T) {
	ts := NewTestServer(t)

	signedUp := ts.signUp(t, "Riverdale Food Bank", "pat@riverdale.org")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w, env := ts.request(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
			"organization_name": "Another Org",
			"first_name":        "Pat",
			"email":             "pat@riverdale.org",
			"password":          "correct horse battery",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("sign in and fetch the profile", func(t *testing.T) {
		w, env := ts.request(t, http.MethodPost, "/api/v1/auth/signin", map[string]any{
			"email":    "pat@riverdale.org",
			"password": "correct horse battery",
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp identity.AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, signedUp.TenantID, resp.TenantID)

		w, env = ts.request(t, http.MethodGet, "/api/v1/auth/me", nil, resp.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, w.Code)

		var me identity.MeResponse
		require.NoError(t, json.Unmarshal(env.Data, &me))
		assert.Equal(t, "Riverdale Food Bank", me.TenantName)
		assert.Equal(t, "pat@riverdale.org", me.Email)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		w, _ := ts.request(t, http.MethodPost, "/api/v1/auth/signin", map[string]any{
			"email":    "pat@riverdale.org",
			"password": "wrong horse",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh rotates the pair and revokes the old one", func(t *testing.T) {
		w, env := ts.request(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
			"refresh_token": signedUp.Tokens.RefreshToken,
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var rotated identity.AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &rotated))
		assert.NotEqual(t, signedUp.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

		w, _ = ts.request(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
			"refresh_token": signedUp.Tokens.RefreshToken,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("sign out revokes the access token", func(t *testing.T) {
		fresh := ts.signUp(t, "Second Org", "casey@second.org")

		w, _ := ts.request(t, http.MethodPost, "/api/v1/auth/signout", nil, fresh.Tokens.AccessToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		w, _ = ts.request(t, http.MethodGet, "/api/v1/auth/me", nil, fresh.Tokens.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w, _ := ts.request(t, http.MethodGet, "/api/v1/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPersonAPITenantIsolation(t *testing.T) {
	ts := NewTestServer(t)

	alpha := ts.signUp(t, "Alpha Org", "alpha@example.org")
	beta := ts.signUp(t, "Beta Org", "beta@example.org")

	w, env := ts.request(t, http.MethodPost, "/api/v1/persons", map[string]any{
		"first_name": "Alice",
		"last_name":  "Alpha",
	}, alpha.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created contact.PersonResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	t.Run("owner sees the person in the grid", func(t *testing.T) {
		w, env := ts.request(t, http.MethodPost, "/api/v1/persons/query", map[string]any{}, alpha.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Rows  []contact.PersonResponse `json:"rows"`
			Count int64                    `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		// the sign-up profile person plus Alice
		assert.Equal(t, int64(2), page.Count)
	})

	t.Run("another tenant cannot see or fetch it", func(t *testing.T) {
		w, env := ts.request(t, http.MethodPost, "/api/v1/persons/query", map[string]any{}, beta.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Rows  []contact.PersonResponse `json:"rows"`
			Count int64                    `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.Equal(t, int64(1), page.Count)

		w, _ = ts.request(t, http.MethodGet, "/api/v1/persons/"+created.ID.String(), nil, beta.Tokens.AccessToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
