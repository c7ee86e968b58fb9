package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pizzaproblem/internal/auth"
	"pizzaproblem/internal/handler"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/repository"
	"pizzaproblem/internal/service"
)

// newTestServer wires the whole stack against an in-memory store seeded with
// the two demo users: test/test (pizza love 1) and user/user (pizza love 3).
func newTestServer(t *testing.T) (*echo.Echo, repository.UserRepository) {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	seed := []struct {
		first, last, username, password string
		pizzaLove                       int
	}{
		{"Test", "Test", "test", "test", 1},
		{"User", "User", "user", "user", 3},
	}
	for _, s := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), &model.User{
			FirstName:    s.first,
			LastName:     s.last,
			Username:     s.username,
			PasswordHash: string(hash),
			PizzaLove:    s.pizzaLove,
		}))
	}

	jwtSvc := auth.NewJWTService("test-secret")
	svc := service.NewUserService(repo, jwtSvc, nil)

	e := echo.New()
	Register(e, jwtSvc, repo, handler.NewAuthHandler(svc), handler.NewUserHandler(svc))
	return e, repo
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func authenticate(t *testing.T, e *echo.Echo, username, password string) handler.AuthenticateResponse {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/users/authenticate",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.AuthenticateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticate_Success(t *testing.T) {
	e, _ := newTestServer(t)

	resp := authenticate(t, e, "user", "user")
	assert.Equal(t, uint(2), resp.ID)
	assert.Equal(t, "user", resp.Username)
	assert.NotEmpty(t, resp.Token)

	// The issued token grants access to protected routes.
	rec := doJSON(e, http.MethodGet, "/api/users", "", resp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	e, _ := newTestServer(t)

	for _, body := range []string{
		`{"username":"user","password":"wrong"}`,
		`{"username":"nobody","password":"user"}`,
	} {
		rec := doJSON(e, http.MethodPost, "/api/users/authenticate", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username or password is incorrect")
	}
}

func TestListUsers_RequiresIdentity(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestListUsers_NeverExposesPasswords(t *testing.T) {
	e, _ := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	rec := doJSON(e, http.MethodGet, "/api/users", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestGetUser(t *testing.T) {
	e, _ := newTestServer(t)
	token := authenticate(t, e, "test", "test").Token

	rec := doJSON(e, http.MethodGet, "/api/users/2", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var user handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, uint(2), user.ID)
	assert.Equal(t, 3, user.PizzaLove)

	rec = doJSON(e, http.MethodGet, "/api/users/99", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopTenUser_PublicAndOrdered(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/users/GetTopTenUser", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, uint(2), users[0].ID)
	assert.Equal(t, 3, users[0].PizzaLove)
	assert.Equal(t, uint(1), users[1].ID)
	assert.Equal(t, 1, users[1].PizzaLove)
}

func TestCreateUser(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/users",
		`{"firstName":"New","lastName":"Person","username":"new","password":"newpass"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/users/3", rec.Header().Get(echo.HeaderLocation))

	var user handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, uint(3), user.ID)

	// The fresh user can authenticate right away.
	resp := authenticate(t, e, "new", "newpass")
	assert.Equal(t, uint(3), resp.ID)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/users",
		`{"firstName":"Dup","lastName":"Dup","username":"user","password":"whatever"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUser_ValidationFailure(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/users", `{"firstName":"No","lastName":"Creds"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser_Upsert(t *testing.T) {
	e, repo := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	// Replace an existing record.
	rec := doJSON(e, http.MethodPut, "/api/users/1",
		`{"firstName":"Renamed","lastName":"Test","username":"test","password":"test","pizzaLove":4}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FirstName)
	assert.Equal(t, 4, got.PizzaLove)

	// Create at an id the store has never used.
	rec = doJSON(e, http.MethodPut, "/api/users/8",
		`{"firstName":"Fresh","lastName":"Record","username":"fresh","password":"fresh"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/users/8", rec.Header().Get(echo.HeaderLocation))

	_, err = repo.FindByID(context.Background(), 8)
	assert.NoError(t, err)
}

func TestPatchUser(t *testing.T) {
	e, repo := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	rec := doJSON(e, http.MethodPatch, "/api/users/1", `{"pizzaLove":10}`, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, got.PizzaLove)
	assert.Equal(t, "Test", got.FirstName, "unpatched fields keep their values")

	// The leaderboard reflects the patch.
	rec = doJSON(e, http.MethodGet, "/api/users/GetTopTenUser", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Equal(t, uint(1), users[0].ID)
}

func TestUpdateUser_TakenUsername(t *testing.T) {
	e, repo := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	// Upserting at a fresh id must not duplicate an existing username.
	rec := doJSON(e, http.MethodPut, "/api/users/8",
		`{"firstName":"Copy","lastName":"Cat","username":"test","password":"copycat"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	_, err := repo.FindByID(context.Background(), 8)
	assert.Error(t, err, "conflicting upsert must not store a record")

	// Replacing a record while stealing another's username must fail too.
	rec = doJSON(e, http.MethodPut, "/api/users/2",
		`{"firstName":"User","lastName":"User","username":"test","password":"user"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	got, err := repo.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "user", got.Username)
}

func TestPatchUser_RenameToTakenUsername(t *testing.T) {
	e, repo := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	rec := doJSON(e, http.MethodPatch, "/api/users/2", `{"username":"test"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	got, err := repo.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "user", got.Username)
}

func TestPatchUser_UnknownID(t *testing.T) {
	e, _ := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	rec := doJSON(e, http.MethodPatch, "/api/users/99", `{"pizzaLove":10}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchUser_MissingDocument(t *testing.T) {
	e, _ := newTestServer(t)
	token := authenticate(t, e, "user", "user").Token

	// Absent body and a document that patches nothing both fail the same way.
	rec := doJSON(e, http.MethodPatch, "/api/users/1", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/users/1", `{}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMPTY_PATCH")
}

func TestIncreasePizzaLove(t *testing.T) {
	e, repo := newTestServer(t)
	token := authenticate(t, e, "test", "test").Token

	rec := doJSON(e, http.MethodPost, "/api/users/1/pizzalove", "", token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PizzaLove)

	rec = doJSON(e, http.MethodPost, "/api/users/99/pizzalove", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredOrForeignTokenIsUnauthorized(t *testing.T) {
	e, _ := newTestServer(t)

	foreign, err := auth.NewJWTService("another-secret").GenerateToken(2)
	require.NoError(t, err)

	rec := doJSON(e, http.MethodGet, "/api/users", "", foreign)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
