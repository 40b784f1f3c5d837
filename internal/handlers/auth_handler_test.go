package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/middleware"
	"phishguard/internal/models"
	"phishguard/internal/pagination"
	"phishguard/internal/services"
	"phishguard/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.SetForTests(&config.Config{
		Env:              "test",
		JWTSecret:        "test-secret-key",
		JWTExpirationDur: time.Hour,
		MaxURLLength:     2000,
		AdminToken:       "operator-secret",
	})
}

// --- mock user service ---

type mockUserService struct {
	createUserFn          func(email, password, role string) (*models.User, error)
	attemptLoginFn        func(email, password, ip, device string) (*models.User, error)
	getUserByEmailFn      func(email string) (*models.User, error)
	getUserByIDFn         func(id uint) (*models.User, error)
	listUsersFn           func(req pagination.PageRequest) (pagination.PageResponse[models.User], error)
	setRoleFn             func(userID uint, role string) (*models.User, error)
	setCanDeleteOwnLogsFn func(userID uint, allowed bool) (*models.User, error)
}

func (m *mockUserService) CreateUser(email, password, role string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, role)
	}
	return &models.User{Email: email, Role: role, IsActive: true}, nil
}

func (m *mockUserService) AttemptLogin(email, password, ip, device string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password, ip, device)
	}
	return &models.User{Email: email, Role: models.RoleUser, IsActive: true}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{Email: email}, nil
}

func (m *mockUserService) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	u := &models.User{Email: "user@example.com", Role: models.RoleUser, IsActive: true}
	u.ID = id
	return u, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	return true
}

func (m *mockUserService) ListUsers(req pagination.PageRequest) (pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(req)
	}
	return pagination.NewPageResponse([]models.User{}, req.Page, req.PageSize, 0), nil
}

func (m *mockUserService) SetRole(userID uint, role string) (*models.User, error) {
	if m.setRoleFn != nil {
		return m.setRoleFn(userID, role)
	}
	u := &models.User{Role: role}
	u.ID = userID
	return u, nil
}

func (m *mockUserService) SetCanDeleteOwnLogs(userID uint, allowed bool) (*models.User, error) {
	if m.setCanDeleteOwnLogsFn != nil {
		return m.setCanDeleteOwnLogsFn(userID, allowed)
	}
	u := &models.User{CanDeleteOwnLogs: allowed}
	u.ID = userID
	return u, nil
}

func (m *mockUserService) EnsureAdmin(email, password string) error { return nil }

// verify interface compliance
var _ services.UserServicer = (*mockUserService)(nil)

// --- shared test helpers ---

func injectClaims(uid uint, role string, canDelete bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetClaims(c, &middleware.JWTClaims{
			UserID:           uid,
			Role:             role,
			CanDeleteOwnLogs: canDelete,
		})
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v (body %s)", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

// --- tests ---

func setupAuthTestRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/me", injectClaims(1, models.RoleUser, false), handler.GetProfile)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(email, password, role string) (*models.User, error) {
				if role != models.RoleUser {
					t.Errorf("expected self-registration role user, got %s", role)
				}
				u := &models.User{Email: email, Role: role, IsActive: true}
				u.ID = 1
				return u, nil
			},
		}
		r := setupAuthTestRouter(NewAuthHandler(svc))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"alice@example.com","password":"password123","confirm_password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] == "" {
			t.Error("expected a token in the response")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "alice@example.com" {
			t.Errorf("expected email echoed, got %v", user["email"])
		}
	})

	t.Run("returns 400 on password mismatch", func(t *testing.T) {
		r := setupAuthTestRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"alice@example.com","password":"password123","confirm_password":"different123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(email, password, role string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthTestRouter(NewAuthHandler(svc))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"dup@example.com","password":"password123","confirm_password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(email, password, ip, device string) (*models.User, error) {
				u := &models.User{Email: email, Role: models.RoleUser, IsActive: true}
				u.ID = 3
				return u, nil
			},
		}
		r := setupAuthTestRouter(NewAuthHandler(svc))

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"alice@example.com","password":"password123","device":"cli/1.0"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		if token == "" {
			t.Fatal("expected a token")
		}

		// The issued token carries the permission snapshot.
		claims, err := middleware.ParseAccessToken(token)
		if err != nil {
			t.Fatalf("issued token failed to parse: %v", err)
		}
		if claims.UserID != 3 {
			t.Errorf("expected user id 3 in claims, got %d", claims.UserID)
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(email, password, ip, device string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthTestRouter(NewAuthHandler(svc))

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"alice@example.com","password":"wrong-password"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "INVALID_CREDENTIALS")
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the caller", func(t *testing.T) {
		svc := &mockUserService{
			getUserByIDFn: func(id uint) (*models.User, error) {
				u := &models.User{Email: "me@example.com", Role: models.RoleUser}
				u.ID = id
				return u, nil
			},
		}
		r := setupAuthTestRouter(NewAuthHandler(svc))

		rec := doRequest(r, "GET", "/me", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["email"] != "me@example.com" {
			t.Errorf("expected profile email, got %v", result["email"])
		}
	})

	t.Run("returns 401 without claims", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", NewAuthHandler(&mockUserService{}).GetProfile)

		rec := doRequest(r, "GET", "/me", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "UNAUTHORIZED")
	})
}
