package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"phishguard/internal/config"
	"phishguard/internal/features"
	"phishguard/internal/handlers"
	"phishguard/internal/logger"
	"phishguard/internal/middleware"
	"phishguard/internal/models"
	"phishguard/internal/registry"
	"phishguard/internal/services"
	"phishguard/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Registry *registry.Registry
	Users    services.UserServicer
	DataPath string
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.PredictionLog{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data", "sample.csv")
	config.SetForTests(&config.Config{
		Env:               "test",
		JWTSecret:         "integration-secret",
		JWTExpirationDur:  time.Hour,
		AdminToken:        "operator-secret",
		MaxURLLength:      2000,
		ModelPath:         filepath.Join(dir, "model", "model.json"),
		DefaultDataPath:   dataPath,
		AuditWriteTimeout: 2 * time.Second,
	})

	db := setupIsolatedDB(t)

	// Services
	reg := registry.New()
	extractor := features.NewExtractor(nil)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	predictionService := services.NewPredictionService(reg, extractor, auditService)
	trainingService := services.NewTrainingService(reg, extractor)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	predictHandler := handlers.NewPredictHandler(predictionService)
	logsHandler := handlers.NewLogsHandler(auditService)
	adminHandler := handlers.NewAdminHandler(userService, auditService)
	trainHandler := handlers.NewTrainHandler(trainingService)
	healthHandler := handlers.NewHealthHandler(reg, extractor)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	router.GET("/api/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	v1.GET("/features/schema", healthHandler.FeatureSchema)

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.POST("/train", trainHandler.Train)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/me", authHandler.GetProfile)
	protected.POST("/predict", predictHandler.Predict)
	protected.GET("/logs", logsHandler.GetOwnLogs)
	protected.DELETE("/logs", logsHandler.DeleteOwnLogs)

	admin := protected.Group("/admin")
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id/role", adminHandler.SetRole)
	admin.PUT("/users/:id/permissions", adminHandler.SetPermissions)
	admin.GET("/users/:id/logs", adminHandler.GetUserLogs)
	admin.DELETE("/users/:id/logs", adminHandler.DeleteUserLogs)
	admin.GET("/logs", adminHandler.GetAllLogs)
	admin.DELETE("/logs", adminHandler.DeleteAllLogs)

	return &testApp{DB: db, Router: router, Registry: reg, Users: userService, DataPath: dataPath}
}

// writeDataset writes a small separable training dataset to the app's
// configured default data path.
func (app *testApp) writeDataset(t *testing.T) {
	t.Helper()
	var b strings.Builder
	b.WriteString("url,label\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "https://site%d.com/page,0\n", i)
		fmt.Fprintf(&b, "http://login-secure-%d.account-verify%d.xyz/update/8f3a%d9c?id=7%dc,1\n", i, i, i, i)
	}
	if err := os.MkdirAll(filepath.Dir(app.DataPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(app.DataPath, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"confirm_password":%q}`, email, password, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// loginUser logs in and returns a fresh token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// createAdmin provisions an admin account directly and returns a token.
func (app *testApp) createAdmin(t *testing.T, email string) (token string, userID uint) {
	t.Helper()
	user, err := app.Users.CreateUser(email, "password123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	tok, err := middleware.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to sign admin token: %v", err)
	}
	return tok, user.ID
}
