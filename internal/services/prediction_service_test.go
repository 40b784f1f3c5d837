package services

import (
	"context"
	"errors"
	"testing"

	"phishguard/internal/authz"
	"phishguard/internal/features"
	"phishguard/internal/ml"
	"phishguard/internal/models"
	"phishguard/internal/registry"
	"phishguard/internal/testutil"
)

// compatibleModel returns a model whose weights are zero except for the
// suspicious-token count, so URLs with suspicious tokens score above the
// threshold and plain ones below.
func compatibleModel() *ml.Model {
	names := features.Names()
	dim := len(names)
	weights := make([]float64, dim)
	scales := make([]float64, dim)
	for i := range scales {
		scales[i] = 1
	}
	for i, n := range names {
		if n == "suspicious_token_count" {
			weights[i] = 4
		}
	}
	return &ml.Model{
		Version:           "test-v1",
		Accuracy:          0.92,
		SchemaFingerprint: features.Fingerprint(),
		Threshold:         0.5,
		FeatureNames:      names,
		Weights:           weights,
		Bias:              -2,
		Means:             make([]float64, dim),
		Scales:            scales,
	}
}

type predictFixture struct {
	svc   PredictionServicer
	audit AuditServicer
	reg   *registry.Registry
	user  *models.User
}

func setupPredict(t *testing.T) (*predictFixture, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	reg := registry.New()
	audit := NewAuditService(db)
	svc := NewPredictionService(reg, features.NewExtractor(nil), audit)
	return &predictFixture{svc: svc, audit: audit, reg: reg, user: user},
		func() { testutil.TeardownTestDB(t, db) }
}

func userClaims(u *models.User) authz.Claims {
	return authz.Claims{UserID: u.ID, Role: u.Role}
}

func TestPredictDegraded(t *testing.T) {
	setTestConfig(t)
	f, teardown := setupPredict(t)
	defer teardown()

	result, err := f.svc.Predict(context.Background(), userClaims(f.user), "http://example.com/login", ClientInfo{IP: "203.0.113.9", Device: "cli/1.0"})
	testutil.AssertNoError(t, err)

	if result.Prediction != VerdictDegraded {
		t.Errorf("expected degraded verdict, got %q", result.Prediction)
	}
	if result.Probability != nil {
		t.Error("expected nil probability in degraded mode")
	}
	if result.ModelVersion != registry.AbsentVersion {
		t.Errorf("expected model version %q, got %q", registry.AbsentVersion, result.ModelVersion)
	}
	if result.Message == "" {
		t.Error("expected degraded response to explain itself")
	}
	// Features are still extracted and echoed.
	if result.Features.SuspiciousTokenCount != 1 {
		t.Errorf("expected echoed features, got token count %d", result.Features.SuspiciousTokenCount)
	}

	// Degraded requests are still audited, with null prediction fields.
	if result.LogID == nil {
		t.Fatal("expected degraded request to be audited")
	}
	logs, err := f.audit.Recent(&f.user.ID, 0)
	testutil.AssertNoError(t, err)
	if len(logs) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(logs))
	}
	if logs[0].Prediction != nil || logs[0].Probability != nil {
		t.Error("expected null prediction fields in degraded audit entry")
	}
	if logs[0].Device != "cli/1.0" || logs[0].IP != "203.0.113.9" {
		t.Error("expected client metadata on the audit entry")
	}
}

func TestPredictScores(t *testing.T) {
	setTestConfig(t)
	f, teardown := setupPredict(t)
	defer teardown()
	f.reg.Publish(compatibleModel())

	t.Run("phishing", func(t *testing.T) {
		result, err := f.svc.Predict(context.Background(), userClaims(f.user), "http://secure-login-verify.example.com/update", ClientInfo{})
		testutil.AssertNoError(t, err)

		if result.Prediction != VerdictPhishing {
			t.Errorf("expected phishing verdict, got %q", result.Prediction)
		}
		if result.Probability == nil || *result.Probability < 0.5 {
			t.Error("expected probability at or above the threshold")
		}
		if result.ModelVersion != "test-v1" {
			t.Errorf("expected model version test-v1, got %q", result.ModelVersion)
		}
		if result.ModelAccuracy == nil || *result.ModelAccuracy != 0.92 {
			t.Error("expected model accuracy echoed")
		}
		if result.LogID == nil {
			t.Error("expected scored request to be audited")
		}
	})

	t.Run("legitimate", func(t *testing.T) {
		result, err := f.svc.Predict(context.Background(), userClaims(f.user), "https://example.org/docs", ClientInfo{})
		testutil.AssertNoError(t, err)

		if result.Prediction != VerdictLegitimate {
			t.Errorf("expected legitimate verdict, got %q", result.Prediction)
		}
	})
}

func TestPredictValidation(t *testing.T) {
	cfg := setTestConfig(t)
	f, teardown := setupPredict(t)
	defer teardown()

	t.Run("empty_url", func(t *testing.T) {
		_, err := f.svc.Predict(context.Background(), userClaims(f.user), "", ClientInfo{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("url_too_long", func(t *testing.T) {
		long := "http://example.com/"
		for len(long) <= cfg.MaxURLLength {
			long += "aaaaaaaaaa"
		}
		_, err := f.svc.Predict(context.Background(), userClaims(f.user), long, ClientInfo{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("anonymous_denied", func(t *testing.T) {
		_, err := f.svc.Predict(context.Background(), authz.Claims{}, "http://example.com", ClientInfo{})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	// Rejected requests must not leave audit entries behind.
	logs, err := f.audit.Recent(nil, 0)
	testutil.AssertNoError(t, err)
	if len(logs) != 0 {
		t.Errorf("expected no audit entries for rejected requests, got %d", len(logs))
	}
}

func TestPredictIncompatibleModel(t *testing.T) {
	setTestConfig(t)
	f, teardown := setupPredict(t)
	defer teardown()

	stale := compatibleModel()
	stale.SchemaFingerprint = "stale-fingerprint"
	f.reg.Publish(stale)

	_, err := f.svc.Predict(context.Background(), userClaims(f.user), "http://example.com", ClientInfo{})
	testutil.AssertAppError(t, err, "MODEL_INCOMPATIBLE")

	logs, err := f.audit.Recent(nil, 0)
	testutil.AssertNoError(t, err)
	if len(logs) != 0 {
		t.Errorf("expected no audit entry for incompatible-model rejection, got %d", len(logs))
	}
}

// failingAudit drops every append.
type failingAudit struct {
	AuditServicer
}

func (f *failingAudit) Append(ctx context.Context, entry *models.PredictionLog) error {
	return errors.New("disk on fire")
}

func TestPredictToleratesAuditFailure(t *testing.T) {
	setTestConfig(t)
	f, teardown := setupPredict(t)
	defer teardown()
	f.reg.Publish(compatibleModel())

	svc := NewPredictionService(f.reg, features.NewExtractor(nil), &failingAudit{AuditServicer: f.audit})

	result, err := svc.Predict(context.Background(), userClaims(f.user), "http://example.com", ClientInfo{})
	testutil.AssertNoError(t, err)

	if result.Prediction != VerdictLegitimate && result.Prediction != VerdictPhishing {
		t.Errorf("expected a scored verdict despite audit failure, got %q", result.Prediction)
	}
	if result.LogID != nil {
		t.Error("expected nil log id when the audit append was dropped")
	}
}
