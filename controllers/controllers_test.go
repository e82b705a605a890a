package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/scholarfund_backend/config"
	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/repositories"
	"github.com/HSouheill/scholarfund_backend/services"
)

const (
	applicant = "0x1111111111111111111111111111111111111111"
	pool      = "0x2222222222222222222222222222222222222222"
	admin     = "0x9999999999999999999999999999999999999999"
)

// appStore is a small in-memory ApplicationStore
type appStore struct {
	mu   sync.Mutex
	apps map[primitive.ObjectID]*models.Application
}

func (s *appStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.WalletAddress == app.WalletAddress && a.PoolAddress == app.PoolAddress {
			return repositories.ErrDuplicate
		}
	}
	app.ID = primitive.NewObjectID()
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *appStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *appStore) find(match func(*models.Application) bool) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *appStore) FindByWalletAndPool(_ context.Context, wallet, poolAddress string) (*models.Application, error) {
	return s.find(func(a *models.Application) bool { return a.WalletAddress == wallet && a.PoolAddress == poolAddress })
}

func (s *appStore) FindByVerificationToken(_ context.Context, token string) (*models.Application, error) {
	return s.find(func(a *models.Application) bool { return a.VerificationToken == token })
}

func (s *appStore) List(_ context.Context, f models.ApplicationFilter) ([]models.Application, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Application{}
	for _, a := range s.apps {
		if (f.Status == "" || a.Status == f.Status) &&
			(f.WalletAddress == "" || a.WalletAddress == f.WalletAddress) &&
			(f.PoolAddress == "" || a.PoolAddress == f.PoolAddress) {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (s *appStore) update(id primitive.ObjectID, from models.ApplicationStatus, apply func(*models.Application)) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok || a.Status != from {
		return nil, repositories.ErrStatusConflict
	}
	apply(a)
	cp := *a
	return &cp, nil
}

func (s *appStore) ConfirmEmail(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	return s.update(id, from, func(a *models.Application) {
		a.EmailVerified, a.VerifiedAt, a.Status, a.VerificationToken = true, &at, to, ""
	})
}

func (s *appStore) Review(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, reviewer, notes string, at time.Time) (*models.Application, error) {
	return s.update(id, from, func(a *models.Application) {
		a.Status, a.ReviewedBy, a.ReviewNotes, a.ReviewedAt = to, reviewer, notes, &at
	})
}

func (s *appStore) MarkPaid(_ context.Context, id primitive.ObjectID, txHash, amount string, at time.Time) (*models.Application, error) {
	return s.update(id, models.StatusApproved, func(a *models.Application) {
		a.Status, a.TransactionHash, a.Amount, a.PaidAt = models.StatusPaid, txHash, amount, &at
	})
}

func (s *appStore) CountByStatus(context.Context, string) (map[models.ApplicationStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[models.ApplicationStatus]int64{}
	for _, a := range s.apps {
		counts[a.Status]++
	}
	return counts, nil
}

func (s *appStore) tokenOf(id string) string {
	objID, _ := primitive.ObjectIDFromHex(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps[objID].VerificationToken
}

type testServer struct {
	e     *echo.Echo
	store *appStore
}

func asAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(middleware.ContextWallet, admin)
		c.Set(middleware.ContextRole, models.RoleAdmin)
		return next(c)
	}
}

func newTestServer() *testServer {
	store := &appStore{apps: map[primitive.ObjectID]*models.Application{}}
	svc := services.NewApplicationService(
		store,
		services.NewIPFSService(config.IPFSConfig{}),
		services.NewEmailService(config.SMTPConfig{}, "http://localhost:3000"),
		nil, nil,
	)

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	ac := NewApplicationController(svc)
	e.POST("/api/applications", ac.Submit)
	e.GET("/api/applications/verify/:token", ac.VerifyEmailByLink)
	e.POST("/api/applications/verify", ac.VerifyEmail)
	e.GET("/api/applications/check", ac.CheckApplied)
	e.GET("/api/applications/:id", ac.Get)

	adm := NewAdminController(svc, nil)
	g := e.Group("/api/admin", asAdmin)
	g.POST("/applications/batch-approve", adm.BatchApprove)
	g.POST("/applications/:id/approve", adm.Approve)
	g.POST("/applications/:id/reject", adm.Reject)
	g.POST("/applications/:id/mark-paid", adm.MarkPaid)
	g.GET("/stats", adm.Stats)

	tc := NewTransactionController(svc)
	e.GET("/api/transactions/wallet/:wallet", tc.ListByWallet)
	e.POST("/api/transactions", tc.Record, asAdmin)

	return &testServer{e: e, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func submitBody(wallet string) string {
	return `{"walletAddress":"` + wallet + `","email":"ada@example.com","poolId":"pool-1","poolAddress":"` + pool +
		`","fullName":"Ada","institution":"MIT","program":"CS","gpa":3.7}`
}

func TestApplicationHTTPFlow(t *testing.T) {
	ts := newTestServer()

	code, env := ts.do(t, http.MethodPost, "/api/applications", submitBody(applicant))
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.True(t, env.Success)

	var app models.Application
	require.NoError(t, json.Unmarshal(env.Data, &app))
	assert.Equal(t, models.StatusPending, app.Status)
	assert.NotContains(t, string(env.Data), "verificationToken")

	code, env = ts.do(t, http.MethodPost, "/api/applications", submitBody(applicant))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You have already applied to this scholarship pool", env.Error)

	code, env = ts.do(t, http.MethodPost, "/api/admin/applications/"+app.ID.Hex()+"/approve", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email not verified", env.Error)

	token := ts.store.tokenOf(app.ID.Hex())
	code, _ = ts.do(t, http.MethodGet, "/api/applications/verify/"+token, "")
	require.Equal(t, http.StatusOK, code)

	code, env = ts.do(t, http.MethodGet, "/api/applications/verify/"+token, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invalid verification token", env.Error)

	code, env = ts.do(t, http.MethodPost, "/api/admin/applications/"+app.ID.Hex()+"/approve", `{"notes":"ok"}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &app))
	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, admin, app.ReviewedBy)

	txHash := "0x" + strings.Repeat("ab", 32)
	code, env = ts.do(t, http.MethodPost, "/api/transactions", `{"applicationId":"`+app.ID.Hex()+`","transactionHash":"`+txHash+`","amount":"100"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = ts.do(t, http.MethodGet, "/api/transactions/wallet/"+applicant, "")
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []models.Transaction `json:"items"`
		Total int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, txHash, page.Items[0].TransactionHash)

	code, env = ts.do(t, http.MethodGet, "/api/applications/check?walletAddress="+applicant+"&poolAddress="+pool, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"hasApplied":true,"status":"paid"}`, string(env.Data))
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer()

	code, env := ts.do(t, http.MethodPost, "/api/applications", `{"walletAddress":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "walletAddress must be a valid wallet address")
	assert.Contains(t, env.Error, "email is required")

	code, env = ts.do(t, http.MethodPost, "/api/applications", `{"walletAddress":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", env.Error)
}

func TestVerifyEmailBodyValidation(t *testing.T) {
	ts := newTestServer()

	code, env := ts.do(t, http.MethodPost, "/api/applications/verify", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "token is required", env.Error)

	code, env = ts.do(t, http.MethodPost, "/api/applications/verify", `{"token":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "token must be 64 characters", env.Error)

	code, env = ts.do(t, http.MethodPost, "/api/applications/verify", `{"token":"`+strings.Repeat("z", 64)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "token is invalid (hexadecimal)", env.Error)
}

func TestBatchApproveHTTP(t *testing.T) {
	ts := newTestServer()

	_, env := ts.do(t, http.MethodPost, "/api/applications", submitBody(applicant))
	var app models.Application
	require.NoError(t, json.Unmarshal(env.Data, &app))
	code, _ := ts.do(t, http.MethodPost, "/api/applications/verify", `{"token":"`+ts.store.tokenOf(app.ID.Hex())+`"}`)
	require.Equal(t, http.StatusOK, code)

	missing := primitive.NewObjectID().Hex()
	code, env = ts.do(t, http.MethodPost, "/api/admin/applications/batch-approve", `{"ids":["`+app.ID.Hex()+`","`+missing+`"]}`)
	require.Equal(t, http.StatusOK, code)

	var result models.BatchApproveResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []string{app.ID.Hex()}, result.Approved)
	assert.Equal(t, []models.BatchFailure{{ID: missing, Reason: "Application not found"}}, result.Failed)

	code, env = ts.do(t, http.MethodPost, "/api/admin/applications/batch-approve", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = ts.do(t, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats models.ApplicationStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats.ByStatus[models.StatusApproved])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(services.KindValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(services.KindConflict))
	assert.Equal(t, http.StatusNotFound, statusFor(services.KindNotFound))
	assert.Equal(t, http.StatusUnauthorized, statusFor(services.KindUnauthorized))
	assert.Equal(t, http.StatusForbidden, statusFor(services.KindForbidden))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(services.KindTooManyRequests))
	assert.Equal(t, http.StatusInternalServerError, statusFor(services.KindInternal))
}

func TestHTTPErrorHandlerHidesInternalsInProduction(t *testing.T) {
	defer SetProduction(false)

	render := func(err error) (int, envelope) {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		HTTPErrorHandler(err, c)
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		return rec.Code, env
	}

	code, env := render(echo.NewHTTPError(http.StatusNotFound))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", env.Error)

	SetProduction(false)
	code, env = render(errors.New("mongo: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, env.Error, "connection reset")

	SetProduction(true)
	_, env = render(errors.New("mongo: connection reset"))
	assert.Equal(t, "Internal server error", env.Error)
}
