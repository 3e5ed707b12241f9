package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/paperlane/paperlane/internal/auth/domain"
	batchdomain "github.com/paperlane/paperlane/internal/batch/domain"
	"github.com/paperlane/paperlane/internal/config"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	usagedomain "github.com/paperlane/paperlane/internal/usage/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type verifierStub struct {
	identity *authdomain.Identity
	err      error
}

func (v *verifierStub) Verify(ctx context.Context, token string) (*authdomain.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

type ledgerSvcStub struct {
	ledger       *ledgerdomain.UserLedger
	chargeResult *ledgerdomain.ChargeResult
	chargeErr    error
	lastCharge   ledgerdomain.ChargeRequest
}

func (s *ledgerSvcStub) GetLedger(ctx context.Context, userID string) (*ledgerdomain.UserLedger, error) {
	if s.ledger == nil {
		return nil, ledgerdomain.ErrUserNotFound
	}
	return s.ledger, nil
}

func (s *ledgerSvcStub) CreateLedger(ctx context.Context, userID string) (*ledgerdomain.UserLedger, error) {
	return s.ledger, nil
}

func (s *ledgerSvcStub) Charge(ctx context.Context, req ledgerdomain.ChargeRequest) (*ledgerdomain.ChargeResult, error) {
	s.lastCharge = req
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.chargeResult, nil
}

func (s *ledgerSvcStub) GrantCredits(ctx context.Context, userID string, amount ledgerdomain.CreditAmount, reason string) (*ledgerdomain.UserLedger, error) {
	return s.ledger, nil
}

func (s *ledgerSvcStub) GrantFreePages(ctx context.Context, userID string, pages int, reason string) (*ledgerdomain.UserLedger, error) {
	return s.ledger, nil
}

type batchSvcStub struct {
	resp *batchdomain.CreateJobResponse
	err  error
}

func (s *batchSvcStub) Create(ctx context.Context, userID string, subscriptionType string, req batchdomain.CreateJobRequest) (*batchdomain.CreateJobResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type usageSvcStub struct {
	resp *usagedomain.ListResponse
	err  error
	last usagedomain.ListRequest
}

func (s *usageSvcStub) List(ctx context.Context, req usagedomain.ListRequest) (*usagedomain.ListResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type serverStubs struct {
	verifier *verifierStub
	ledger   *ledgerSvcStub
	batch    *batchSvcStub
	usage    *usageSvcStub
}

func defaultStubs() *serverStubs {
	return &serverStubs{
		verifier: &verifierStub{identity: &authdomain.Identity{UserID: "user-1", SubscriptionType: "free"}},
		ledger:   &ledgerSvcStub{},
		batch:    &batchSvcStub{},
		usage:    &usageSvcStub{resp: &usagedomain.ListResponse{Limit: 20}},
	}
}

func setupServer(t *testing.T, stubs *serverStubs) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := NewEngine(zap.NewNop(), nil)
	s := NewServer(ServerParams{
		Gin:       engine,
		Cfg:       config.Config{},
		Verifier:  stubs.verifier,
		LedgerSvc: stubs.ledger,
		BatchSvc:  stubs.batch,
		UsageSvc:  stubs.usage,
	})
	s.RegisterAPIRoutes()
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	engine := setupServer(t, defaultStubs())

	req := httptest.NewRequest(http.MethodGet, "/v1/ledger", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	stubs := defaultStubs()
	stubs.verifier.err = authdomain.ErrUnauthorized
	engine = setupServer(t, stubs)
	rec = doRequest(t, engine, http.MethodGet, "/v1/ledger", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProcessChargeSuccessEnvelope(t *testing.T) {
	stubs := defaultStubs()
	stubs.ledger.chargeResult = &ledgerdomain.ChargeResult{
		Breakdown: ledgerdomain.Breakdown{
			PagesRequested:  8,
			FreePagesUsed:   5,
			PayablePages:    3,
			RequiredCredits: 3600,
			Eligible:        true,
		},
		FreePagesRemaining: 0,
		CreditBalance:      6400,
		PagesUsedTotal:     8,
	}
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/process", `{"pages":8,"processingRecordId":"rec-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Charge  struct {
			PagesCharged   int     `json:"pagesCharged"`
			FreePagesUsed  int     `json:"freePagesUsed"`
			CreditsCharged float64 `json:"creditsCharged"`
			NewBalance     float64 `json:"newBalance"`
		} `json:"charge"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 8, resp.Charge.PagesCharged)
	require.Equal(t, 5, resp.Charge.FreePagesUsed)
	require.InDelta(t, 3.6, resp.Charge.CreditsCharged, 1e-9)
	require.InDelta(t, 6.4, resp.Charge.NewBalance, 1e-9)

	require.Equal(t, "user-1", stubs.ledger.lastCharge.UserID)
	require.Equal(t, "rec-1", stubs.ledger.lastCharge.ProcessingRecordID)
	require.NotEmpty(t, stubs.ledger.lastCharge.ClientIP)
}

func TestProcessChargeInsufficientCredits(t *testing.T) {
	stubs := defaultStubs()
	stubs.ledger.chargeErr = &ledgerdomain.InsufficientCreditsError{
		Breakdown: ledgerdomain.Breakdown{
			PagesRequested:  8,
			PayablePages:    8,
			RequiredCredits: 9600,
		},
	}
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/process", `{"pages":8,"processingRecordId":"rec-2"}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp struct {
		Error struct {
			Type      string `json:"type"`
			Breakdown struct {
				PayablePages       int     `json:"payablePages"`
				RequiredCredits    float64 `json:"requiredCredits"`
				FreePagesRemaining int     `json:"freePagesRemaining"`
			} `json:"breakdown"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "insufficient_credits", resp.Error.Type)
	require.Equal(t, 8, resp.Error.Breakdown.PayablePages)
	require.InDelta(t, 9.6, resp.Error.Breakdown.RequiredCredits, 1e-9)
	require.Equal(t, 0, resp.Error.Breakdown.FreePagesRemaining)
}

func TestProcessChargeInputValidation(t *testing.T) {
	engine := setupServer(t, defaultStubs())

	rec := doRequest(t, engine, http.MethodPost, "/v1/process", `{"pages":0,"processingRecordId":"rec"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, engine, http.MethodPost, "/v1/process", `{"pages":3}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessChargeStoreUnavailable(t *testing.T) {
	stubs := defaultStubs()
	stubs.ledger.chargeErr = ledgerdomain.ErrStoreUnavailable
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/process", `{"pages":3,"processingRecordId":"rec"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	// Infrastructure detail never leaks to clients.
	require.NotContains(t, rec.Body.String(), "sql")
	require.Contains(t, rec.Body.String(), "service_unavailable")
}

func TestCreateBatchJobValidationMapping(t *testing.T) {
	stubs := defaultStubs()
	stubs.batch.err = batchdomain.ErrTooManyFiles
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/batch-jobs", `{"name":"big","files":[{"name":"a.pdf","size":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "too_many_files")
}

func TestCreateBatchJobEnvelope(t *testing.T) {
	stubs := defaultStubs()
	stubs.batch.resp = &batchdomain.CreateJobResponse{
		BatchJob: batchdomain.JobSummary{
			Name:      "contracts",
			FileCount: 2,
			Priority:  5,
			Status:    "validated",
			CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		CostEstimate: batchdomain.CostEstimate{
			EstimatedPages:   10,
			EstimatedCostUSD: 0.12,
			SubscriptionType: "free",
		},
	}
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/batch-jobs", `{"name":"contracts","files":[{"name":"a.pdf","size":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		BatchJob     map[string]any `json:"batchJob"`
		CostEstimate map[string]any `json:"costEstimate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "contracts", resp.BatchJob["name"])
	require.Equal(t, float64(10), resp.CostEstimate["estimatedPages"])
}

func TestGetUsageHistoryPassesQueryParams(t *testing.T) {
	stubs := defaultStubs()
	stubs.usage.resp = &usagedomain.ListResponse{
		Events: []ledgerdomain.ChargeEvent{{
			UserID:       "user-1",
			Action:       ledgerdomain.ActionPageProcessed,
			PagesCharged: 8,
		}},
		Page:  2,
		Limit: 10,
		Total: 21,
	}
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodGet, "/v1/usage?page=2&limit=10&action=page_processed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "user-1", stubs.usage.last.UserID)
	require.Equal(t, 2, stubs.usage.last.Page)
	require.Equal(t, 10, stubs.usage.last.Limit)
	require.Equal(t, "page_processed", stubs.usage.last.Action)

	var resp struct {
		Success    bool             `json:"success"`
		Data       []map[string]any `json:"data"`
		Pagination map[string]any   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	require.Equal(t, float64(21), resp.Pagination["total"])
}

func TestGetUsageHistoryRejectsNonNumericParams(t *testing.T) {
	engine := setupServer(t, defaultStubs())

	rec := doRequest(t, engine, http.MethodGet, "/v1/usage?page=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLedgerNotFound(t *testing.T) {
	engine := setupServer(t, defaultStubs())

	rec := doRequest(t, engine, http.MethodGet, "/v1/ledger", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopUpCredits(t *testing.T) {
	stubs := defaultStubs()
	stubs.ledger.ledger = &ledgerdomain.UserLedger{
		UserID:        "user-1",
		CreditBalance: 12 * ledgerdomain.CreditUnit,
	}
	engine := setupServer(t, stubs)

	rec := doRequest(t, engine, http.MethodPost, "/v1/ledger/topup", `{"credits":12}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ledgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.InDelta(t, 12.0, resp.CreditBalance, 1e-9)

	rec = doRequest(t, engine, http.MethodPost, "/v1/ledger/topup", `{"credits":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	engine := setupServer(t, defaultStubs())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
