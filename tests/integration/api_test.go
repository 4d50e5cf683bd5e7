package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"invest-platform/config"
	httpHandler "invest-platform/internal/adapter/http/handler"
	redisStorage "invest-platform/internal/adapter/storage/redis"
	"invest-platform/internal/core/domain"
	"invest-platform/internal/service"
	"invest-platform/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers, services and Redis stores wired to in-memory repos and
// miniredis. Only the SQL layer is substituted.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	userRepo       *inMemoryUserRepo
	walletRepo     *inMemoryWalletRepo
	txRepo         *inMemoryTransactionRepo
	investmentRepo *inMemoryInvestmentRepo
	referralRepo   *inMemoryReferralRepo

	tokenSvc *service.JWTTokenService
	planID   uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos, seeded with one active plan
	planID := uuid.New()
	plan := &domain.InvestmentPlan{
		ID:           planID,
		Name:         "Growth",
		DailyRateBps: 200, // 2%/day
		MinAmount:    10000,
		MaxAmount:    1000000,
		DurationDays: 30,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	investmentRepo := newInMemoryInvestmentRepo()
	planRepo := newInMemoryPlanRepo(plan)
	referralRepo := newInMemoryReferralRepo()
	transactor := newInMemoryTransactor()

	// Real Redis stores against miniredis
	lockStore := redisStorage.NewAccrualLockStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	ledgerCfg := config.LedgerConfig{
		ReferralBonusBps: 500, // 5%
		MinDeposit:       1000,
		MinWithdrawal:    1000,
	}
	accrualCfg := config.AccrualConfig{
		Enabled:  true,
		Interval: time.Hour,
		LockTTL:  5 * time.Minute,
	}

	log := logger.New("debug", false)
	authSvc := service.NewAuthService(userRepo, walletRepo, referralRepo, hashSvc, tokenSvc, transactor)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, referralRepo, encSvc, transactor, ledgerCfg, log)
	investmentSvc := service.NewInvestmentService(investmentRepo, planRepo, walletRepo, txRepo, lockStore, transactor, accrualCfg, log)
	reportingSvc := service.NewReportingService(walletRepo, txRepo, investmentRepo, referralRepo, userRepo)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		InvestmentSvc:  investmentSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:         server,
		redis:          mr,
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		investmentRepo: investmentRepo,
		referralRepo:   referralRepo,
		tokenSvc:       tokenSvc,
		planID:         planID,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// adminToken creates an admin user directly and returns a token for it.
func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	admin := &domain.User{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@example.com",
		ReferralCode: "ADMIN001",
		IsAdmin:      true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, a.userRepo.Create(context.Background(), nil, admin))
	token, _, err := a.tokenSvc.Generate(admin.ID, true)
	require.NoError(t, err)
	return token
}

func (a *testApp) post(t *testing.T, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(http.MethodPost, a.server.URL+path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func (a *testApp) get(t *testing.T, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	require.NoError(t, json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed))
	return resp, parsed
}

func (a *testApp) register(t *testing.T, username, email string, referralCode *string) string {
	t.Helper()
	body := map[string]interface{}{
		"username":     username,
		"email":        email,
		"password":     "StrongPass123!",
		"country":      "Vietnam",
		"country_code": "VN",
		"phone":        "+84123456789",
	}
	if referralCode != nil {
		body["referral_code"] = *referralCode
	}
	resp, parsed := a.post(t, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %v", parsed)
	data := parsed["data"].(map[string]interface{})
	return data["token"].(string)
}

// backdateInvestment shifts an investment's accrual cursor into the
// past so a sweep finds whole days outstanding.
func backdateInvestment(t *testing.T, app *testApp, invID string, by time.Duration) {
	t.Helper()
	id, err := uuid.Parse(invID)
	require.NoError(t, err)
	inv, err := app.investmentRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	inv.LastEarningDate = inv.LastEarningDate.Add(-by)
	inv.StartDate = inv.StartDate.Add(-by)
	require.NoError(t, app.investmentRepo.Update(context.Background(), nil, inv))
}

// fundWallet runs the deposit request + admin approval flow.
func (a *testApp) fundWallet(t *testing.T, userToken, adminTok string, amount int64) {
	t.Helper()
	resp, parsed := a.post(t, "/api/v1/wallet/deposit", userToken, map[string]interface{}{
		"amount": amount,
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "deposit response: %v", parsed)
	txID := parsed["data"].(map[string]interface{})["id"].(string)

	resp2, parsed2 := a.post(t, "/api/v1/admin/transactions/"+txID+"/approve", adminTok, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode, "approve response: %v", parsed2)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterLoginAndMe(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "alice@example.com", nil)

	resp, parsed := app.post(t, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := parsed["data"].(map[string]interface{})["token"].(string)

	resp2, me := app.get(t, "/api/v1/me", token)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	data := me["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.NotEmpty(t, data["referral_code"])
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice", "alice@example.com", nil)

	resp, _ := app.post(t, "/api/v1/auth/register", "", map[string]interface{}{
		"username":     "alice2",
		"email":        "alice@example.com",
		"password":     "StrongPass123!",
		"country":      "Vietnam",
		"country_code": "VN",
		"phone":        "+84123456789",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.post(t, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_JWT_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/wallet", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_AdminRoutesRejectNonAdmin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "alice", "alice@example.com", nil)

	resp, _ := app.get(t, "/api/v1/admin/stats", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIntegration_DepositApprovalCreditsBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)

	// Request deposit: escrowed, not spendable
	resp, parsed := app.post(t, "/api/v1/wallet/deposit", userToken, map[string]interface{}{
		"amount": int64(100000),
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txID := parsed["data"].(map[string]interface{})["id"].(string)

	_, wallet := app.get(t, "/api/v1/wallet", userToken)
	w := wallet["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(0), w["balance"])
	assert.Equal(t, float64(100000), w["pending_deposits"])

	// Approve
	resp2, _ := app.post(t, "/api/v1/admin/transactions/"+txID+"/approve", adminTok, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	_, wallet2 := app.get(t, "/api/v1/wallet", userToken)
	w2 := wallet2["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(100000), w2["balance"])
	assert.Equal(t, float64(0), w2["pending_deposits"])
	assert.Equal(t, float64(100000), w2["total_deposits"])

	// Second approve must fail
	resp3, _ := app.post(t, "/api/v1/admin/transactions/"+txID+"/approve", adminTok, nil)
	assert.Equal(t, http.StatusConflict, resp3.StatusCode)
}

func TestIntegration_WithdrawalRejectRefundsEscrow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	resp, parsed := app.post(t, "/api/v1/wallet/withdraw", userToken, map[string]interface{}{
		"amount": int64(40000),
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txID := parsed["data"].(map[string]interface{})["id"].(string)

	_, wallet := app.get(t, "/api/v1/wallet", userToken)
	w := wallet["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(60000), w["balance"])
	assert.Equal(t, float64(40000), w["pending_withdrawals"])

	resp2, _ := app.post(t, "/api/v1/admin/transactions/"+txID+"/reject", adminTok, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	_, wallet2 := app.get(t, "/api/v1/wallet", userToken)
	w2 := wallet2["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(100000), w2["balance"])
	assert.Equal(t, float64(0), w2["pending_withdrawals"])
	assert.Equal(t, float64(0), w2["total_withdrawals"])
}

func TestIntegration_ConcurrentWithdrawals_AtMostOneSucceeds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	// Two concurrent 60k withdrawals against a 100k balance.
	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _ := app.post(t, "/api/v1/wallet/withdraw", userToken, map[string]interface{}{
				"amount": int64(60000),
				"method": "BANK_TRANSFER",
			})
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	rejected := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusPaymentRequired:
			rejected++
		}
	}
	assert.Equal(t, 1, created, "exactly one withdrawal must win: %v", codes)
	assert.Equal(t, 1, rejected, "the other must fail on funds: %v", codes)

	_, wallet := app.get(t, "/api/v1/wallet", userToken)
	w := wallet["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(40000), w["balance"])
	assert.Equal(t, float64(60000), w["pending_withdrawals"])
}

func TestIntegration_InvestAndAccrue(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	// Withdraw 40k, approve it, then invest 50k at 2%/day.
	respW, parsedW := app.post(t, "/api/v1/wallet/withdraw", userToken, map[string]interface{}{
		"amount": int64(40000),
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, respW.StatusCode)
	wTxID := parsedW["data"].(map[string]interface{})["id"].(string)
	respWA, _ := app.post(t, "/api/v1/admin/transactions/"+wTxID+"/approve", adminTok, nil)
	require.Equal(t, http.StatusOK, respWA.StatusCode)

	respI, parsedI := app.post(t, "/api/v1/investments", userToken, map[string]interface{}{
		"plan_id": app.planID.String(),
		"amount":  int64(50000),
	})
	require.Equal(t, http.StatusCreated, respI.StatusCode, "invest response: %v", parsedI)
	invID, err := uuid.Parse(parsedI["data"].(map[string]interface{})["id"].(string))
	require.NoError(t, err)

	_, wallet := app.get(t, "/api/v1/wallet", userToken)
	w := wallet["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	require.Equal(t, float64(10000), w["balance"])

	// Backdate the accrual cursor so one whole day is outstanding.
	backdateInvestment(t, app, invID.String(), 25*time.Hour)

	// First sweep credits one day: 50000 * 2% = 1000.
	respA, parsedA := app.post(t, "/api/v1/admin/accrual/run", adminTok, nil)
	require.Equal(t, http.StatusOK, respA.StatusCode)
	report := parsedA["data"].(map[string]interface{})
	assert.Equal(t, float64(1), report["credited"])
	assert.Equal(t, float64(1000), report["total_paid"])

	_, wallet2 := app.get(t, "/api/v1/wallet", userToken)
	w2 := wallet2["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(11000), w2["balance"])
	assert.Equal(t, float64(1000), w2["total_earnings"])

	// Second sweep the same day is a no-op.
	respA2, parsedA2 := app.post(t, "/api/v1/admin/accrual/run", adminTok, nil)
	require.Equal(t, http.StatusOK, respA2.StatusCode)
	report2 := parsedA2["data"].(map[string]interface{})
	assert.Equal(t, float64(0), report2["credited"])
	assert.Equal(t, float64(0), report2["total_paid"])

	_, wallet3 := app.get(t, "/api/v1/wallet", userToken)
	w3 := wallet3["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(11000), w3["balance"])
}

func TestIntegration_ReferralBonusOnApprovedDeposit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	referrerToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)

	_, me := app.get(t, "/api/v1/me", referrerToken)
	code := me["data"].(map[string]interface{})["referral_code"].(string)

	referredToken := app.register(t, "bob", "bob@example.com", &code)
	app.fundWallet(t, referredToken, adminTok, 100000)

	// Referrer gets 5% of the approved deposit.
	_, wallet := app.get(t, "/api/v1/wallet", referrerToken)
	w := wallet["data"].(map[string]interface{})["wallet"].(map[string]interface{})
	assert.Equal(t, float64(5000), w["balance"])
	assert.Equal(t, float64(5000), w["total_earnings"])

	_, referrals := app.get(t, "/api/v1/referrals", referrerToken)
	rData := referrals["data"].(map[string]interface{})
	assert.Equal(t, float64(1), rData["total_active"])
	assert.Equal(t, float64(5000), rData["total_bonus"])
}

func TestIntegration_ListTransactions(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	resp, parsed := app.get(t, "/api/v1/transactions?page=1&page_size=10", userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "DEPOSIT", first["type"])
	assert.Equal(t, "COMPLETED", first["status"])
}

func TestIntegration_AdminStats(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	// One pending deposit on top of the approved one
	resp, _ := app.post(t, "/api/v1/wallet/deposit", userToken, map[string]interface{}{
		"amount": int64(20000),
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, parsed := app.get(t, "/api/v1/admin/stats", adminTok)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total_users"]) // alice + admin
	assert.Equal(t, float64(1), data["pending_deposits"])
	assert.Equal(t, float64(20000), data["pending_deposit_sum"])
}

func TestIntegration_PublicPlanList(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, parsed := app.get(t, "/api/v1/plans", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	plans := parsed["data"].([]interface{})
	require.Len(t, plans, 1)
	p := plans[0].(map[string]interface{})
	assert.Equal(t, "Growth", p["name"])
}

func TestAdminUserAndInvestmentLists(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := app.register(t, "alice", "alice@example.com", nil)
	adminTok := app.adminToken(t)
	app.fundWallet(t, userToken, adminTok, 100000)

	resp, _ := app.post(t, "/api/v1/investments", userToken, map[string]interface{}{
		"plan_id": app.planID.String(),
		"amount":  int64(50000),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Admin sees every registered user with their wallet attached.
	respU, parsedU := app.get(t, "/api/v1/admin/users", adminTok)
	require.Equal(t, http.StatusOK, respU.StatusCode)
	dataU := parsedU["data"].(map[string]interface{})
	assert.Equal(t, float64(2), dataU["total"], "admin and alice")

	var aliceBalance float64 = -1
	for _, it := range dataU["items"].([]interface{}) {
		item := it.(map[string]interface{})
		if item["user"].(map[string]interface{})["username"] == "alice" {
			aliceBalance = item["wallet"].(map[string]interface{})["balance"].(float64)
		}
	}
	assert.Equal(t, float64(50000), aliceBalance, "100000 funded minus 50000 invested")

	// Search narrows the list.
	_, parsedS := app.get(t, "/api/v1/admin/users?search=alice", adminTok)
	dataS := parsedS["data"].(map[string]interface{})
	assert.Equal(t, float64(1), dataS["total"])

	// Admin sees all investments platform-wide.
	respI, parsedI := app.get(t, "/api/v1/admin/investments?status=ACTIVE", adminTok)
	require.Equal(t, http.StatusOK, respI.StatusCode)
	dataI := parsedI["data"].(map[string]interface{})
	items := dataI["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(50000), items[0].(map[string]interface{})["amount"])

	// Both lists stay admin-only.
	respF, _ := app.get(t, "/api/v1/admin/users", userToken)
	assert.Equal(t, http.StatusForbidden, respF.StatusCode)
	respF2, _ := app.get(t, "/api/v1/admin/investments", userToken)
	assert.Equal(t, http.StatusForbidden, respF2.StatusCode)
}
