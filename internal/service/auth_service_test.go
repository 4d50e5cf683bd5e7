package service

import (
	"context"
	"testing"
	"time"

	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"
	"invest-platform/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc          *AuthServiceImpl
	userRepo     *mocks.MockUserRepository
	walletRepo   *mocks.MockWalletRepository
	referralRepo *mocks.MockReferralRepository
	hashSvc      *mocks.MockHashService
	tokenSvc     *mocks.MockTokenService
	transactor   *mocks.MockDBTransactor
	ctrl         *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:     mocks.NewMockUserRepository(ctrl),
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		referralRepo: mocks.NewMockReferralRepository(ctrl),
		hashSvc:      mocks.NewMockHashService(ctrl),
		tokenSvc:     mocks.NewMockTokenService(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewAuthService(
		d.userRepo, d.walletRepo, d.referralRepo,
		d.hashSvc, d.tokenSvc, d.transactor,
	)
	return d
}

func registerReq() ports.RegisterRequest {
	return ports.RegisterRequest{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "S3cretPass!",
		Country:     "Germany",
		CountryCode: "DE",
		Phone:       "+4915112345678",
	}
}

// ==================== Register Tests ====================

func TestAuthService_Register_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	expiry := time.Now().Add(24 * time.Hour)

	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(nil, nil)
	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("S3cretPass!").Return("$argon2id$hash", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, u *domain.User) error {
			assert.Equal(t, "alice", u.Username)
			assert.Equal(t, "$argon2id$hash", u.PasswordHash)
			assert.Len(t, u.ReferralCode, 8)
			assert.Nil(t, u.ReferredBy)
			assert.False(t, u.IsAdmin)
			return nil
		})
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
			assert.Equal(t, int64(0), w.Balance)
			return nil
		})
	d.tokenSvc.EXPECT().Generate(gomock.Any(), false).Return("token123", expiry, nil)

	result, err := d.svc.Register(ctx, registerReq())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "token123", result.Token)
	assert.Equal(t, expiry, result.ExpiresAt)
	assert.Equal(t, "alice", result.User.Username)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(&domain.User{ID: uuid.New()}, nil)

	result, err := d.svc.Register(ctx, registerReq())
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

func TestAuthService_Register_UsernameExists(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(nil, nil)
	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(&domain.User{ID: uuid.New()}, nil)

	result, err := d.svc.Register(ctx, registerReq())
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

func TestAuthService_Register_WithReferralCode(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	referrerID := uuid.New()
	code := "FRIEND42"

	req := registerReq()
	req.ReferralCode = &code

	d.userRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	d.userRepo.EXPECT().GetByReferralCode(ctx, code).Return(&domain.User{
		ID:           referrerID,
		ReferralCode: code,
	}, nil)
	d.hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hash", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, u *domain.User) error {
			require.NotNil(t, u.ReferredBy)
			assert.Equal(t, referrerID, *u.ReferredBy)
			return nil
		})
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.referralRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, r *domain.Referral) error {
			assert.Equal(t, referrerID, r.ReferrerID)
			assert.Equal(t, domain.ReferralStatusPending, r.Status)
			assert.Equal(t, int64(0), r.BonusEarned)
			return nil
		})
	d.tokenSvc.EXPECT().Generate(gomock.Any(), false).Return("token123", time.Now(), nil)

	result, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result.User.ReferredBy)
}

func TestAuthService_Register_InvalidReferralCode(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	code := "NOSUCH01"

	req := registerReq()
	req.ReferralCode = &code

	d.userRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	d.userRepo.EXPECT().GetByReferralCode(ctx, code).Return(nil, nil)

	result, err := d.svc.Register(ctx, req)
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_003")
}

// ==================== Login Tests ====================

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	expiry := time.Now().Add(24 * time.Hour)

	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(&domain.User{
		ID:           userID,
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$hash",
		IsAdmin:      true,
	}, nil)
	d.hashSvc.EXPECT().Verify("S3cretPass!", "$argon2id$hash").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(userID, true).Return("token456", expiry, nil)

	result, err := d.svc.Login(ctx, "alice@example.com", "S3cretPass!")
	require.NoError(t, err)
	assert.Equal(t, "token456", result.Token)
	assert.Equal(t, userID, result.User.ID)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	result, err := d.svc.Login(ctx, "ghost@example.com", "whatever")
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(&domain.User{
		ID:           uuid.New(),
		PasswordHash: "$argon2id$hash",
	}, nil)
	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$hash").Return(false, nil)

	result, err := d.svc.Login(ctx, "alice@example.com", "wrong")
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_001")
}

// ==================== GetProfile Tests ====================

func TestAuthService_GetProfile_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(&domain.User{
		ID:       userID,
		Username: "alice",
	}, nil)

	user, err := d.svc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthService_GetProfile_NotFound(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(nil, nil)

	user, err := d.svc.GetProfile(ctx, userID)
	assert.Nil(t, user)
	assertAppError(t, err, "LDG_002")
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := generateReferralCode()
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, c := range code {
		assert.Contains(t, referralCodeAlphabet, string(c))
	}
}
