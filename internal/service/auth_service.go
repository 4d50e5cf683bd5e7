package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"
	"invest-platform/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo     ports.UserRepository
	walletRepo   ports.WalletRepository
	referralRepo ports.ReferralRepository
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	transactor   ports.DBTransactor
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	referralRepo ports.ReferralRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	transactor ports.DBTransactor,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		walletRepo:   walletRepo,
		referralRepo: referralRepo,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		transactor:   transactor,
	}
}

// Register creates a new user with an empty wallet. If a referral code
// is supplied it must resolve to an existing user; the referral row is
// created PENDING and activates on the first approved deposit.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResult, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	existing, err = s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	var referrer *domain.User
	if req.ReferralCode != nil && *req.ReferralCode != "" {
		referrer, err = s.userRepo.GetByReferralCode(ctx, *req.ReferralCode)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("resolve referral code: %w", err))
		}
		if referrer == nil {
			return nil, apperror.ErrInvalidReferralCode()
		}
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	referralCode, err := generateReferralCode()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate referral code: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Country:      req.Country,
		CountryCode:  req.CountryCode,
		Phone:        req.Phone,
		ReferralCode: referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if referrer != nil {
		referral := &domain.Referral{
			ID:             uuid.New(),
			ReferrerID:     referrer.ID,
			ReferredUserID: user.ID,
			Status:         domain.ReferralStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.referralRepo.Create(ctx, dbTx, referral); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create referral: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID, user.IsAdmin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return &ports.AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Login validates credentials and returns the user with a fresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID, user.IsAdmin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return &ports.AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetProfile returns the user for an authenticated ID.
func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateReferralCode produces an 8-character shareable code.
// The alphabet omits easily confused characters (0/O, 1/I).
func generateReferralCode() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	for i, b := range bytes {
		bytes[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(bytes), nil
}
