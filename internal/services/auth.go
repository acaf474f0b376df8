package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/config"
	"github.com/campusnav/apiserver/internal/metrics"
	"github.com/campusnav/apiserver/internal/store"
	"github.com/campusnav/apiserver/types"
)

// AccountRepository defines persistence operations the credential
// verifier needs. Lockout transitions are single atomic updates.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	ClearLock(ctx context.Context, id string, now time.Time) (types.Account, error)
	RecordFailure(ctx context.Context, id string, maxAttempts int, lockUntil, now time.Time) (types.Account, bool, error)
	RecordSuccess(ctx context.Context, id string, now time.Time) (types.Account, error)
}

// AuthService registers accounts and verifies credentials with lockout.
type AuthService struct {
	repo        AccountRepository
	hasher      PasswordHasher
	maxAttempts int
	lockTime    time.Duration
	events      *AccountEvents
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(repo AccountRepository, cfg config.AuthConfig, events *AccountEvents, log zerolog.Logger) *AuthService {
	maxAttempts := cfg.MaxLoginAttempts
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	lockTime := cfg.LockTime
	if lockTime <= 0 {
		lockTime = 15 * time.Minute
	}
	return &AuthService{
		repo:        repo,
		hasher:      NewPasswordHasher(cfg.HashCost),
		maxAttempts: maxAttempts,
		lockTime:    lockTime,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

// Verify checks email and password and returns the account on success.
//
// A lock whose expiry has passed is cleared before the password is
// checked. A wrong password counts one attempt; the attempt that reaches
// the limit locks the account and is reported as *LockedError. A correct
// password on an unverified account returns ErrAccountUnverified without
// touching the counter.
func (s *AuthService) Verify(ctx context.Context, email, password string) (types.Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return types.Account{}, invalidRequest("email and password are required")
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, ErrAuthenticationFailed
		}
		return types.Account{}, storeError(err)
	}

	now := s.now()
	if account.AccountLocked {
		if account.LockedAt(now) {
			return types.Account{}, &LockedError{Until: *account.LockUntil}
		}
		account, err = s.repo.ClearLock(ctx, account.ID, now)
		if err != nil {
			return types.Account{}, storeError(err)
		}
		s.log.Info().Str("account_id", account.ID).Msg("expired lock cleared")
	}

	if !s.hasher.Matches(account.PasswordHash, password) {
		return types.Account{}, s.recordFailure(ctx, account, now)
	}

	if !account.IsVerified {
		return types.Account{}, ErrAccountUnverified
	}

	account, err = s.repo.RecordSuccess(ctx, account.ID, now)
	if err != nil {
		return types.Account{}, storeError(err)
	}
	return account, nil
}

func (s *AuthService) recordFailure(ctx context.Context, account types.Account, now time.Time) error {
	lockUntil := now.Add(s.lockTime)
	updated, locked, err := s.repo.RecordFailure(ctx, account.ID, s.maxAttempts, lockUntil, now)
	if err != nil {
		return storeError(err)
	}
	if !updated.LockedAt(now) {
		return ErrAuthenticationFailed
	}

	if locked {
		metrics.RecordAccountLock()
		s.log.Warn().
			Str("account_id", updated.ID).
			Int("attempts", updated.LoginAttempts).
			Time("lock_until", lockUntil).
			Msg("account locked")
		s.events.Publish(ctx, AccountEvent{
			Type:      EventAccountLocked,
			AccountID: updated.ID,
			Email:     updated.Email,
			At:        now,
			LockUntil: &lockUntil,
		})
	}
	return &LockedError{Until: *updated.LockUntil}
}

// RegisterInput carries the registration form. IsVerified and
// HasCompletedTutorial default to true and false when nil.
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	StudentNumber        string
	Year                 string
	Qualification        string
	Department           string
	UserType             string
	IsVerified           *bool
	HasCompletedTutorial *bool
}

func (in RegisterInput) missingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"password", in.Password},
		{"studentNumber", in.StudentNumber},
		{"year", in.Year},
		{"qualification", in.Qualification},
		{"department", in.Department},
		{"userType", in.UserType},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Register creates an account with counters zeroed and no lock.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.Account, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return types.Account{}, invalidRequest("missing required fields: " + strings.Join(missing, ", "))
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return types.Account{}, err
	}

	email := NormalizeEmail(in.Email)
	studentNumber := strings.TrimSpace(in.StudentNumber)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.Account{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Account{}, storeError(err)
	}
	if _, err := s.repo.GetByStudentNumber(ctx, studentNumber); err == nil {
		return types.Account{}, ErrDuplicateIdentifier
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Account{}, storeError(err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.Account{}, err
	}

	now := s.now()
	account := types.Account{
		Name:                 strings.TrimSpace(in.Name),
		Email:                email,
		PasswordHash:         hashed,
		StudentNumber:        studentNumber,
		Year:                 strings.TrimSpace(in.Year),
		Qualification:        strings.TrimSpace(in.Qualification),
		Department:           strings.TrimSpace(in.Department),
		UserType:             strings.TrimSpace(in.UserType),
		IsVerified:           true,
		HasCompletedTutorial: false,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if in.IsVerified != nil {
		account.IsVerified = *in.IsVerified
	}
	if in.HasCompletedTutorial != nil {
		account.HasCompletedTutorial = *in.HasCompletedTutorial
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Account{}, s.duplicateKind(ctx, email)
		}
		return types.Account{}, storeError(err)
	}

	s.events.Publish(ctx, AccountEvent{
		Type:      EventAccountRegistered,
		AccountID: created.ID,
		Email:     created.Email,
		At:        now,
	})
	return created, nil
}

// Me returns the account behind an authenticated subject.
func (s *AuthService) Me(ctx context.Context, id string) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Account{}, storeError(err)
	}
	return account, nil
}

// duplicateKind decides which unique field a concurrent insert collided on.
func (s *AuthService) duplicateKind(ctx context.Context, email string) error {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	}
	return ErrDuplicateIdentifier
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
