package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"golang.org/x/time/rate"

	"proof/internal/apperrors"
	"proof/internal/models"
	"proof/internal/repositories"
	"proof/internal/security"
)

const (
	parentLockSecretKey = "parent-lock-password"
	minPasswordLength   = 4
)

type ParentLockService interface {
	Startup(ctx context.Context)
	Get(ctx context.Context) (*models.ParentLock, error)
	// Set stores a new password (when given) and engages the lock. It is
	// denied while locked, and replacing a password needs the current one.
	Set(ctx context.Context, args models.SetParentLockArgs) error
	Unlock(ctx context.Context, password string) (bool, error)
	Check(ctx context.Context) (bool, error)
	// Verify checks password without changing the lock state.
	Verify(ctx context.Context, password string) (bool, error)
}

type parentLockService struct {
	repo    repositories.ParentLockRepository
	secrets *KeyringService
	limiter *rate.Limiter
	log     logger.Logger
	mu      sync.Mutex
	ctx     context.Context
}

// NewParentLockService allows unlockRate password attempts per minute with
// the given burst.
func NewParentLockService(repo repositories.ParentLockRepository, secrets *KeyringService, unlockRate float64, burst int, log logger.Logger) ParentLockService {
	if burst < 1 {
		burst = 1
	}
	return &parentLockService{
		repo:    repo,
		secrets: secrets,
		limiter: rate.NewLimiter(rate.Limit(unlockRate/60), burst),
		log:     log,
	}
}

func (s *parentLockService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// Get never exposes the password hash.
func (s *parentLockService) Get(ctx context.Context) (*models.ParentLock, error) {
	lock, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	lock.PasswordHash = ""
	return lock, nil
}

func (s *parentLockService) Set(ctx context.Context, args models.SetParentLockArgs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if lock.IsLocked {
		return apperrors.PermissionDenied("the parental lock is already engaged")
	}
	switch {
	case args.Password == "" && !lock.HasPassword:
		return apperrors.Validation("a password is required to enable the parental lock")
	case args.Password != "" && len([]rune(args.Password)) < minPasswordLength:
		return apperrors.Validation("password must be at least %d characters", minPasswordLength)
	}

	if args.Password != "" && lock.HasPassword {
		ok, err := s.verify(args.CurrentPassword)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.PermissionDenied("current password is incorrect")
		}
	}

	if args.Password != "" {
		hash, err := security.HashPassword(args.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := s.secrets.StoreSecret(parentLockSecretKey, []byte(hash)); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
		lock.HasPassword = true
	}
	lock.LockMessage = strings.TrimSpace(args.LockMessage)
	if lock.LockMessage == "" {
		lock.LockMessage = models.DefaultLockMessage
	}
	lock.IsLocked = true
	lock.PasswordHash = ""
	if err := s.repo.Save(ctx, lock); err != nil {
		return err
	}
	s.info("parental lock engaged")
	return nil
}

func (s *parentLockService) Unlock(ctx context.Context, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	if !lock.IsLocked {
		return true, nil
	}
	ok, err := s.verify(password)
	if err != nil || !ok {
		return false, err
	}
	lock.IsLocked = false
	if err := s.repo.Save(ctx, lock); err != nil {
		return false, err
	}
	s.info("parental lock released")
	return true, nil
}

func (s *parentLockService) Check(ctx context.Context) (bool, error) {
	lock, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return lock.IsLocked, nil
}

func (s *parentLockService) Verify(ctx context.Context, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verify(password)
}

func (s *parentLockService) verify(password string) (bool, error) {
	if !s.limiter.Allow() {
		return false, apperrors.PermissionDenied("too many attempts, try again later")
	}
	hash, err := s.secrets.GetSecret(parentLockSecretKey)
	if errors.Is(err, ErrSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read password: %w", err)
	}
	ok, err := security.VerifyPassword(password, hash)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	if !ok && s.log != nil {
		s.log.Warning("parental lock: wrong password")
	}
	return ok, nil
}

func (s *parentLockService) info(msg string) {
	if s.log != nil {
		s.log.Info(msg)
	}
}
