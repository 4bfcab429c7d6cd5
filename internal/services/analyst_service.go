package services

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sentinelops/triage/internal/auth"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// AnalystService implements analyst.Service
type AnalystService struct {
	repo   analyst.Repository
	cfg    config.AuthConfig
	logger *logger.Logger
}

// NewAnalystService creates a new analyst service
func NewAnalystService(repo analyst.Repository, cfg config.AuthConfig, log *logger.Logger) *AnalystService {
	return &AnalystService{repo: repo, cfg: cfg, logger: log}
}

func (s *AnalystService) Register(ctx context.Context, email, name, password, role string) (*analyst.Analyst, error) {
	if role != analyst.RoleAnalyst && role != analyst.RoleAdmin {
		return nil, errors.BadRequest("role must be analyst or admin")
	}
	if len(password) < 8 {
		return nil, errors.BadRequest("password must be at least 8 characters")
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, errors.Conflict("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password", err)
	}

	a := &analyst.Analyst{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"analyst_id": a.ID,
		"role":       role,
	}).Info("Analyst registered")
	return a, nil
}

func (s *AnalystService) Login(ctx context.Context, email, password string) (string, *analyst.Analyst, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, errors.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", nil, errors.Unauthorized("invalid email or password")
	}

	token, err := auth.MintToken(a.ID, a.Email, a.Role, s.cfg.JWTSecret, s.cfg.AccessTokenExpiry)
	if err != nil {
		return "", nil, errors.Internal("failed to sign token", err)
	}
	return token, a, nil
}

func (s *AnalystService) GetByID(ctx context.Context, id int64) (*analyst.Analyst, error) {
	return s.repo.GetByID(ctx, id)
}
