package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sentinelops/triage/internal/auth"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/testutil"
)

func newAnalystFixture() (*AnalystService, *testutil.MockAnalystRepository) {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	repo := testutil.NewMockAnalystRepository()
	cfg := config.AuthConfig{
		JWTSecret:         "test-secret",
		AccessTokenExpiry: time.Hour,
		BCryptCost:        bcrypt.MinCost,
	}
	return NewAnalystService(repo, cfg, log), repo
}

func TestAnalystService_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		role     string
		password string
		wantErr  bool
	}{
		{"analyst role", "ana@example.com", analyst.RoleAnalyst, "correct-horse", false},
		{"admin role", "adm@example.com", analyst.RoleAdmin, "correct-horse", false},
		{"unknown role", "bad@example.com", "superuser", "correct-horse", true},
		{"short password", "short@example.com", analyst.RoleAnalyst, "hunter2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newAnalystFixture()
			a, err := service.Register(context.Background(), tt.email, "Test Analyst", tt.password, tt.role)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if a.ID == 0 {
				t.Error("Register() returned zero ID")
			}
			if a.PasswordHash == tt.password {
				t.Error("password stored in the clear")
			}
		})
	}
}

func TestAnalystService_RegisterDuplicateEmail(t *testing.T) {
	service, _ := newAnalystFixture()
	ctx := context.Background()

	if _, err := service.Register(ctx, "ana@example.com", "Ana", "correct-horse", analyst.RoleAnalyst); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := service.Register(ctx, "ana@example.com", "Imposter", "other-password", analyst.RoleAnalyst); err == nil {
		t.Fatal("Register() should reject a duplicate email")
	}
}

func TestAnalystService_Login(t *testing.T) {
	service, _ := newAnalystFixture()
	ctx := context.Background()

	registered, err := service.Register(ctx, "ana@example.com", "Ana", "correct-horse", analyst.RoleAdmin)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, a, err := service.Login(ctx, "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if a.ID != registered.ID {
		t.Errorf("Login() analyst ID = %d, want %d", a.ID, registered.ID)
	}

	claims, err := auth.ParseClaims(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.AnalystID != registered.ID || claims.Role != analyst.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAnalystService_LoginFailures(t *testing.T) {
	service, _ := newAnalystFixture()
	ctx := context.Background()
	_, _ = service.Register(ctx, "ana@example.com", "Ana", "correct-horse", analyst.RoleAnalyst)

	if _, _, err := service.Login(ctx, "ana@example.com", "wrong-password"); err == nil {
		t.Error("Login() accepted a wrong password")
	}
	if _, _, err := service.Login(ctx, "ghost@example.com", "correct-horse"); err == nil {
		t.Error("Login() accepted an unknown email")
	}
}
