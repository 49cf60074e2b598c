package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"healthline/internal/domain"
	"healthline/internal/repository"
	"healthline/internal/repository/sqlite"
)

type testEnv struct {
	users    UserService
	records  RecordService
	userRepo repository.UserRepository
	recRepo  repository.RecordRepository
}

func newTestEnv(t *testing.T, name string) testEnv {
	t.Helper()
	db, err := sqlite.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	recRepo := sqlite.NewRecordRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := recRepo.Init(ctx); err != nil {
		t.Fatalf("init records: %v", err)
	}

	return testEnv{
		users:    &userService{users: userRepo, cost: bcrypt.MinCost},
		records:  NewRecordService(recRepo),
		userRepo: userRepo,
		recRepo:  recRepo,
	}
}

func mustRegister(t *testing.T, svc UserService, email, role string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), email, "s3cret-pass", role)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}
