package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"healthline/internal/domain"
	"healthline/internal/repository"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func initRepos(t *testing.T, db *sql.DB) (repository.UserRepository, repository.RecordRepository) {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(db)
	records := NewRecordRepository(db)
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := records.Init(ctx); err != nil {
		t.Fatalf("init records: %v", err)
	}
	return users, records
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	users, _ := initRepos(t, openTestDB(t, "userrepo"))
	ctx := context.Background()

	u := &domain.User{Email: "alice@example.com", PasswordHash: "hash", Role: domain.RoleDoctor}
	id, err := users.Create(ctx, u)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 || u.ID != id {
		t.Fatalf("unexpected id: %d %+v", id, u)
	}

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != id || byEmail.Role != domain.RoleDoctor || byEmail.PasswordHash != "hash" {
		t.Fatalf("get by email mismatch: %+v", byEmail)
	}

	byID, err := users.GetByID(ctx, id)
	if err != nil || byID.Email != "alice@example.com" {
		t.Fatalf("get by id: %v %+v", err, byID)
	}
	if byID.CreatedAt.IsZero() {
		t.Fatalf("created_at not populated")
	}
}

func TestUserRepository_DefaultRole(t *testing.T) {
	users, _ := initRepos(t, openTestDB(t, "userrepo_role"))
	ctx := context.Background()

	u := &domain.User{Email: "p@example.com", PasswordHash: "hash"}
	if _, err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != domain.RolePatient {
		t.Fatalf("expected patient role, got %q", got.Role)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	users, _ := initRepos(t, openTestDB(t, "userrepo_dup"))
	ctx := context.Background()

	if _, err := users.Create(ctx, &domain.User{Email: "dup@example.com", PasswordHash: "a"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := users.Create(ctx, &domain.User{Email: "dup@example.com", PasswordHash: "b"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	users, _ := initRepos(t, openTestDB(t, "userrepo_missing"))
	if _, err := users.GetByEmail(context.Background(), "nouser@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := users.GetByID(context.Background(), 42); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordRepository_ListOrderingAndOwnership(t *testing.T) {
	users, records := initRepos(t, openTestDB(t, "recordrepo"))
	ctx := context.Background()

	p1 := &domain.User{Email: "p1@example.com", PasswordHash: "h"}
	p2 := &domain.User{Email: "p2@example.com", PasswordHash: "h"}
	for _, u := range []*domain.User{p1, p2} {
		if _, err := users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	inputs := []domain.PatientRecord{
		{OwnerUserID: p1.ID, Name: "Jane", Symptoms: "flu"},
		{OwnerUserID: p2.ID, Name: "Bob", Phone: "555-0100", Symptoms: "cough"},
		{OwnerUserID: p1.ID, Name: "Jane", Symptoms: "headache"},
	}
	for i := range inputs {
		if _, err := records.Create(ctx, &inputs[i]); err != nil {
			t.Fatalf("create record %d: %v", i, err)
		}
	}

	all, err := records.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].ID != inputs[2].ID || all[2].ID != inputs[0].ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	own, err := records.ListByOwner(ctx, p1.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(own) != 2 || own[0].Symptoms != "headache" || own[1].Symptoms != "flu" {
		t.Fatalf("unexpected owner records: %+v", own)
	}
	for _, rec := range own {
		if rec.OwnerUserID != p1.ID {
			t.Fatalf("record %d owned by %d", rec.ID, rec.OwnerUserID)
		}
	}

	got, err := records.Get(ctx, inputs[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phone != "555-0100" || got.Name != "Bob" {
		t.Fatalf("get mismatch: %+v", got)
	}
}

func TestRecordRepository_EmptyListIsNotNil(t *testing.T) {
	_, records := initRepos(t, openTestDB(t, "recordrepo_empty"))
	all, err := records.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}

func TestRecordRepository_MissingOwner(t *testing.T) {
	_, records := initRepos(t, openTestDB(t, "recordrepo_fk"))
	_, err := records.Create(context.Background(), &domain.PatientRecord{OwnerUserID: 999, Name: "X", Symptoms: "Y"})
	if !errors.Is(err, repository.ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference, got %v", err)
	}
}

func TestRecordRepository_Delete(t *testing.T) {
	users, records := initRepos(t, openTestDB(t, "recordrepo_delete"))
	ctx := context.Background()

	u := &domain.User{Email: "d@example.com", PasswordHash: "h"}
	if _, err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	rec := &domain.PatientRecord{OwnerUserID: u.ID, Name: "Jane", Symptoms: "flu"}
	if _, err := records.Create(ctx, rec); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if err := records.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := records.Get(ctx, rec.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := records.Delete(ctx, rec.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestInit_UpgradesLegacySchema(t *testing.T) {
	db := openTestDB(t, "legacy")
	ctx := context.Background()

	legacy := []string{
		`CREATE TABLE patients (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, phone TEXT, symptoms TEXT)`,
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT UNIQUE, password TEXT)`,
		`INSERT INTO users (email, password) VALUES ('old@example.com', '$2b$10$legacyhash')`,
		`INSERT INTO users (email, password) VALUES (' Alice@Example.com', '$2b$10$alicehash')`,
		`INSERT INTO patients (name, phone, symptoms) VALUES ('Legacy', NULL, 'fever')`,
	}
	for _, stmt := range legacy {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed legacy schema: %v", err)
		}
	}

	users, records := initRepos(t, db)

	u, err := users.GetByEmail(ctx, "old@example.com")
	if err != nil {
		t.Fatalf("get legacy user: %v", err)
	}
	if u.PasswordHash != "$2b$10$legacyhash" || u.Role != domain.RolePatient {
		t.Fatalf("legacy user not upgraded: %+v", u)
	}

	alice, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("mixed-case legacy user not found: %v", err)
	}
	if alice.Email != "alice@example.com" || alice.PasswordHash != "$2b$10$alicehash" {
		t.Fatalf("legacy email not normalized: %+v", alice)
	}
	_, err = users.Create(ctx, &domain.User{Email: "alice@example.com", PasswordHash: "x"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate for re-registered legacy email, got %v", err)
	}

	all, err := records.List(ctx)
	if err != nil {
		t.Fatalf("list legacy records: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Legacy" || all[0].Phone != "" || all[0].OwnerUserID != 0 {
		t.Fatalf("unexpected legacy records: %+v", all)
	}

	// running Init twice must be a no-op
	initRepos(t, db)
}

func TestInit_RejectsCaseCollidingLegacyEmails(t *testing.T) {
	db := openTestDB(t, "legacy_collision")
	ctx := context.Background()

	legacy := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT UNIQUE, password TEXT)`,
		`INSERT INTO users (email, password) VALUES ('Bob@Example.com', 'h1')`,
		`INSERT INTO users (email, password) VALUES ('bob@example.com', 'h2')`,
	}
	for _, stmt := range legacy {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed legacy schema: %v", err)
		}
	}

	err := NewUserRepository(db).Init(ctx)
	if err == nil || !strings.Contains(err.Error(), "1 addresses") {
		t.Fatalf("expected collision error, got %v", err)
	}
}

func TestCreateUser_CaseInsensitiveUnique(t *testing.T) {
	db := openTestDB(t, "email_case")
	users, _ := initRepos(t, db)
	ctx := context.Background()

	if _, err := users.Create(ctx, &domain.User{Email: "carol@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create(ctx, &domain.User{Email: "Carol@Example.com", PasswordHash: "h"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate across case, got %v", err)
	}
	if u, err := users.GetByEmail(ctx, "CAROL@example.com"); err != nil || u.Email != "carol@example.com" {
		t.Fatalf("case-insensitive lookup: %+v %v", u, err)
	}
}
