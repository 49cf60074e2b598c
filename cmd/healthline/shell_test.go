package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"healthline/internal/client"
	"healthline/internal/domain"
	"healthline/internal/session"
)

type fakeAPI struct {
	created []client.NewPatient
	deleted []int64
	chatErr error
}

func (f *fakeAPI) Register(ctx context.Context, email, password, role string) (int64, error) {
	return 3, nil
}

func (f *fakeAPI) Login(ctx context.Context, s session.State, email, password string) (session.State, error) {
	if password != "right" {
		return s, &client.APIError{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return s.Login(session.User{ID: 1, Email: email, Role: domain.RoleDoctor}, "tok"), nil
}

func (f *fakeAPI) Me(ctx context.Context, s session.State) (session.User, error) {
	u, _ := s.User()
	return u, nil
}

func (f *fakeAPI) ListPatients(ctx context.Context, s session.State) ([]client.Patient, error) {
	return []client.Patient{{ID: 2, UserID: 5, Name: "Jane", Symptoms: "flu"}}, nil
}

func (f *fakeAPI) CreatePatient(ctx context.Context, s session.State, in client.NewPatient) (client.Patient, error) {
	f.created = append(f.created, in)
	return client.Patient{ID: 9, UserID: in.UserID, Name: in.Name}, nil
}

func (f *fakeAPI) GetPatient(ctx context.Context, s session.State, id int64) (client.Patient, error) {
	return client.Patient{ID: id, Name: "Jane", Phone: "555", Symptoms: "flu"}, nil
}

func (f *fakeAPI) DeletePatient(ctx context.Context, s session.State, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Chat(ctx context.Context, message string) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "ok: " + message, nil
}

func (f *fakeAPI) Export(ctx context.Context, s session.State) (client.Export, error) {
	return client.Export{Count: 1, Location: "s3://b/k"}, nil
}

func (f *fakeAPI) ListExports(ctx context.Context, s session.State) ([]client.ExportObject, error) {
	return nil, nil
}

func TestShellSessionFlow(t *testing.T) {
	api := &fakeAPI{}
	var out bytes.Buffer
	sh := newShell(api, strings.NewReader(""), &out)
	ctx := context.Background()

	if err := sh.Exec(ctx, "patients"); err == nil || !strings.Contains(err.Error(), "log in") {
		t.Fatalf("expected login prompt, got %v", err)
	}
	if err := sh.Exec(ctx, "login doc@example.com wrong"); err == nil {
		t.Fatalf("expected login failure")
	}
	if sh.state.Authenticated() {
		t.Fatalf("failed login must not change the session")
	}

	if err := sh.Exec(ctx, "login doc@example.com right"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := sh.Exec(ctx, "register x@example.com pw"); err == nil {
		t.Fatalf("register should redirect while signed in")
	}

	if err := sh.Exec(ctx, `add "Jane Doe" "sore throat" --phone 555 --for 5`); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(api.created) != 1 || api.created[0].Name != "Jane Doe" || api.created[0].Symptoms != "sore throat" ||
		api.created[0].Phone != "555" || api.created[0].UserID != 5 {
		t.Fatalf("unexpected create input %+v", api.created)
	}

	out.Reset()
	if err := sh.Exec(ctx, "show 2"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), `qr:       {"id":2,"name":"Jane","phone":"555","symptoms":"flu"}`) {
		t.Fatalf("missing qr payload in %q", out.String())
	}

	if err := sh.Exec(ctx, "delete abc"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if err := sh.Exec(ctx, "delete 2"); err != nil || len(api.deleted) != 1 {
		t.Fatalf("delete: %v %v", err, api.deleted)
	}

	if err := sh.Exec(ctx, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := sh.Exec(ctx, "chat hello"); err == nil {
		t.Fatalf("chat should require login after logout")
	}
}

func TestShellChatFallback(t *testing.T) {
	api := &fakeAPI{chatErr: &client.APIError{Status: 500, Message: "AI service unavailable", Reply: "try later"}}
	var out bytes.Buffer
	sh := newShell(api, strings.NewReader(""), &out)
	sh.state = sh.state.Login(session.User{ID: 1, Role: domain.RolePatient}, "t")

	if err := sh.Exec(context.Background(), "chat I feel dizzy"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out.String(), "assistant: try later") {
		t.Fatalf("expected fallback reply, got %q", out.String())
	}

	api.chatErr = errors.New("connection refused")
	if err := sh.Exec(context.Background(), "chat hi"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestShellRunLoop(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(&fakeAPI{}, strings.NewReader("login a@b.c right\npatients\nexit\npatients\n"), &out)
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "#2  Jane  flu  (owner 5)") {
		t.Fatalf("missing listing in %q", got)
	}
	if strings.Count(got, "#2  Jane") != 1 {
		t.Fatalf("commands after exit should not run: %q", got)
	}
}

func TestShellQuoting(t *testing.T) {
	api := &fakeAPI{}
	sh := newShell(api, strings.NewReader(""), &bytes.Buffer{})
	sh.state = sh.state.Login(session.User{ID: 1, Role: domain.RoleDoctor}, "t")
	ctx := context.Background()

	if err := sh.Exec(ctx, `add "Mary O'Brien" 'chest pain' --phone 555\ 0101`); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := api.created[0]
	if got.Name != "Mary O'Brien" || got.Symptoms != "chest pain" || got.Phone != "555 0101" {
		t.Fatalf("unexpected parse %+v", got)
	}

	if err := sh.Exec(ctx, `add "open`); err == nil {
		t.Fatalf("expected unterminated quote error")
	}
	if len(api.created) != 1 {
		t.Fatalf("malformed line must not create a record")
	}
}
