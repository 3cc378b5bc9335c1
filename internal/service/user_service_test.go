package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

func newTestUserService() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{users: make(map[string]domain.User)}
	return NewUserService(zap.NewNop(), repo), repo
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:       "  Ana@Example.com ",
		DisplayName: "Ana",
		Password:    "super-secreta",
	})
	if err != nil {
		t.Fatalf("Register fallo: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email %q, esperaba normalizado", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "super-secreta" {
		t.Fatal("esperaba password hasheada")
	}

	got, err := svc.Authenticate(ctx, "ana@example.com", "super-secreta")
	if err != nil {
		t.Fatalf("Authenticate fallo: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("autentico al usuario %q, esperaba %q", got.ID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	cases := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{name: "email vacio", input: RegisterInput{Password: "super-secreta"}, wantErr: ErrInvalidEmail},
		{name: "email sin arroba", input: RegisterInput{Email: "ana.example.com", Password: "super-secreta"}, wantErr: ErrInvalidEmail},
		{name: "password corta", input: RegisterInput{Email: "ana@example.com", Password: "corta"}, wantErr: ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); !errors.Is(err, tc.wantErr) {
				t.Fatalf("esperaba %v, obtuve %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "super-secreta"}); err != nil {
		t.Fatalf("Register fallo: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "otra-clave"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperaba ErrInvalidCredentials, obtuve %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nadie@example.com", "super-secreta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperaba ErrInvalidCredentials, obtuve %v", err)
	}
}

func TestGetByIDUnknownUser(t *testing.T) {
	svc, _ := newTestUserService()

	if _, err := svc.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("esperaba ErrUserNotFound, obtuve %v", err)
	}
}
