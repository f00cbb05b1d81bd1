package repository

import (
	"errors"
	"testing"

	"linkcraft/internal/model"
)

func Test_UserRepository_GetByUsername_MissingUserIsNil(t *testing.T) {
	t.Parallel()
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.GetByUsername("nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("want nil for missing user, got %+v", user)
	}
}

func Test_UserRepository_DebitCredit_StopsAtZero(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := &model.User{Username: "maya", Email: "maya@example.com", PasswordHash: "x", Credits: 1}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := repo.DebitCredit(user.ID); err != nil {
		t.Fatalf("first debit should succeed: %v", err)
	}
	if err := repo.DebitCredit(user.ID); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("second debit must fail with ErrInsufficientCredits, got %v", err)
	}

	reloaded, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Credits != 0 {
		t.Errorf("balance must never go negative, got %d", reloaded.Credits)
	}
}

func Test_UserRepository_DebitCredit_UnknownUser(t *testing.T) {
	t.Parallel()
	repo := NewUserRepository(newTestDB(t))

	if err := repo.DebitCredit(999); !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("debit of unknown user should report insufficient credits, got %v", err)
	}
}
