package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asowa/marketplace/internal/entities"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name    string
		input   RegistrationInput
		wantErr error
	}{
		{"valid", RegistrationInput{"Ada", "ada@example.com", "secret123"}, nil},
		{"missing fullname", RegistrationInput{"  ", "ada@example.com", "secret123"}, ErrFullnameRequired},
		{"email without separator", RegistrationInput{"Ada", "ada.example.com", "secret123"}, ErrEmailInvalid},
		{"email without local part", RegistrationInput{"Ada", "@example.com", "secret123"}, ErrEmailInvalid},
		{"email without domain", RegistrationInput{"Ada", "ada@", "secret123"}, ErrEmailInvalid},
		{"empty email", RegistrationInput{"Ada", "", "secret123"}, ErrEmailInvalid},
		{"email too long", RegistrationInput{"Ada", strings.Repeat("a", 250) + "@x.io", "secret123"}, ErrEmailInvalid},
		{"missing password", RegistrationInput{"Ada", "ada@example.com", ""}, ErrPasswordRequired},
		{"password too long", RegistrationInput{"Ada", "ada@example.com", strings.Repeat("p", 73)}, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRegistration(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidateRegistration_Normalizes(t *testing.T) {
	in, err := ValidateRegistration(RegistrationInput{
		Fullname: "  Ada Lovelace ",
		Email:    "  Ada@Example.COM ",
		Password: " secret123 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", in.Fullname)
	assert.Equal(t, "ada@example.com", in.Email)
	assert.Equal(t, " secret123 ", in.Password, "passwords are never trimmed")
}

func TestService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.service.Register(ctx, RegistrationInput{"Ada", "ada@example.com", "secret123"})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleUser, result.Account.Role)
	assert.NotEqual(t, "secret123", result.Account.PasswordHash)
	assert.NotEmpty(t, result.Account.PasswordHash)

	claims, err := env.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, claims.AccountID)
	assert.Equal(t, entities.RoleUser, claims.Role)
}

func TestService_Register_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Register(ctx, RegistrationInput{"Ada", "ada@example.com", "secret123"})
	require.NoError(t, err)

	_, err = env.service.Register(ctx, RegistrationInput{"Ada Again", "ADA@example.com", "other-pass"})
	assert.ErrorIs(t, err, entities.ErrDuplicateEmail)
}

func TestService_CreateAccount_Admin(t *testing.T) {
	env := newTestEnv(t)

	account, err := env.service.CreateAccount(context.Background(),
		RegistrationInput{"Grace", "grace@example.com", "admin-pass"}, entities.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, account.Role)

	_, err = env.service.CreateAccount(context.Background(),
		RegistrationInput{"Mallory", "m@example.com", "pass"}, entities.Role("owner"))
	assert.ErrorIs(t, err, entities.ErrInvalidRole)
}

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.service.Register(ctx, RegistrationInput{"Ada", "ada@example.com", "secret123"})
	require.NoError(t, err)

	result, err := env.service.Login(ctx, " ADA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, result.Account.ID)

	claims, err := env.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, claims.AccountID)
}

func TestService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Register(ctx, RegistrationInput{"Ada", "ada@example.com", "secret123"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", "secret124"},
		{"unknown email", "nobody@example.com", "secret123"},
		{"empty email", "", "secret123"},
		{"empty password", "ada@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comparisons := 0
			env.service.verify = func(password, hash string) bool {
				comparisons++
				return env.hasher.Verify(password, hash)
			}

			_, err := env.service.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, 1, comparisons, "every failure path runs one bcrypt comparison")
		})
	}
}
