package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_Hash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "secret123",
			wantErr:  nil,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrPasswordRequired,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if hash == "" {
				t.Error("Hash() returned empty hash for valid password")
			}
			if hash == tt.password {
				t.Error("Hash() returned the plaintext")
			}
		})
	}
}

func TestPasswordHasher_Verify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !hasher.Verify("secret123", hash) {
		t.Error("Verify() = false for the original password")
	}
	if hasher.Verify("secret124", hash) {
		t.Error("Verify() = true for a different password")
	}
	if hasher.Verify("", hash) {
		t.Error("Verify() = true for an empty password")
	}
	if hasher.Verify("secret123", "not-a-bcrypt-hash") {
		t.Error("Verify() = true against a malformed hash")
	}
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatal(err)
	}
	second, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	tests := []struct {
		cost int
		want int
	}{
		{cost: 0, want: bcrypt.DefaultCost},
		{cost: 3, want: bcrypt.DefaultCost},
		{cost: 4, want: 4},
		{cost: 12, want: 12},
		{cost: 32, want: bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		if got := NewPasswordHasher(tt.cost).Cost(); got != tt.want {
			t.Errorf("NewPasswordHasher(%d).Cost() = %d, want %d", tt.cost, got, tt.want)
		}
	}
}
