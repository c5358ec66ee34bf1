package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/asowa/marketplace/internal/entities"
)

var (
	ErrFullnameRequired   = errors.New("full name is required")
	ErrEmailInvalid       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// maxEmailLength is the RFC 5321 path limit.
const maxEmailLength = 254

// AccountStore is the credential store as seen by the auth service.
type AccountStore interface {
	Create(ctx context.Context, fullname, email, passwordHash string, role entities.Role) (*entities.Account, error)
	FindByEmail(ctx context.Context, email string) (*entities.Account, error)
	FindByID(ctx context.Context, id uint) (*entities.Account, error)
}

// RegistrationInput is the user-supplied part of a new account.
type RegistrationInput struct {
	Fullname string
	Email    string
	Password string
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	Account *entities.Account
	Token   string
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration is the single validation step for new accounts. It
// returns the normalized input.
func ValidateRegistration(in RegistrationInput) (RegistrationInput, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = NormalizeEmail(in.Email)

	if in.Fullname == "" {
		return in, ErrFullnameRequired
	}
	if len(in.Email) > maxEmailLength {
		return in, ErrEmailInvalid
	}
	at := strings.Index(in.Email, "@")
	if at <= 0 || at == len(in.Email)-1 {
		return in, ErrEmailInvalid
	}
	if in.Password == "" {
		return in, ErrPasswordRequired
	}
	if len(in.Password) > MaxPasswordBytes {
		return in, ErrPasswordTooLong
	}
	return in, nil
}

// IsValidationError reports whether err came from ValidateRegistration.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrFullnameRequired) ||
		errors.Is(err, ErrEmailInvalid) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, entities.ErrInvalidRole)
}

// Service orchestrates registration and login.
type Service struct {
	accounts AccountStore
	hasher   *PasswordHasher
	tokens   *TokenManager
	verify   func(password, hash string) bool

	// dummyHash is compared against when no stored hash applies so every
	// login failure costs one bcrypt comparison.
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(accounts AccountStore, hasher *PasswordHasher, tokens *TokenManager) (*Service, error) {
	dummyHash, err := hasher.Hash("asowa-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		verify:    hasher.Verify,
		dummyHash: dummyHash,
	}, nil
}

// CreateAccount validates, hashes and stores a new account with the given role.
func (s *Service) CreateAccount(ctx context.Context, in RegistrationInput, role entities.Role) (*entities.Account, error) {
	in, err := ValidateRegistration(in)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidRole, role)
	}

	_, err = s.accounts.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, entities.ErrDuplicateEmail
	case !errors.Is(err, entities.ErrAccountNotFound):
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// A concurrent registration may win between the check above and this
	// insert; the store reports that as ErrDuplicateEmail too.
	account, err := s.accounts.Create(ctx, in.Fullname, in.Email, hash, role)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Register creates a user-role account and issues its first token.
func (s *Service) Register(ctx context.Context, in RegistrationInput) (*AuthResult, error) {
	account, err := s.CreateAccount(ctx, in, entities.RoleUser)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Account: account, Token: token}, nil
}

// Login checks credentials and issues a fresh token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrAccountNotFound) {
			s.verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !s.verify(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Account: account, Token: token}, nil
}
