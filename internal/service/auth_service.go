package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-service/internal/hashing"
	"delivery-service/internal/model"
	"delivery-service/internal/token"
	"delivery-service/internal/util"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService handles registration, login and user listing. Passwords are
// argon2id hashed with the current pepper; logins exchange credentials for
// an HS256 token carrying the user's role.
type AuthService struct {
	userRepo model.UserRepository
	hasher   *hashing.Hasher
	tokens   *token.Manager
	locks    *KeyedLocks
}

func NewAuthService(userRepo model.UserRepository, hasher *hashing.Hasher, tokens *token.Manager, locks *KeyedLocks) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		locks:    locks,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	s.locks.Lock(email)
	defer s.locks.Unlock(email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		UserID:        uuid.New().String(),
		Name:          strings.TrimSpace(name),
		Email:         email,
		Role:          role,
		PasswordHash:  hashed.Hash,
		PasswordSalt:  hashed.Salt,
		PepperVersion: hashed.PepperVersion,
		CreatedAt:     time.Now().UnixMilli(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	util.Info("User registered",
		zap.String("user_id", user.UserID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Login verifies the credentials and returns a signed token. Unknown email
// and wrong password both come back as NotFound so the response does not
// leak which one was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if user == nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}

	ok, err := s.hasher.VerifyPassword(password, &hashing.HashResult{
		Hash:          user.PasswordHash,
		Salt:          user.PasswordSalt,
		PepperVersion: user.PepperVersion,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}

	signed, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	util.Info("User logged in", zap.String("user_id", user.UserID))
	return signed, user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}

// VerifyToken exposes token validation for the auth middleware.
func (s *AuthService) VerifyToken(tokenString string) (*token.Claims, error) {
	return s.tokens.Verify(tokenString)
}
