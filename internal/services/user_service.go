package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"crm-backend/internal/auth"
	"crm-backend/internal/cache"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	Repo *repositories.UserRepository
	JWT  *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwt *auth.JWTManager) *UserService {
	return &UserService{Repo: repo, JWT: jwt}
}

// Signup registers the first account of a company as admin and returns a
// ready-to-use token.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if req.CompanyID <= 0 {
		return nil, fmt.Errorf("%w: companyId is required", ErrValidation)
	}
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		CompanyID:    req.CompanyID,
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Login authenticates by email and password. Accounts with 2FA enabled get
// a short-lived pending token that must be exchanged at the TOTP verify
// endpoint; all others get a full session token.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(req.Email)

	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	// bcrypt is the expensive part of login, skip it on a cache hit
	if cachedID, ok := cache.GetCachedAuth(ctx, email, req.Password); !ok || cachedID != user.ID {
		if !auth.VerifyPassword(user.PasswordHash, req.Password) {
			return nil, ErrInvalidCredentials
		}
		cache.CacheAuth(ctx, email, req.Password, user.ID)
	}

	if user.TOTPEnabled {
		tempToken, err := s.JWT.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{Token: tempToken, TOTPRequired: true}, nil
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) GetUser(ctx context.Context, companyID, id int) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, companyID int) ([]*models.User, error) {
	return s.Repo.List(ctx, companyID)
}

// CreateUser lets an admin add an employee account to their company
func (s *UserService) CreateUser(ctx context.Context, companyID int, req *models.CreateUserRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	role := req.Role
	if role == "" {
		role = "employee"
	}
	if role != "admin" && role != "employee" {
		return nil, fmt.Errorf("%w: role must be admin or employee", ErrValidation)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		CompanyID:    companyID,
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, companyID int, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, companyID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" {
		if req.Role != "admin" && req.Role != "employee" {
			return nil, fmt.Errorf("%w: role must be admin or employee", ErrValidation)
		}
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		log.Printf("[User] password changed for user %d", user.ID)
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
