package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"transcripto-backend/internal/auth"
	"transcripto-backend/internal/database"
	"transcripto-backend/pkg/api"
)

func toApiUser(user database.Profile) api.User {
	return api.User{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

func (s *BackendService) Signup(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SignupRequest](r)
	if err != nil {
		return nil, err
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, CodedErrorf(http.StatusBadRequest, "password must be at least 8 characters")
	}

	ctx := r.Context()

	var existing database.Profile
	err = s.db.WithContext(ctx).First(&existing, "email = ?", req.Email).Error
	if err == nil {
		return nil, CodedErrorf(http.StatusConflict, "an account with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("error checking for existing user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	user := database.Profile{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		slog.Error("error creating user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	token, err := auth.CreateToken(s.jwtSecret, user.Id, user.Email, false, auth.UserTokenTTL)
	if err != nil {
		slog.Error("error creating token", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	slog.Info("user signed up", "user_id", user.Id)
	return api.AuthResponse{Token: token, User: toApiUser(user)}, nil
}

func (s *BackendService) login(r *http.Request, adminOnly bool) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user database.Profile
	err = s.db.WithContext(r.Context()).First(&user, "email = ?", req.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(req.Password, user.PasswordHash)) {
		return nil, CodedErrorf(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		slog.Error("error getting user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to log in")
	}

	ttl := auth.UserTokenTTL
	isAdmin := false
	if adminOnly {
		if !user.IsAdmin {
			return nil, CodedErrorf(http.StatusForbidden, "admin access required")
		}
		// Admin sessions carry the shorter expiry.
		ttl = auth.AdminTokenTTL
		isAdmin = true
	}

	token, err := auth.CreateToken(s.jwtSecret, user.Id, user.Email, isAdmin, ttl)
	if err != nil {
		slog.Error("error creating token", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to log in")
	}

	return api.AuthResponse{Token: token, User: toApiUser(user)}, nil
}

func (s *BackendService) Login(r *http.Request) (any, error) {
	return s.login(r, false)
}

func (s *BackendService) AdminLogin(r *http.Request) (any, error) {
	return s.login(r, true)
}

func (s *BackendService) currentUser(r *http.Request) (database.Profile, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return database.Profile{}, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	var user database.Profile
	if err := s.db.WithContext(r.Context()).First(&user, "id = ?", claims.UserId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.Profile{}, CodedErrorf(http.StatusUnauthorized, "account no longer exists")
		}
		slog.Error("error getting user", "error", err)
		return database.Profile{}, CodedErrorf(http.StatusInternalServerError, "error retrieving account")
	}
	return user, nil
}

func (s *BackendService) GetUser(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}
	return toApiUser(user), nil
}

func (s *BackendService) UpdateUser(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdateUserRequest](r)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, CodedErrorf(http.StatusBadRequest, "password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			slog.Error("error hashing password", "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to update account")
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return toApiUser(user), nil
	}

	if err := s.db.WithContext(r.Context()).Model(&user).Updates(updates).Error; err != nil {
		slog.Error("error updating user", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update account")
	}

	return toApiUser(user), nil
}
