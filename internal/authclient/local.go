package authclient

import (
	"context"
	"errors"
	"log"
	"net/http"

	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/services"
)

// Backend is where the form sends credentials: the HTTP Client for an external
// auth service, or Local when the auth service runs in this process.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, email, password, username string) (*models.AuthResponse, error)
}

type accountService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
}

// Local calls the auth service directly. Rejections come back as *AuthError
// with the same messages the HTTP endpoints would send.
type Local struct {
	svc accountService
}

func NewLocal(svc accountService) *Local {
	return &Local{svc: svc}
}

func (l *Local) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	resp, err := l.svc.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, toAuthError(err)
	}
	return resp, nil
}

func (l *Local) Register(ctx context.Context, email, password, username string) (*models.AuthResponse, error) {
	resp, err := l.svc.Register(ctx, models.RegisterRequest{Email: email, Password: password, Username: username})
	if err != nil {
		return nil, toAuthError(err)
	}
	return resp, nil
}

func toAuthError(err error) error {
	var (
		validation   *services.ValidationError
		conflict     *services.ConflictError
		unauthorized *services.UnauthorizedError
	)
	switch {
	case errors.As(err, &validation):
		return &AuthError{StatusCode: http.StatusBadRequest, Message: "Validation failed"}
	case errors.As(err, &conflict):
		return &AuthError{StatusCode: http.StatusConflict, Message: conflict.Message}
	case errors.As(err, &unauthorized):
		return &AuthError{StatusCode: http.StatusUnauthorized, Message: unauthorized.Message}
	}
	log.Printf("[auth] credential check failed: %v", err)
	return &AuthError{StatusCode: http.StatusInternalServerError, Message: fallbackMessage}
}
