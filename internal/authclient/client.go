// Package authclient submits the login/registration form to the auth backend
// and records a successful result in the visitor's session.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"mindmosaic-backend/internal/models"
)

const fallbackMessage = "Authentication failed"

// AuthError is a rejected login or registration. Message is shown to the user.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string { return e.Message }

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.post(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, email, password, username string) (*models.AuthResponse, error) {
	return c.post(ctx, "/auth/register", models.RegisterRequest{Email: email, Password: password, Username: username})
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*models.AuthResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &AuthError{Message: fallbackMessage}
	}
	defer resp.Body.Close()

	var data struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Message  string `json:"message"`
		Error    string `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := data.Message
		if msg == "" {
			msg = data.Error
		}
		if msg == "" {
			msg = fallbackMessage
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil || data.Token == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: fallbackMessage}
	}

	return &models.AuthResponse{Token: data.Token, Username: data.Username}, nil
}
