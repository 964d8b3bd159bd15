package authclient

import (
	"context"
	"errors"
	"sync"

	"mindmosaic-backend/internal/models"
)

var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// SessionWriter is the part of a session the form writes on success.
type SessionWriter interface {
	Login(ctx context.Context, token, username string) error
}

// Form is the shared login/registration form. While a submission is in flight
// the mode toggle and further submissions are refused.
type Form struct {
	mu         sync.Mutex
	backend    Backend
	register   bool
	submitting bool
	err        string
}

func NewForm(backend Backend) *Form {
	return &Form{backend: backend}
}

// Toggle switches between login and registration.
func (f *Form) Toggle() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return ErrSubmissionInFlight
	}
	f.register = !f.register
	f.err = ""
	return nil
}

// Submit posts the credentials for the current mode. On success the session is
// logged in and onSuccess fires; on failure the error string is kept for
// display and the session is untouched.
func (f *Form) Submit(ctx context.Context, req models.AuthSubmitRequest, sess SessionWriter, onSuccess func()) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	f.submitting = true
	f.err = ""
	register := f.register
	f.mu.Unlock()

	var (
		resp *models.AuthResponse
		err  error
	)
	if register {
		resp, err = f.backend.Register(ctx, req.Email, req.Password, req.Username)
	} else {
		resp, err = f.backend.Login(ctx, req.Email, req.Password)
	}
	if err == nil {
		err = sess.Login(ctx, resp.Token, resp.Username)
	}

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			f.err = authErr.Message
		} else {
			f.err = fallbackMessage
		}
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

func (f *Form) Mode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.register {
		return "register"
	}
	return "login"
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Form) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
