// Package guard protects views behind a login check. A visitor who is not
// logged in still sees the view, blurred under an auth modal that cannot be
// dismissed, and cannot act on it.
package guard

import (
	"encoding/json"
	"net/http"
)

const OverlayHeader = "X-Auth-Overlay"

// Checker reports whether the current visitor is logged in.
type Checker interface {
	LoggedIn() bool
}

// Resolver finds the Checker for a request.
type Resolver func(r *http.Request) (Checker, error)

type Overlay struct {
	Blurred     bool `json:"blurred"`
	AuthModal   bool `json:"auth_modal"`
	Dismissible bool `json:"dismissible"`
}

// OverlayFor returns nil when no overlay is needed.
func OverlayFor(c Checker) *Overlay {
	if c != nil && c.LoggedIn() {
		return nil
	}
	return &Overlay{Blurred: true, AuthModal: true, Dismissible: false}
}

func (o *Overlay) String() string {
	return "blur; modal=auth; dismissible=false"
}

// Close is the modal's close action. It never hides the overlay.
func (o *Overlay) Close() {}

// View wraps a protected handler. Logged-in visitors reach it directly.
func View(resolve Resolver, protected http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checker, err := resolve(r)
		if err != nil {
			writeAuthRequired(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load session")
			return
		}

		overlay := OverlayFor(checker)
		if overlay == nil {
			protected.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			w.Header().Set(OverlayHeader, overlay.String())
			protected.ServeHTTP(w, r)
			return
		}

		writeAuthRequired(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", "Please log in to continue")
	})
}

// Middleware is View in chi's r.Use form.
func Middleware(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return View(resolve, next)
	}
}

func writeAuthRequired(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":       code,
		"message":    message,
		"request_id": r.Header.Get("X-Request-ID"),
		"overlay":    OverlayFor(nil),
	})
}
