package emerald

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is what the client re-renders its role gating from.
type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          Role   `json:"role,omitempty"`
}

func (a *App) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return jsonError(c, http.StatusBadRequest, "email is required")
	}
	if len(req.Password) < minPasswordLen {
		return jsonError(c, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if _, err := a.Store.GetUserByEmail(email); err == nil {
		return jsonError(c, http.StatusConflict, "an account with this email already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.Store.SaveUser(u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	if err := setUserSession(c, u); err != nil {
		return err
	}
	a.Sessions.Publish(&Session{Email: u.Email, UserID: u.ID, Name: u.Name})
	return c.JSON(http.StatusCreated, a.sessionFor(u))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := a.Store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.loginLimiter.Record(c.RealIP())
			return jsonError(c, http.StatusUnauthorized, "invalid email or password")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		a.loginLimiter.Record(c.RealIP())
		return jsonError(c, http.StatusUnauthorized, "invalid email or password")
	}

	if err := setUserSession(c, u); err != nil {
		return err
	}
	a.Sessions.Publish(&Session{Email: u.Email, UserID: u.ID, Name: u.Name})
	return c.JSON(http.StatusOK, a.sessionFor(u))
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	a.Sessions.Publish(nil)
	return c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
}

// handleSession reports the current actor so the client can gate privileged
// UI without a round trip per action.
func (a *App) handleSession(c echo.Context) error {
	actor := a.currentActor(c)
	if !actor.Authenticated {
		return c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         actor.Email,
		Name:          actor.Name,
		Role:          actor.Role,
	})
}

func (a *App) sessionFor(u User) sessionResponse {
	return sessionResponse{
		Authenticated: true,
		Email:         u.Email,
		Name:          u.Name,
		Role:          ResolveRole(u.Email, a.Config.AdminEmail),
	}
}
