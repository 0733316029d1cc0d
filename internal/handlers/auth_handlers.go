package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finbook/papertrade/internal/auth"
	"github.com/finbook/papertrade/internal/models"
	"github.com/finbook/papertrade/internal/money"
	"github.com/finbook/papertrade/internal/store"
)

// setSession issues a token for the account and attaches it as a cookie.
func (s *Server) setSession(c *gin.Context, accountID int) (string, error) {
	token, err := s.sessions.Issue(accountID)
	if err != nil {
		return "", err
	}
	c.SetCookie(sessionCookie, token, int(s.cfg.SessionTTL.Seconds()), "/", "", false, true)
	return token, nil
}

// RegisterInfo handles GET /register. With a username query parameter it
// reports availability, which the registration form polls.
func (s *Server) RegisterInfo(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	_, err := s.store.UserByUsername(c.Request.Context(), username)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		c.JSON(http.StatusOK, gin.H{"available": true})
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"available": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// Register handles POST /register: create the account and log it in.
func (s *Server) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := auth.ValidateRegistration(req.Username, req.Password, req.Confirmation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Username, hash, money.FromFloat(s.cfg.StartingCash))
	if errors.Is(err, store.ErrUsernameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := s.setSession(c, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish session"})
		return
	}

	s.log.Info().Str("username", user.Username).Int("id", user.ID).Msg("account registered")
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"cash":     user.Cash,
		"token":    token,
	})
}

// SessionProbe handles GET /login: reports whether the request carries a
// valid session.
func (s *Server) SessionProbe(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	id, err := s.sessions.Verify(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	user, err := s.store.UserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": user.Username})
}

// Login handles POST /login.
func (s *Server) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Username == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Must provide username"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Must provide password"})
		return
	}

	user, err := s.store.UserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrUserNotFound) || (err == nil && !auth.CheckPassword(user.Hash, req.Password)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid username and/or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	token, err := s.setSession(c, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"cash":     user.Cash,
		"token":    token,
	})
}

// Logout handles GET /logout: the session cookie is cleared.
func (s *Server) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
