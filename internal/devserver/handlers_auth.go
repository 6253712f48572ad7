package devserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/devserver/auth"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User *User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	u, err := s.store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.fail(w, r, http.StatusConflict, "email already registered")
			return
		}
		s.log.Error(r.Context(), "register", logging.Err(err))
		s.fail(w, r, http.StatusInternalServerError, "could not register")
		return
	}

	s.log.Info(r.Context(), "user registered", "user_id", u.ID)
	s.reply(w, r, http.StatusCreated, userResponse{User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	u, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.fail(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := s.issueSession(w, u.ID); err != nil {
		s.log.Error(r.Context(), "issue session", logging.Err(err))
		s.fail(w, r, http.StatusInternalServerError, "could not log in")
		return
	}

	s.reply(w, r, http.StatusOK, userResponse{User: u})
}

// handleRefresh rotates the refresh token and issues a new access token.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		s.fail(w, r, http.StatusUnauthorized, "missing refresh token")
		return
	}

	now := s.now()
	claims, err := auth.ParseToken(c.Value, auth.KindRefresh, s.secret, now)
	if err != nil {
		s.fail(w, r, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		return
	}

	userID, err := s.store.ConsumeRefresh(claims.ID, now)
	if err != nil {
		s.log.Info(r.Context(), "refresh rejected", "user_id", claims.UserID, logging.Err(err))
		s.fail(w, r, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		return
	}

	if err := s.issueSession(w, userID); err != nil {
		s.log.Error(r.Context(), "issue session", logging.Err(err))
		s.fail(w, r, http.StatusInternalServerError, "could not refresh")
		return
	}

	s.reply(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogout revokes the presented refresh token, if any, and clears
// both cookies. It never fails.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil {
		claims, err := auth.ParseToken(c.Value, auth.KindRefresh, s.secret, s.now())
		if err == nil {
			s.store.RevokeRefresh(claims.ID)
		}
	}

	clearCookie(w, AccessCookie)
	clearCookie(w, RefreshCookie)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.UserByID(userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, "user not found")
		return
	}
	s.reply(w, r, http.StatusOK, u)
}

func (s *Server) issueSession(w http.ResponseWriter, userID string) error {
	now := s.now()

	access, _, err := auth.GenerateToken(userID, auth.KindAccess, s.secret, now, s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return err
	}
	refresh, jti, err := auth.GenerateToken(userID, auth.KindRefresh, s.secret, now, s.cfg.RefreshTokenValidityDuration)
	if err != nil {
		return err
	}
	s.store.SaveRefresh(jti, userID, now.Add(s.cfg.RefreshTokenValidityDuration))

	setCookie(w, AccessCookie, access)
	setCookie(w, RefreshCookie, refresh)
	return nil
}

// Cookies carry no expiry: the tokens inside them decide validity, so an
// expired access token still reaches the server and earns a 401.
func setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
