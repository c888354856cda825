package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktracker/backend/internal/model"
	"github.com/tasktracker/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Account details"
// @Success 201 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.UserResponse{User: user})
}

// Login godoc
// @Summary Login
// @Description Sets accessToken and refreshToken cookies; tokens are also returned in the body.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email or username, and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, model.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.AccessExpiresIn,
	})
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Uses the refreshToken cookie, or the refreshToken body field when the cookie is absent.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest false "Refresh token for non-cookie clients"
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := CookieToken(refreshCookieName)(c)
	if !ok && c.Request.ContentLength != 0 {
		var req model.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, bindError(err))
			return
		}
		token = req.RefreshToken
	}

	user, pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, model.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.AccessExpiresIn,
	})
}

// Logout godoc
// @Summary Logout
// @Description Clears the stored refresh token and both token cookies.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AuthLogoutResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.svc.Logout(c.Request.Context(), GetAuthUser(c))
	h.clearTokenCookies(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

// ChangePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), GetAuthUser(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "password_changed"})
}

// Me godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrMissingToken)
		return
	}
	c.JSON(http.StatusOK, model.UserResponse{User: user})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair *service.TokenPair) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(accessCookieName, pair.AccessToken, cfg.AccessMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
	c.SetCookie(refreshCookieName, pair.RefreshToken, cfg.RefreshMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(accessCookieName, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
	c.SetCookie(refreshCookieName, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}
