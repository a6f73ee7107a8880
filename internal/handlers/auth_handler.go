package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/middleware"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/services"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

// RegisterUser is the public sign-up endpoint.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req models.RegisterInput
	if err := bind(c, &req); err != nil {
		utils.Fail(c, err)
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	// `json:"-"` on User.Password keeps the hash out of the response
	utils.Success(c, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginInput
	if err := bind(c, &req); err != nil {
		utils.Fail(c, err)
		return
	}

	pair, err := h.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	utils.Success(c, http.StatusOK, "User logged in successfully", pair)
}

// RefreshToken accepts the refresh token from the body or, failing that,
// from its cookie.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req models.RefreshInput
	if c.Request.ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			utils.Fail(c, err)
			return
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(middleware.RefreshCookie)
	}

	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	utils.Success(c, http.StatusOK, "Access token refreshed", pair)
}

func (h *Handler) Logout(c *gin.Context) {
	err := h.Auth.Logout(c.Request.Context(), middleware.CallerFrom(c), middleware.ClaimsFrom(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.clearTokenCookies(c)
	utils.Success(c, http.StatusOK, "User logged out successfully", nil)
}

// GetCurrentUser returns the profile of the authenticated caller.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Current user fetched successfully", user)
}

func (h *Handler) setTokenCookies(c *gin.Context, pair *services.TokenPair) {
	signer := h.Tokens.Signer()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, int(signer.AccessTTL().Seconds()), "/", "", h.CookieSecure, true)
	c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, int(signer.RefreshTTL().Seconds()), "/", "", h.CookieSecure, true)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", h.CookieSecure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", h.CookieSecure, true)
}
