package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/user-auth-service/internal/service"
)

// ResetHandler serves the password reset endpoints.
type ResetHandler struct {
	Reset        *service.ResetService
	ResetURLBase string
	Log          zerolog.Logger
}

func NewResetHandler(r *service.ResetService, resetURLBase string, log zerolog.Logger) *ResetHandler {
	return &ResetHandler{Reset: r, ResetURLBase: resetURLBase, Log: log}
}

type tokenReq struct {
	Token string `json:"token"`
}
type resetReq struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type sendLinkResp struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	ResetURL string `json:"reset_url"`
}
type validateResp struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Email   *string `json:"email"`
}

// SendResetLink issues a token. Email delivery is not wired, so the token
// and the link are returned to the caller.
func (h *ResetHandler) SendResetLink(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	issued, err := h.Reset.RequestReset(ctx, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotFound) {
			return fail(c, http.StatusBadRequest, service.MessageOf(err))
		}
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, sendLinkResp{
		Success:  true,
		Message:  "Password reset link sent successfully",
		Token:    issued.Token,
		ResetURL: h.resetURL(issued.Token, issued.Email),
	})
}

// ValidateToken reports whether a token can still be spent. Token problems
// are answered with 200 and success=false.
func (h *ResetHandler) ValidateToken(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	if req.Token == "" {
		return fail(c, http.StatusBadRequest, "Token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	status, email, err := h.Reset.Validate(ctx, req.Token)
	if err != nil {
		return failErr(c, err)
	}
	resp := validateResp{Success: status == service.TokenValid, Message: status.Message()}
	if resp.Success {
		resp.Email = &email
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPassword spends a token on a new password.
func (h *ResetHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Reset.ResetPassword(ctx, req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		if service.KindOf(err) == service.KindUnauthorized {
			return fail(c, http.StatusBadRequest, service.MessageOf(err))
		}
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, "Password reset successfully")
}

func (h *ResetHandler) resetURL(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return h.ResetURLBase + "?" + q.Encode()
}
