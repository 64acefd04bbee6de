package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/rs/zerolog"       // structured logging

    "github.com/iliyamo/user-auth-service/internal/model"   // user profile
    "github.com/iliyamo/user-auth-service/internal/service" // signup and login rules
)

// dbTimeout bounds the store work behind a single request.
const dbTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the signup and login endpoints.
type AuthHandler struct {
	Auth *service.AuthService
	Log  zerolog.Logger
}

func NewAuthHandler(a *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type emailReq struct {
	Email string `json:"email"`
}

type loginResp struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Signup: validate the form and create the user.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	_, err := h.Auth.Register(ctx, service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, "Registration successful")
}

// Login: verify credentials and return the public profile.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{Success: true, Message: "Login successful", User: u})
}

// CheckEmail: existence probe used by the signup form.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	exists, err := h.Auth.EmailExists(ctx, req.Email)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": exists})
}
