package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/user-auth-service/internal/metrics"
	"github.com/iliyamo/user-auth-service/internal/model"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
)

// RegisterInput is the signup form.
type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// AuthService validates signup and login input and delegates to the
// credential store. It keeps no state of its own.
type AuthService struct {
	Users  *repository.UserRepo
	Events queue.Publisher
	Log    zerolog.Logger
	Now    Clock
}

func NewAuthService(users *repository.UserRepo, events queue.Publisher, log zerolog.Logger) *AuthService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AuthService{Users: users, Events: events, Log: log}
}

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (uint64, error) {
	id, err := s.register(ctx, in)
	metrics.RecordSignup(err == nil)
	return id, err
}

func (s *AuthService) register(ctx context.Context, in RegisterInput) (uint64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = repository.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return 0, validation("All fields are required")
	}
	if !validEmail(in.Email) {
		return 0, validation("Invalid email address")
	}
	if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
		return 0, err
	}

	id, err := s.Users.Create(ctx, in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.Log.Info().Str("email", in.Email).Msg("signup rejected: email already registered")
			return 0, ErrEmailExists
		}
		s.Log.Error().Err(err).Str("email", in.Email).Msg("signup failed")
		return 0, storeError(err)
	}

	s.Log.Info().Str("email", in.Email).Uint64("user_id", id).Msg("signup successful")
	publish(ctx, s.Events, s.Log, queue.AuthEvent{
		Type: queue.EventUserRegistered, Email: in.Email, UserID: id, OccurredAt: s.Now.now(),
	})
	return id, nil
}

// Login returns the user's profile when the credentials match.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.login(ctx, email, password)
	metrics.RecordLogin(err == nil)
	return u, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (model.User, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, validation("Email and password are required")
	}

	u, err := s.Users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			s.Log.Info().Str("email", email).Msg("login failed")
			return model.User{}, ErrInvalidCredentials
		}
		s.Log.Error().Err(err).Str("email", email).Msg("login query failed")
		return model.User{}, storeError(err)
	}
	s.Log.Info().Str("email", email).Uint64("user_id", u.ID).Msg("login successful")
	return u, nil
}

// EmailExists reports whether email is registered.
func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return false, validation("Email is required")
	}
	ok, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return false, storeError(err)
	}
	return ok, nil
}
