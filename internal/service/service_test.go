package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuthEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type env struct {
	db     *sql.DB
	auth   *AuthService
	reset  *ResetService
	clock  *fakeClock
	events *recordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.DriverSQLite))

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	events := &recordingPublisher{}
	users := repository.NewUserRepo(db, utils.SHA256Hasher{})

	auth := NewAuthService(users, events, zerolog.Nop())
	auth.Now = clock.Now
	reset := NewResetService(db, users, repository.NewTokenRepo(db), events, zerolog.Nop())
	reset.Now = clock.Now

	return &env{db: db, auth: auth, reset: reset, clock: clock, events: events}
}

func (e *env) register(t *testing.T, email, password string) uint64 {
	t.Helper()
	id, err := e.auth.Register(context.Background(), RegisterInput{
		Name: "Test User", Email: email, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	return id
}

func (e *env) tokenCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM password_reset_tokens").Scan(&n))
	return n
}

func TestAliceScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, issued.Token, 43)
	assert.Equal(t, e.clock.Now().Add(time.Hour), issued.ExpiresAt)

	status, email, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status)
	assert.Equal(t, "alice@example.com", email)

	require.NoError(t, e.reset.Consume(ctx, issued.Token, "newpass1"))

	u, err := e.auth.Login(ctx, "alice@example.com", "newpass1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	_, err = e.auth.Login(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = e.reset.Consume(ctx, issued.Token, "again12")
	assert.ErrorIs(t, err, ErrTokenUsed)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = e.auth.Login(ctx, "alice@example.com", "newpass1")
	assert.NoError(t, err, "failed consume must not change the password")

	assert.Equal(t, []string{
		queue.EventUserRegistered,
		queue.EventPasswordResetRequested,
		queue.EventPasswordResetCompleted,
	}, e.events.types())
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	e := newEnv(t)

	_, err := e.reset.RequestReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrEmailNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Zero(t, e.tokenCount(t))
}

func TestRequestReset_EmptyEmail(t *testing.T) {
	e := newEnv(t)
	_, err := e.reset.RequestReset(context.Background(), "   ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRequestReset_NormalizesEmail(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(context.Background(), "  ALICE@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", issued.Email)
}

func TestValidate_ExpiresAfterTTL(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	e.clock.Advance(3600 * time.Second)
	status, _, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status, "still valid at exactly expires_at")

	e.clock.Advance(time.Second)
	status, email, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenExpired, status)
	assert.Empty(t, email)

	assert.ErrorIs(t, e.reset.Consume(ctx, issued.Token, "newpass1"), ErrTokenExpired)
	_, err = e.auth.Login(ctx, "alice@example.com", "secret1")
	assert.NoError(t, err)
}

func TestValidate_SubSecondIssuance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	e.clock.Advance(900 * time.Millisecond)
	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), issued.ExpiresAt)

	stored, err := e.reset.Tokens.FindByToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, stored.ExpiresAt.Equal(issued.ExpiresAt))

	// 12:00:00.9 + 3600s - 0.4s lands inside the last second of the lifetime
	e.clock.Advance(3600*time.Second - 400*time.Millisecond)
	status, _, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status)
	require.NoError(t, e.reset.Consume(ctx, issued.Token, "newpass1"))
}

func TestValidate_ExpiryBoundaryAtSecondGranularity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	e.clock.Advance(3600*time.Second + 999*time.Millisecond)
	status, _, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status, "same second as expires_at")

	e.clock.Advance(time.Millisecond)
	status, _, err = e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenExpired, status)
}

func TestValidate_UnknownToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	status, email, err := e.reset.Validate(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, TokenInvalid, status)
	assert.Empty(t, email)
	assert.Equal(t, "Invalid token", status.Message())

	assert.ErrorIs(t, e.reset.Consume(ctx, "does-not-exist", "newpass1"), ErrTokenInvalid)
}

func TestValidate_UsedWinsOverExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, e.reset.Consume(ctx, issued.Token, "newpass1"))

	e.clock.Advance(2 * time.Hour)
	status, _, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenUsed, status)
	assert.Equal(t, "Token already used", status.Message())
}

func TestConsume_WeakPasswordMutatesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	err = e.reset.Consume(ctx, issued.Token, "ab")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Password must be at least 6 characters", MessageOf(err))

	status, _, err := e.reset.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status, "token must remain unspent")
	_, err = e.auth.Login(ctx, "alice@example.com", "secret1")
	assert.NoError(t, err)
}

func TestResetPassword_FormChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.reset.ResetPassword(ctx, "", "newpass1", "newpass1")
	assert.Equal(t, "All fields are required", MessageOf(err))
	err = e.reset.ResetPassword(ctx, "tok", "newpass1", "newpass2")
	assert.Equal(t, "Passwords do not match", MessageOf(err))
	err = e.reset.ResetPassword(ctx, "tok", "newpass1", "newpass1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	issued, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.reset.Consume(ctx, issued.Token, fmt.Sprintf("racer-%d-pw", i))
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one consume succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, ErrTokenUsed)
	}
	require.NotEqual(t, -1, winner)

	_, err = e.auth.Login(ctx, "alice@example.com", fmt.Sprintf("racer-%d-pw", winner))
	assert.NoError(t, err)
}

func TestRequestReset_MultipleLiveTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	first, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	for _, tok := range []string{first.Token, second.Token} {
		status, _, err := e.reset.Validate(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, TokenValid, status)
	}
}

func TestRequestReset_PurgesExpiredAndUsed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	spent, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, e.reset.Consume(ctx, spent.Token, "newpass1"))
	assert.Equal(t, 1, e.tokenCount(t), "spent token stays until the next issuance")

	stale, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, e.tokenCount(t), "issuance purged the spent token")

	e.clock.Advance(2 * time.Hour)
	fresh, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, e.tokenCount(t), "issuance purged the expired token")

	for _, tok := range []string{spent.Token, stale.Token} {
		status, _, err := e.reset.Validate(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, TokenInvalid, status, "purged tokens are unknown")
	}

	status, _, err := e.reset.Validate(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, status)
}

func TestSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	_, err := e.reset.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	n, err := e.reset.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	e.clock.Advance(time.Hour + time.Second)
	n, err = e.reset.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRequestReset_TokenGeneratorFailure(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "secret1")
	e.reset.NewToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := e.reset.RequestReset(context.Background(), "alice@example.com")
	assert.Equal(t, KindStore, KindOf(err))
	assert.Zero(t, e.tokenCount(t))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("broker down")

	_, err := e.auth.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	assert.NoError(t, err)
}

func TestStoreErrorsAreClassified(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Close())
	ctx := context.Background()

	_, err := e.reset.RequestReset(ctx, "alice@example.com")
	assert.Equal(t, KindStore, KindOf(err))
	_, _, err = e.reset.Validate(ctx, "tok")
	assert.Equal(t, KindStore, KindOf(err))
	_, err = e.auth.Login(ctx, "alice@example.com", "secret1")
	assert.Equal(t, KindStore, KindOf(err))
	assert.Equal(t, "Database error", MessageOf(err))
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		msg  string
	}{
		{"missing name", RegisterInput{Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret1"}, "All fields are required"},
		{"missing confirm", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}, "All fields are required"},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"}, "Invalid email address"},
		{"mismatch", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret2"}, "Passwords do not match"},
		{"too short", RegisterInput{Name: "A", Email: "a@b.c", Password: "ab", ConfirmPassword: "ab"}, "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.auth.Register(ctx, tc.in)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tc.msg, MessageOf(err))
		})
	}

	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	assert.Zero(t, n, "validation failures must not write")
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	_, err := e.auth.Register(ctx, RegisterInput{
		Name: "Someone Else", Email: "ALICE@example.com", Phone: "123",
		Password: "different9", ConfirmPassword: "different9",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRegisterThenLogin_Generated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	faker := gofakeit.New(42)

	for i := 0; i < 25; i++ {
		in := RegisterInput{
			Name:     faker.Name(),
			Email:    fmt.Sprintf("%d.%s", i, faker.Email()),
			Phone:    faker.Phone(),
			Password: faker.Password(true, true, true, false, false, 12),
		}
		in.ConfirmPassword = in.Password

		id, err := e.auth.Register(ctx, in)
		require.NoError(t, err, "input %+v", in)

		u, err := e.auth.Login(ctx, in.Email, in.Password)
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, repository.NormalizeEmail(in.Email), u.Email)
		assert.Equal(t, in.Phone, u.Phone)
	}
}

func TestEmailExists(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "secret1")

	ok, err := e.auth.EmailExists(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.auth.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = e.auth.EmailExists(ctx, "")
	assert.Equal(t, KindValidation, KindOf(err))
}
