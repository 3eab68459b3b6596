package guard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
)

type fakeSessions struct {
	mu   sync.Mutex
	cred *models.Credential
	ok   bool
}

func (s *fakeSessions) Get(_ context.Context) (*models.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.ok
}

func (s *fakeSessions) set(cred *models.Credential, ok bool) {
	s.mu.Lock()
	s.cred = cred
	s.ok = ok
	s.mu.Unlock()
}

type recNotifier struct {
	mu    sync.Mutex
	calls []time.Time
	users []string
}

func (n *recNotifier) Notify(_ context.Context, user, _, _ string) error {
	n.mu.Lock()
	n.calls = append(n.calls, time.Now())
	n.users = append(n.users, user)
	n.mu.Unlock()
	return nil
}

func (n *recNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *recNotifier) firstAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[0]
}

type recNavigator struct {
	mu      sync.Mutex
	targets []string
	times   []time.Time
	done    chan struct{}
}

func newRecNavigator() *recNavigator {
	return &recNavigator{done: make(chan struct{}, 1)}
}

func (n *recNavigator) Navigate(to string) {
	n.mu.Lock()
	n.targets = append(n.targets, to)
	n.times = append(n.times, time.Now())
	n.mu.Unlock()
	n.done <- struct{}{}
}

func (n *recNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.targets)
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func validCred(now time.Time) *models.Credential {
	return &models.Credential{
		AccessToken:   "access",
		RefreshToken:  "refresh",
		AccessExpiry:  now.Add(time.Hour),
		RefreshExpiry: now.Add(168 * time.Hour),
	}
}

func expiredAccessCred(now time.Time) *models.Credential {
	return &models.Credential{
		AccessToken:   "access",
		RefreshToken:  "refresh",
		AccessExpiry:  now.Add(-time.Minute),
		RefreshExpiry: now.Add(168 * time.Hour),
	}
}

func newTestGuard(t *testing.T, sessions Sessions, notifier Notifier, nav Navigator) *Guard {
	t.Helper()
	g, err := New(sessions, notifier, nav, 20*time.Millisecond, 60*time.Millisecond, noopLogger())
	require.NoError(t, err)
	return g
}

func TestNew_RejectsBadDelays(t *testing.T) {
	sessions := &fakeSessions{}
	notifier := &recNotifier{}
	nav := newRecNavigator()

	_, err := New(sessions, notifier, nav, 0, time.Second, noopLogger())
	assert.ErrorIs(t, err, ErrZeroDelay)

	_, err = New(sessions, notifier, nav, time.Second, 0, noopLogger())
	assert.ErrorIs(t, err, ErrZeroDelay)

	_, err = New(sessions, notifier, nav, time.Second, 500*time.Millisecond, noopLogger())
	assert.ErrorIs(t, err, ErrRedirectTooEarly)
}

func TestMount_Decisions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		cred        *models.Credential
		ok          bool
		requireAuth bool
		wantPhase   models.GuardPhase
	}{
		{
			name:        "authenticated user on protected view",
			cred:        validCred(now),
			ok:          true,
			requireAuth: true,
			wantPhase:   models.GuardAuthorized,
		},
		{
			name:        "guest on guest-only view",
			cred:        nil,
			ok:          false,
			requireAuth: false,
			wantPhase:   models.GuardAuthorized,
		},
		{
			name:        "guest on protected view",
			cred:        nil,
			ok:          false,
			requireAuth: true,
			wantPhase:   models.GuardDenied,
		},
		{
			name:        "expired access token on protected view",
			cred:        expiredAccessCred(now),
			ok:          true,
			requireAuth: true,
			wantPhase:   models.GuardDenied,
		},
		{
			name:        "authenticated user on guest-only view",
			cred:        validCred(now),
			ok:          true,
			requireAuth: false,
			wantPhase:   models.GuardDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{cred: tt.cred, ok: tt.ok}
			g := newTestGuard(t, sessions, &recNotifier{}, newRecNavigator())

			m := g.Mount(context.Background(), Options{
				RequireAuth: tt.requireAuth,
				RedirectTo:  "/login",
			})
			defer m.Unmount()

			assert.Equal(t, tt.wantPhase, m.Phase())
		})
	}
}

func TestMount_DeniedNotifiesThenRedirects(t *testing.T) {
	sessions := &fakeSessions{}
	notifier := &recNotifier{}
	nav := newRecNavigator()
	g := newTestGuard(t, sessions, notifier, nav)

	m := g.Mount(context.Background(), Options{
		RequireAuth: true,
		User:        "42",
		RedirectTo:  "/login",
		ToastTitle:  "Authentication Required",
	})
	defer m.Unmount()

	require.Equal(t, models.GuardDenied, m.Phase())

	select {
	case <-nav.done:
	case <-time.After(time.Second):
		t.Fatal("navigation never fired")
	}

	// уведомление ровно одно и строго раньше навигации
	require.Equal(t, 1, notifier.count())
	require.Equal(t, 1, nav.count())
	assert.Equal(t, "/login", nav.targets[0])
	assert.True(t, notifier.firstAt().Before(nav.times[0]))

	d := m.Decision(context.Background())
	assert.Equal(t, models.GuardDenied, d.Phase)
	assert.True(t, d.ShowRedirectMessage)
	require.NotNil(t, d.RedirectAt)
}

func TestMount_EqualDelaysNotifyStillFirst(t *testing.T) {
	sessions := &fakeSessions{}
	notifier := &recNotifier{}
	nav := newRecNavigator()
	g, err := New(sessions, notifier, nav, 20*time.Millisecond, 20*time.Millisecond, noopLogger())
	require.NoError(t, err)

	m := g.Mount(context.Background(), Options{RequireAuth: true, RedirectTo: "/login"})
	defer m.Unmount()
	require.Equal(t, models.GuardDenied, m.Phase())

	select {
	case <-nav.done:
	case <-time.After(time.Second):
		t.Fatal("navigation never fired")
	}

	// при совпадающих задержках уведомление все равно предшествует навигации
	require.Equal(t, 1, notifier.count())
	assert.True(t, notifier.firstAt().Before(nav.times[0]))
}

func TestMount_UnmountCancelsTimers(t *testing.T) {
	sessions := &fakeSessions{}
	notifier := &recNotifier{}
	nav := newRecNavigator()
	g := newTestGuard(t, sessions, notifier, nav)

	m := g.Mount(context.Background(), Options{RequireAuth: true, RedirectTo: "/login"})
	require.Equal(t, models.GuardDenied, m.Phase())
	m.Unmount()

	time.Sleep(120 * time.Millisecond)

	// после размонтирования ни один таймер не срабатывает
	assert.Equal(t, 0, notifier.count())
	assert.Equal(t, 0, nav.count())
}

func TestMount_StaleRedirectFlagDoesNotLeak(t *testing.T) {
	sessions := &fakeSessions{}
	notifier := &recNotifier{}
	nav := newRecNavigator()
	g := newTestGuard(t, sessions, notifier, nav)

	m := g.Mount(context.Background(), Options{RequireAuth: true, RedirectTo: "/login"})
	defer m.Unmount()
	require.Equal(t, models.GuardDenied, m.Phase())
	assert.True(t, m.Decision(context.Background()).ShowRedirectMessage)

	// учетные данные появились извне, пока решение еще живо
	sessions.set(validCred(time.Now()), true)

	d := m.Decision(context.Background())
	assert.Equal(t, models.GuardDenied, d.Phase)
	assert.False(t, d.ShowRedirectMessage)
}
