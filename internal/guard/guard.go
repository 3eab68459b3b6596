// Package guard реализует гейт защищенных представлений: синхронную проверку
// сессии при монтировании, машину состояний pending → authorized/denied и
// отложенные уведомление с редиректом при отказе в доступе.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sched"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
)

// Ошибки конфигурации гарда. Нулевые задержки запрещены: уведомление и
// редирект не должны опережать первую отрисовку представления.
var (
	ErrZeroDelay        = errors.New("guard delays must be non-zero")
	ErrRedirectTooEarly = errors.New("redirect delay must be >= notify delay")
)

// Notifier доставляет пользователю уведомление. Отрисовка — забота внешнего
// коллаборатора, здесь только формируется сообщение.
type Notifier interface {
	Notify(ctx context.Context, user, title, body string) error
}

// Navigator выполняет переход на другой маршрут.
type Navigator interface {
	Navigate(to string)
}

// Sessions читает текущие учетные данные сессии.
type Sessions interface {
	Get(ctx context.Context) (*models.Credential, bool)
}

// Options задает требования одного защищенного представления.
type Options struct {
	// RequireAuth: true — представление только для аутентифицированных,
	// false — только для гостей.
	RequireAuth bool
	// User — адресат уведомления; может быть пустым для гостя.
	User             string
	RedirectTo       string
	ToastTitle       string
	ToastDescription string
}

// Guard создает решения для защищенных представлений.
type Guard struct {
	sessions      Sessions
	notifier      Notifier
	nav           Navigator
	notifyDelay   time.Duration
	redirectDelay time.Duration
	log           *slog.Logger
}

// New создает Guard. Обе задержки должны быть ненулевыми, задержка редиректа —
// не меньше задержки уведомления.
func New(sessions Sessions, notifier Notifier, nav Navigator, notifyDelay, redirectDelay time.Duration, log *slog.Logger) (*Guard, error) {
	if notifyDelay <= 0 || redirectDelay <= 0 {
		return nil, ErrZeroDelay
	}
	if redirectDelay < notifyDelay {
		return nil, ErrRedirectTooEarly
	}
	return &Guard{
		sessions:      sessions,
		notifier:      notifier,
		nav:           nav,
		notifyDelay:   notifyDelay,
		redirectDelay: redirectDelay,
		log:           log,
	}, nil
}

// Mount — решение гарда для одного смонтированного представления.
// Владеет своими таймерами и отменяет их при размонтировании.
type Mount struct {
	guard *Guard
	opts  Options
	tasks *sched.Scheduler

	mu         sync.Mutex
	phase      models.GuardPhase
	redirectAt time.Time
}

// Mount синхронно проверяет сессию и возвращает решение. При отказе в доступе
// планирует уведомление и редирект; оба снимаются вызовом Unmount.
func (g *Guard) Mount(ctx context.Context, opts Options) *Mount {
	m := &Mount{
		guard: g,
		opts:  opts,
		tasks: sched.New(),
		phase: models.GuardPending,
	}

	if g.allowed(ctx, opts.RequireAuth) {
		m.phase = models.GuardAuthorized
		return m
	}

	m.phase = models.GuardDenied
	m.redirectAt = time.Now().Add(g.redirectDelay)

	// Редирект планируется из колбэка уведомления: уведомление строго
	// предшествует навигации даже при равных задержках.
	m.tasks.After(g.notifyDelay, func() {
		if err := g.notifier.Notify(context.Background(), opts.User, opts.ToastTitle, opts.ToastDescription); err != nil {
			g.log.Warn("guard notification failed", sl.Err(err))
		}
		m.tasks.After(g.redirectDelay-g.notifyDelay, func() {
			g.log.Info("guard redirecting", slog.String("to", opts.RedirectTo))
			g.nav.Navigate(opts.RedirectTo)
			m.tasks.Close()
		})
	})

	return m
}

// allowed: представление для аутентифицированных требует действующего
// access-токена, гостевое — его отсутствия.
func (g *Guard) allowed(ctx context.Context, requireAuth bool) bool {
	return requireAuth == g.present(ctx)
}

func (g *Guard) present(ctx context.Context) bool {
	cred, ok := g.sessions.Get(ctx)
	return ok && cred.AccessValid(time.Now())
}

// Phase возвращает текущую фазу решения.
func (m *Mount) Phase() models.GuardPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Decision возвращает наблюдаемое состояние решения. Флаг показа сообщения
// о редиректе истинен только в denied и только пока исходное требование все
// еще нарушено: если учетные данные изменились извне, устаревший флаг не
// должен пережить смену состояния.
func (m *Mount) Decision(ctx context.Context) models.GuardDecision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := models.GuardDecision{Phase: m.phase}
	if m.phase != models.GuardDenied {
		return d
	}
	d.ShowRedirectMessage = !m.guard.allowed(ctx, m.opts.RequireAuth)
	d.RedirectTo = m.opts.RedirectTo
	at := m.redirectAt
	d.RedirectAt = &at
	return d
}

// Unmount отменяет запланированные уведомление и редирект. После вызова ни
// один таймер решения не сработает.
func (m *Mount) Unmount() {
	m.tasks.Close()
}
