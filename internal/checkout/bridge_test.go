package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWidget считает вызовы Setup и умеет задерживать инициализацию,
// чтобы держать ее "в полете" для конкурентных вызовов.
type fakeWidget struct {
	mu       sync.Mutex
	setups   int
	delay    time.Duration
	setupErr error

	opened   []string
	settings []OpenSettings
	openErr  error
}

func (w *fakeWidget) Setup(_ context.Context, _, _ string) error {
	w.mu.Lock()
	w.setups++
	err := w.setupErr
	w.mu.Unlock()
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	return err
}

func (w *fakeWidget) Open(_ context.Context, transactionID string, settings OpenSettings) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened = append(w.opened, transactionID)
	w.settings = append(w.settings, settings)
	return w.openErr
}

func (w *fakeWidget) setupCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setups
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestBridge(widget Widget) *Bridge {
	return NewBridge(widget, "sandbox", "client-token",
		OpenSettings{Theme: "dark", SuccessURL: "https://app.example.com/success"}, noopLogger())
}

func TestBridge_InitializeIsIdempotent(t *testing.T) {
	widget := &fakeWidget{}
	b := newTestBridge(widget)

	require.NoError(t, b.Initialize(context.Background()))
	require.NoError(t, b.Initialize(context.Background()))

	// повторный вызов после успеха не трогает виджет
	assert.Equal(t, 1, widget.setupCount())
}

func TestBridge_ConcurrentInitializeCoalesces(t *testing.T) {
	widget := &fakeWidget{delay: 100 * time.Millisecond}
	b := newTestBridge(widget)

	const callers = 8
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = b.Initialize(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, widget.setupCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
}

func TestBridge_OpenBeforeInitializeFails(t *testing.T) {
	widget := &fakeWidget{}
	b := newTestBridge(widget)

	err := b.Open(context.Background(), "txn-1")
	require.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, widget.opened)
}

func TestBridge_FailedInitializeCanBeRetried(t *testing.T) {
	widget := &fakeWidget{setupErr: errors.New("widget script failed to load")}
	b := newTestBridge(widget)

	err := b.Initialize(context.Background())
	require.ErrorIs(t, err, ErrInitFailed)

	// мост остался не готов
	require.ErrorIs(t, b.Open(context.Background(), "txn-1"), ErrNotReady)

	// следующий вызов запускает инициализацию заново и может преуспеть
	widget.mu.Lock()
	widget.setupErr = nil
	widget.mu.Unlock()

	require.NoError(t, b.Initialize(context.Background()))
	assert.Equal(t, 2, widget.setupCount())
	require.NoError(t, b.Open(context.Background(), "txn-1"))
}

func TestBridge_OpenPassesSettings(t *testing.T) {
	widget := &fakeWidget{}
	b := newTestBridge(widget)
	require.NoError(t, b.Initialize(context.Background()))

	require.NoError(t, b.Open(context.Background(), "txn-42"))

	require.Len(t, widget.opened, 1)
	assert.Equal(t, "txn-42", widget.opened[0])
	assert.Equal(t, "dark", widget.settings[0].Theme)
	assert.Equal(t, "https://app.example.com/success", widget.settings[0].SuccessURL)
}
