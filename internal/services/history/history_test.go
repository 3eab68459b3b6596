package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-orchestrator/internal/billingapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
)

type BillingMock struct{ mock.Mock }

func (m *BillingMock) PaymentHistory(ctx context.Context, req billingapi.PaymentHistoryRequest) (*models.PaymentHistoryPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentHistoryPage), args.Error(1)
}

// memCache — кеш в памяти для тестов.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, result any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func page(items ...string) *models.PaymentHistoryPage {
	p := &models.PaymentHistoryPage{PageSize: 10, TotalPages: 2}
	for _, id := range items {
		p.Items = append(p.Items, models.PaymentHistoryItem{ID: id})
	}
	return p
}

func TestFetch_DistinctPagesNeverCollide(t *testing.T) {
	billing := new(BillingMock)
	billing.On("PaymentHistory", mock.Anything,
		billingapi.PaymentHistoryRequest{UserID: "42", Page: 1, PageSize: 10}).
		Return(page("txn-1"), nil).Once()
	billing.On("PaymentHistory", mock.Anything,
		billingapi.PaymentHistoryRequest{UserID: "42", Page: 2, PageSize: 10}).
		Return(page("txn-2"), nil).Once()

	s := New(billing, newMemCache(), 5*time.Minute, noopLogger())

	first, err := s.Fetch(context.Background(), "42", 1, 10)
	require.NoError(t, err)
	second, err := s.Fetch(context.Background(), "42", 2, 10)
	require.NoError(t, err)

	// каждая страница кешируется под своим ключом
	require.Len(t, first.Items, 1)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "txn-1", first.Items[0].ID)
	assert.Equal(t, "txn-2", second.Items[0].ID)
	billing.AssertExpectations(t)
}

func TestFetch_RepeatHitsCache(t *testing.T) {
	billing := new(BillingMock)
	billing.On("PaymentHistory", mock.Anything, mock.Anything).
		Return(page("txn-1"), nil).Once()

	s := New(billing, newMemCache(), 5*time.Minute, noopLogger())

	_, err := s.Fetch(context.Background(), "42", 1, 10)
	require.NoError(t, err)
	cached, err := s.Fetch(context.Background(), "42", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, "txn-1", cached.Items[0].ID)
	billing.AssertNumberOfCalls(t, "PaymentHistory", 1)
}

func TestFetch_EmptyUserFailsFast(t *testing.T) {
	billing := new(BillingMock)
	s := New(billing, newMemCache(), 5*time.Minute, noopLogger())

	_, err := s.Fetch(context.Background(), "", 1, 10)
	require.ErrorIs(t, err, ErrMissingUser)

	billing.AssertNotCalled(t, "PaymentHistory", mock.Anything, mock.Anything)
}

func TestFetch_ErrorKeepsCachedPages(t *testing.T) {
	billing := new(BillingMock)
	billing.On("PaymentHistory", mock.Anything,
		billingapi.PaymentHistoryRequest{UserID: "42", Page: 1, PageSize: 10}).
		Return(page("txn-1"), nil).Once()
	billing.On("PaymentHistory", mock.Anything,
		billingapi.PaymentHistoryRequest{UserID: "42", Page: 2, PageSize: 10}).
		Return(nil, errors.New("backend says no")).Once()

	s := New(billing, newMemCache(), 5*time.Minute, noopLogger())

	_, err := s.Fetch(context.Background(), "42", 1, 10)
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), "42", 2, 10)
	require.Error(t, err)

	// ошибка второй страницы не выселяет первую из кеша
	first, err := s.Fetch(context.Background(), "42", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "txn-1", first.Items[0].ID)
	billing.AssertNumberOfCalls(t, "PaymentHistory", 2)
}
