package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

func newOrder(t *testing.T, userID, code string, steps ...domain.Step) domain.Order {
	t.Helper()

	draft := domain.OrderDraft{
		Customer: domain.Customer{FirstName: "Ana", LastName: "Souza"},
		Product: domain.Product{
			Name:     "Notebook",
			Quantity: 1,
			Price:    decimal.RequireFromString("100.00"),
		},
		Tracking: domain.Tracking{Code: code, Company: "Correios"},
	}
	order, err := domain.NewOrder(draft, userID, time.Now())
	require.NoError(t, err)
	for _, step := range steps {
		require.NoError(t, order.AppendStep(step))
	}
	return order
}

// fixedClock всегда возвращает одно и то же время, чтобы проверить монотонность меток.
func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestOrderRepository_InsertAssignsStepTimes(t *testing.T) {
	repo := NewOrderRepository(WithClock(fixedClock))
	ctx := context.Background()

	order := newOrder(t, "user-1", "br1", domain.Processed(), domain.Forwarded(domain.CapitalSaoPaulo), domain.Delivered())
	saved, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	require.Len(t, saved.Tracking.Steps, 3)
	for i, step := range saved.Tracking.Steps {
		assert.NotEmpty(t, step.ID)
		if i > 0 {
			assert.True(t, step.CreatedAt.After(saved.Tracking.Steps[i-1].CreatedAt), "timestamps must increase")
		}
	}
	assert.Equal(t, domain.StepProcessed, saved.Tracking.Steps[0].Type)
	assert.Equal(t, "delivered", saved.Timeline().Current.Describe())
}

func TestOrderRepository_CreateThenLookupByLowerCaseCode(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := newOrder(t, "user-1", "BR123", domain.Processed(), domain.Forwarded(domain.CapitalSaoPaulo))
	_, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	found, ok, err := repo.FindByTrackingCode(ctx, " br123 ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Tracking.Steps, 2)
	assert.Equal(t, "forwarded to São Paulo", found.Timeline().Current.Describe())

	_, ok, err = repo.FindByTrackingCode(ctx, "BR999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_TrackingCodeUnique(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	_, err := repo.Insert(ctx, newOrder(t, "user-1", "BR1"))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newOrder(t, "user-2", "br1"))
	assert.ErrorIs(t, err, domain.ErrTrackingCodeTaken)

	other, err := repo.Insert(ctx, newOrder(t, "user-2", "BR2"))
	require.NoError(t, err)
	other.Tracking.Code = "BR1"
	assert.ErrorIs(t, repo.Update(ctx, other), domain.ErrTrackingCodeTaken)
}

func TestOrderRepository_InsertDuplicateID(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := newOrder(t, "user-1", "BR1")
	_, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	order.Tracking.Code = "BR2"
	_, err = repo.Insert(ctx, order)
	assert.ErrorIs(t, err, domain.ErrOrderExists)
}

func TestOrderRepository_UpdateReplacesSteps(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := newOrder(t, "user-1", "BR1", domain.Processed())
	saved, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	require.NoError(t, saved.AppendStep(domain.Delivered()))
	saved.UserID = "intruder"
	require.NoError(t, repo.Update(ctx, saved))

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Tracking.Steps, 2)
	assert.Equal(t, domain.StepProcessed, got.Tracking.Steps[0].Type)
	assert.Equal(t, domain.StepDelivered, got.Tracking.Steps[1].Type)
	assert.Equal(t, "user-1", got.UserID, "owner must not change on update")
	assert.True(t, got.CreatedAt.Equal(order.CreatedAt.UTC()))

	missing := newOrder(t, "user-1", "BR9")
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrOrderNotFound)
}

func TestOrderRepository_UpdateReleasesOldCode(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	saved, err := repo.Insert(ctx, newOrder(t, "user-1", "OLD1"))
	require.NoError(t, err)

	saved.Tracking.Code = "new1"
	require.NoError(t, repo.Update(ctx, saved))

	_, ok, err := repo.FindByTrackingCode(ctx, "OLD1")
	require.NoError(t, err)
	assert.False(t, ok)

	found, ok, err := repo.FindByTrackingCode(ctx, "NEW1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.ID, found.ID)
}

func TestOrderRepository_DeleteCascadesSteps(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := newOrder(t, "user-1", "BR1", domain.Processed(), domain.Cancelled())
	_, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err = repo.Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, ok, err := repo.FindByTrackingCode(ctx, "BR1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, repo.Delete(ctx, order.ID), domain.ErrOrderNotFound)

	_, err = repo.Insert(ctx, newOrder(t, "user-2", "BR1"))
	assert.NoError(t, err, "tracking code must be free after delete")
}

func TestOrderRepository_FindByOwnerNewestFirst(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	older := newOrder(t, "user-1", "BR1")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newOrder(t, "user-1", "BR2")
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	foreign := newOrder(t, "user-2", "BR3")

	for _, o := range []domain.Order{older, newer, foreign} {
		_, err := repo.Insert(ctx, o)
		require.NoError(t, err)
	}

	orders, err := repo.FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)

	none, err := repo.FindByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	eta := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	order := newOrder(t, "user-1", "BR1", domain.Processed())
	order.Tracking.EstimatedDeliveryDate = &eta
	_, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	got.Tracking.Steps[0].Step = domain.Delivered()
	*got.Tracking.EstimatedDeliveryDate = time.Time{}

	again, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepProcessed, again.Tracking.Steps[0].Type)
	assert.True(t, again.Tracking.EstimatedDeliveryDate.Equal(eta))
}

func TestOrderRepository_SurfacesCorruptStep(t *testing.T) {
	repository := NewOrderRepository()
	ctx := context.Background()

	order := newOrder(t, "user-1", "BR1", domain.Processed())
	_, err := repository.Insert(ctx, order)
	require.NoError(t, err)

	repo := repository.(*orderRepositoryInMemory)
	stored := repo.items[order.ID]
	stored.steps[0].StatusType = "returned"
	repo.items[order.ID] = stored

	_, err = repository.Get(ctx, order.ID)
	assert.True(t, domain.IsCorruptRecord(err))

	_, _, err = repository.FindByTrackingCode(ctx, "BR1")
	assert.True(t, domain.IsCorruptRecord(err))
}

func TestOrderRepository_CanceledContext(t *testing.T) {
	repo := NewOrderRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Insert(ctx, newOrder(t, "user-1", "BR1"))
	assert.True(t, errors.Is(err, context.Canceled))
}
