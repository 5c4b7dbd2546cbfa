package costs

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/database"
)

var testDBCounter int

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDBCounter++
	db, err := database.New(database.Config{
		Path: fmt.Sprintf("file:coststest%d?mode=memory&cache=shared", testDBCounter),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db.Conn()
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zerolog.Nop()
	return NewService(NewRepository(setupTestDB(t), log), log)
}

func addItem(t *testing.T, svc *Service, userID, name string, amount float64, freq Frequency) Item {
	t.Helper()
	item, err := svc.Add(context.Background(), userID, AddRequest{
		Name:      name,
		Amount:    decimal.NewFromFloat(amount),
		Frequency: freq,
	})
	require.NoError(t, err)
	return item
}

func TestMonthlyBurnNormalization(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const user = "founder"

	addItem(t, svc, user, "Exchange subscription", 50, FrequencyMonthly)
	addItem(t, svc, user, "Tax software", 1200, FrequencyAnnual)
	addItem(t, svc, user, "Hardware wallet", 500, FrequencyOneTime)
	inactive := addItem(t, svc, user, "Old newsletter", 20, FrequencyMonthly)
	require.NoError(t, svc.End(ctx, user, inactive.ID))

	total, err := svc.TotalMonthlyCosts(ctx, user)
	require.NoError(t, err)
	// 50 + 1200/12 + 0 + 0
	assert.InDelta(t, 150.0, total, 1e-9)
}

func TestAnnualItemContributesOneTwelfth(t *testing.T) {
	svc := newTestService(t)
	addItem(t, svc, "founder", "Tax software", 1200, FrequencyAnnual)

	total, err := svc.TotalMonthlyCosts(context.Background(), "founder")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestOneTimeItemNeverCounts(t *testing.T) {
	svc := newTestService(t)
	addItem(t, svc, "founder", "Cold storage setup", 99999, FrequencyOneTime)

	total, err := svc.TotalMonthlyCosts(context.Background(), "founder")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestEndStopsCounting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addItem(t, svc, "founder", "Signal service", 75, FrequencyMonthly)
	require.NoError(t, svc.End(ctx, "founder", item.ID))

	total, err := svc.TotalMonthlyCosts(ctx, "founder")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	// The ended item is still listed when inactive items are included.
	all, err := svc.Items(ctx, "founder", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
	require.NotNil(t, all[0].EndDate)

	active, err := svc.Items(ctx, "founder", true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEndIsOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := addItem(t, svc, "founder", "Subscription", 10, FrequencyMonthly)

	err := svc.End(ctx, "someone-else", item.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	total, err := svc.TotalMonthlyCosts(ctx, "founder")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, total, 1e-9)
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AddRequest
	}{
		{"missing name", AddRequest{Amount: decimal.NewFromInt(10), Frequency: FrequencyMonthly}},
		{"unknown frequency", AddRequest{Name: "x", Amount: decimal.NewFromInt(10), Frequency: "weekly"}},
		{"zero amount", AddRequest{Name: "x", Amount: decimal.Zero, Frequency: FrequencyMonthly}},
		{"negative amount", AddRequest{Name: "x", Amount: decimal.NewFromInt(-5), Frequency: FrequencyMonthly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "founder", tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAddDefaults(t *testing.T) {
	svc := newTestService(t)

	item := addItem(t, svc, "founder", "Subscription", 10, FrequencyMonthly)
	assert.Equal(t, "USD", item.Currency)
	assert.True(t, item.IsActive)
	assert.WithinDuration(t, time.Now().UTC(), item.StartDate, 5*time.Second)
}

func TestItemsAreOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addItem(t, svc, "alice", "A", 10, FrequencyMonthly)
	addItem(t, svc, "bob", "B", 20, FrequencyMonthly)

	items, err := svc.Items(ctx, "alice", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Name)

	total, err := svc.TotalMonthlyCosts(ctx, "bob")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 1e-9)
}
