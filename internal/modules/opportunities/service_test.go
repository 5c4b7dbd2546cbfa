package opportunities

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/database"
)

var testDBCounter int

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDBCounter++
	db, err := database.New(database.Config{
		Path: fmt.Sprintf("file:opportunitiestest%d?mode=memory&cache=shared", testDBCounter),
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

func TestSubmitAndTransition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, err := svc.Submit(ctx, Opportunity{
		UserID: "founder",
		CoinID: "sui",
		Symbol: "SUI",
		Name:   "Sui",
		Thesis: "L1 rotation candidate",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, o.Status)

	require.NoError(t, svc.Watch(ctx, "founder", o.ID))
	watching, err := svc.List(ctx, "founder", StatusWatching)
	require.NoError(t, err)
	require.Len(t, watching, 1)
	assert.Equal(t, "sui", watching[0].CoinID)

	require.NoError(t, svc.Pass(ctx, "founder", o.ID))
	passed, err := svc.List(ctx, "founder", StatusPassed)
	require.NoError(t, err)
	assert.Len(t, passed, 1)
}

func TestTransitionIsOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, err := svc.Submit(ctx, Opportunity{UserID: "founder", CoinID: "sui", Symbol: "SUI"})
	require.NoError(t, err)

	err = svc.Watch(ctx, "intruder", o.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	fresh, err := svc.List(ctx, "founder", StatusNew)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Submit(context.Background(), Opportunity{UserID: "founder"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
