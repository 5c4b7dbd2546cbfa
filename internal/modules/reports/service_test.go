package reports

import (
	"context"
	"database/sql"
	"encoding/json"
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
		Path: fmt.Sprintf("file:reportstest%d?mode=memory&cache=shared", testDBCounter),
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

func TestSubmitAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, Report{
		UserID:         "founder",
		Title:          "Weekly market read",
		ReportType:     "weekly",
		Content:        "BTC dominance grinding up, alts bleeding.",
		MarketSnapshot: json.RawMessage(`{"btc_dominance":54.2}`),
	})
	require.NoError(t, err)

	list, err := svc.List(ctx, "founder", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Weekly market read", list[0].Title)
	assert.JSONEq(t, `{"btc_dominance":54.2}`, string(list[0].MarketSnapshot))
}

func TestListFiltersByType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, typ := range []string{"weekly", "weekly", "deep-dive"} {
		_, err := svc.Submit(ctx, Report{
			UserID: "founder", Title: "t", ReportType: typ, Content: "c",
		})
		require.NoError(t, err)
	}

	weekly, err := svc.List(ctx, "founder", "weekly")
	require.NoError(t, err)
	assert.Len(t, weekly, 2)
}

func TestSubmitDefaultsAndValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rep, err := svc.Submit(ctx, Report{UserID: "founder", Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "general", rep.ReportType)

	_, err = svc.Submit(ctx, Report{UserID: "founder", Title: "no content"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListIsOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, Report{UserID: "alice", Title: "t", Content: "c"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "bob", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
