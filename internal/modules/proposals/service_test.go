package proposals

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

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
		Path: fmt.Sprintf("file:proposalstest%d?mode=memory&cache=shared", testDBCounter),
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

func submit(t *testing.T, svc *Service, userID, coinID string) Proposal {
	t.Helper()
	entry := 60000.0
	p, err := svc.Submit(context.Background(), Proposal{
		UserID:          userID,
		CoinID:          coinID,
		Symbol:          "BTC",
		Action:          "BUY",
		Bucket:          "long-term",
		ConfluenceScore: 78.5,
		Signal:          "strong_buy",
		Thesis:          "Post-halving supply squeeze",
		EntryPrice:      &entry,
		Pillars: PillarScores{
			Technical: 8, Narrative: 7, Sentiment: 6, OnChain: 9,
			Macro: 5, Fundamentals: 8, RiskReward: 7,
		},
		Risks: []string{"ETF outflows", "macro shock"},
	})
	require.NoError(t, err)
	return p
}

func TestSubmitAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	submitted := submit(t, svc, "founder", "bitcoin")
	assert.Equal(t, StatusPending, submitted.Status)
	assert.NotEmpty(t, submitted.ID)

	listed, err := svc.List(ctx, "founder", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	p := listed[0]
	assert.Equal(t, "bitcoin", p.CoinID)
	assert.Equal(t, 78.5, p.ConfluenceScore)
	assert.Equal(t, []string{"ETF outflows", "macro shock"}, p.Risks)
	assert.Equal(t, 9, p.Pillars.OnChain)
	require.NotNil(t, p.EntryPrice)
	assert.Equal(t, 60000.0, *p.EntryPrice)
	assert.Nil(t, p.DecidedAt)
}

func TestApprove(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := submit(t, svc, "founder", "bitcoin")
	require.NoError(t, svc.Approve(ctx, "founder", p.ID, "sizing in over two weeks"))

	approved, err := svc.List(ctx, "founder", StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "sizing in over two weeks", approved[0].FounderDecision)
	require.NotNil(t, approved[0].DecidedAt)
	assert.WithinDuration(t, time.Now().UTC(), *approved[0].DecidedAt, 5*time.Second)

	pending, err := svc.List(ctx, "founder", StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRejectOnlyTouchesPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := submit(t, svc, "founder", "bitcoin")
	require.NoError(t, svc.Reject(ctx, "founder", p.ID, "too leveraged already"))

	// A second decision on the same proposal must fail.
	err := svc.Approve(ctx, "founder", p.ID, "changed my mind")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	rejected, err := svc.List(ctx, "founder", StatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "too leveraged already", rejected[0].FounderDecision)
}

func TestDecideIsOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := submit(t, svc, "founder", "bitcoin")
	err := svc.Approve(ctx, "intruder", p.ID, "")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	pending, err := svc.List(ctx, "founder", StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "a foreign decision must not touch the proposal")
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, Proposal{CoinID: "bitcoin", Action: "BUY"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Submit(ctx, Proposal{UserID: "founder", CoinID: "bitcoin", Action: "HODL"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
