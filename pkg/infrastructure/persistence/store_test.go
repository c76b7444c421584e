package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "clem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_OutcomesRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	runID := uuid.New()
	feedID := uuid.New()
	jan := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)

	hay := entities.ResourceRequest{
		ID: uuid.New(), ResourceTypeName: "Hay", Category: "Feed",
		Required: 100, Available: 80, Provided: 80,
	}
	require.NoError(t, store.SaveOutcomes(ctx, []repositories.ActivityOutcome{
		{RunID: runID, Timestep: jan, ActivityID: feedID, ActivityName: "Feed cattle",
			Status: entities.Partial, Message: "", Shortfalls: []entities.ResourceRequest{hay}},
		{RunID: runID, Timestep: jan, ActivityID: uuid.New(), ActivityName: "Pay rates", Status: entities.Success},
	}))
	require.NoError(t, store.SaveOutcomes(ctx, []repositories.ActivityOutcome{
		{RunID: runID, Timestep: feb, ActivityID: feedID, ActivityName: "Feed cattle", Status: entities.Success},
	}))
	require.NoError(t, store.SaveOutcomes(ctx, []repositories.ActivityOutcome{
		{RunID: uuid.New(), Timestep: jan, ActivityID: uuid.New(), ActivityName: "Other run", Status: entities.Success},
	}))

	got, err := store.GetOutcomes(ctx, runID)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Feed cattle", got[0].ActivityName)
	assert.Equal(t, entities.Partial, got[0].Status)
	assert.True(t, got[0].Timestep.Equal(jan))
	require.Len(t, got[0].Shortfalls, 1)
	assert.Equal(t, hay.ID, got[0].Shortfalls[0].ID)
	assert.Equal(t, 20.0, got[0].Shortfalls[0].Shortfall())
	assert.Equal(t, feedID, got[0].Shortfalls[0].ActivityID)
	assert.Equal(t, "Pay rates", got[1].ActivityName)
	assert.Empty(t, got[1].Shortfalls)
	assert.True(t, got[2].Timestep.Equal(feb))
}

func TestStore_Transactions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	runID := uuid.New()
	date := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveTransactions(ctx, runID, nil))
	require.NoError(t, store.SaveTransactions(ctx, runID, []repositories.Transaction{
		{Date: date, Resource: "Bank", Activity: "Sell steers", Category: "Sales", Gain: 1500},
		{Date: date, Resource: "Hay", Activity: "Feed cattle", Category: "Feed", Loss: 80},
	}))

	got, err := store.GetTransactions(ctx, runID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bank", got[0].Resource)
	assert.Equal(t, 1500.0, got[0].Gain)
	assert.Equal(t, 80.0, got[1].Loss)
	assert.True(t, got[1].Date.Equal(date))
}

func TestStore_SaveRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	result := &dto.RunResult{
		RunID:     uuid.New(),
		Start:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		Timesteps: 12,
	}

	require.NoError(t, store.SaveRun(ctx, result))
	require.NoError(t, store.SaveRun(ctx, result))

	ids, err := store.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{result.RunID}, ids)
}
