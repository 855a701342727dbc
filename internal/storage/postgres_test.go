package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"fula-deployer/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestPostgres_DeploymentLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	network := "test-" + uuid.NewString()

	d := &models.Deployment{
		RunID:         uuid.New(),
		Network:       network,
		State:         "NotStarted",
		Deployer:      "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6",
		InitialSupply: "1000000000000000000000000",
		StartedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.SaveDeployment(ctx, d))

	require.NoError(t, repo.SaveStep(ctx, &models.DeploymentStep{
		RunID:      d.RunID,
		Step:       "upload",
		Outcome:    "ok",
		TxHash:     "abc",
		Duration:   1500 * time.Millisecond,
		Detail:     map[string]interface{}{"code_hash": "00ff"},
		RecordedAt: time.Now().UTC(),
	}))
	require.NoError(t, repo.SaveStep(ctx, &models.DeploymentStep{
		RunID:      d.RunID,
		Step:       "deploy_proxy",
		Outcome:    "failed",
		Error:      "boom",
		RecordedAt: time.Now().UTC(),
	}))

	finished := time.Now().UTC()
	d.State = "Failed"
	d.CodeHash = "00ff"
	d.Error = "boom"
	d.FinishedAt = &finished
	require.NoError(t, repo.UpdateDeploymentState(ctx, d))

	got, err := repo.GetDeployment(ctx, d.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Failed", got.State)
	assert.Equal(t, "00ff", got.CodeHash)
	assert.Equal(t, d.InitialSupply, got.InitialSupply)
	assert.NotNil(t, got.FinishedAt)
	assert.True(t, got.IsTerminal())

	steps, err := repo.ListSteps(ctx, d.RunID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "upload", steps[0].Step)
	assert.Equal(t, 1500*time.Millisecond, steps[0].Duration)
	assert.Equal(t, "00ff", steps[0].Detail["code_hash"])
	assert.Equal(t, "boom", steps[1].Error)
	assert.Nil(t, steps[1].Detail)

	list, err := repo.ListDeployments(ctx, network, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.RunID, list[0].RunID)

	count, err := repo.CountDeployments(ctx, network)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgres_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetDeployment(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.UpdateDeploymentState(ctx, &models.Deployment{RunID: uuid.New(), State: "Complete"})
	assert.ErrorIs(t, err, ErrNotFound)
}
