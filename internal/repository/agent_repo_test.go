package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onprem-cd/internal/model"
	"onprem-cd/pkg/constants"
)

func TestRecordHeartbeatUpsertsInstance(t *testing.T) {
	db := newTestDB(t)
	repo := NewAgentRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	first, err := repo.RecordHeartbeat(ctx, &HeartbeatRecord{SubscriberID: 1, Name: "agent", LifecycleID: "pod-a", SessionID: "s1", At: base})
	require.NoError(t, err)
	second, err := repo.RecordHeartbeat(ctx, &HeartbeatRecord{SubscriberID: 1, Name: "agent", LifecycleID: "pod-a", SessionID: "s1", At: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.LastHeartbeatAt)
	assert.True(t, second.LastHeartbeatAt.Equal(base.Add(time.Minute)))

	// 新的 lifecycle 即新的实例
	_, err = repo.RecordHeartbeat(ctx, &HeartbeatRecord{SubscriberID: 1, Name: "agent", LifecycleID: "pod-b", At: base})
	require.NoError(t, err)

	instances, err := repo.ListInstances(1)
	require.NoError(t, err)
	assert.Len(t, instances, 2)

	times, err := repo.HeartbeatTimes(first.ID, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.True(t, times[0].Equal(base))

	firstAt, err := repo.FirstHeartbeat(first.ID)
	require.NoError(t, err)
	require.NotNil(t, firstAt)
	assert.True(t, firstAt.Equal(base))

	none, err := repo.FirstHeartbeat(999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPruneEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewAgentRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	inst, err := repo.RecordHeartbeat(ctx, &HeartbeatRecord{SubscriberID: 1, Name: "agent", LifecycleID: "a", At: now.AddDate(0, 0, -100)})
	require.NoError(t, err)
	_, err = repo.RecordHeartbeat(ctx, &HeartbeatRecord{SubscriberID: 1, Name: "agent", LifecycleID: "a", At: now})
	require.NoError(t, err)

	deleted, err := repo.PruneEvents(ctx, now.AddDate(0, 0, -91))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	times, err := repo.HeartbeatTimes(inst.ID, now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, times, 1)
}

func TestClaimPendingAction(t *testing.T) {
	db := newTestDB(t)
	repo := NewAgentRepository(db)
	ctx := context.Background()

	action, err := repo.ClaimPendingAction(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, action)

	older := &model.AgentAction{SubscriberID: 1, Type: constants.AgentActionApplyVersion, Payload: map[string]interface{}{"project_version_id": 1}}
	require.NoError(t, repo.CreateAction(older))
	newer := &model.AgentAction{SubscriberID: 1, Type: constants.AgentActionApplyVersion, Payload: map[string]interface{}{"project_version_id": 2}}
	require.NoError(t, repo.CreateAction(newer))

	action, err = repo.ClaimPendingAction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, older.ID, action.ID)
	assert.Equal(t, constants.AgentActionStatusCompleted, action.Status)

	action, err = repo.ClaimPendingAction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, newer.ID, action.ID)

	action, err = repo.ClaimPendingAction(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, action)
}
