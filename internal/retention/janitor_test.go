package retention_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homatabesh/homa-core/internal/retention"
	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/pkg/models"
)

func TestRunCycle_PrunesOnlyExpiredEntries(t *testing.T) {
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	old := &models.ActionLogEntry{RunID: "old", CreatedAt: time.Now().UTC().Add(-40 * 24 * time.Hour)}
	fresh := &models.ActionLogEntry{RunID: "fresh", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.AppendActionLog(ctx, old))
	require.NoError(t, s.AppendActionLog(ctx, fresh))

	j := retention.NewJanitor(s, time.Hour, 30)
	j.RunCycle(ctx)

	entries, err := s.ListActionLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].RunID)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	j := retention.NewJanitor(s, time.Hour, 30)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop on context cancel")
	}
}
