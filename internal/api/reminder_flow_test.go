package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/infra/ledger"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/platform/sqlite"
	"github.com/phrazzld/duecall/internal/reminder"
)

// TestReminderFlow drives the real dispatcher over an in-memory SQLite store
// through the admin endpoint.
func TestReminderFlow(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	classifier := domain.NewUrgencyClassifier(time.UTC)
	tasks := sqlite.NewTaskStore(db, nil, classifier)
	users := sqlite.NewUserStore(db, nil)

	reachable, err := domain.NewUser("+15550001111", 1)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, reachable))
	silent, err := domain.NewUser("", 1)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, silent))

	for _, owner := range []*domain.User{reachable, silent} {
		task, err := domain.NewTask(owner.ID, "file taxes", "", testNow.Add(-time.Hour), testNow.Add(-2*time.Hour), classifier)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))
	}
	future, err := domain.NewTask(reachable.ID, "later", "", testNow.Add(time.Hour), testNow, classifier)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, future))

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var mu sync.Mutex
	var called []string
	gateway := reminder.GatewayFunc(func(_ context.Context, phone string) error {
		mu.Lock()
		called = append(called, phone)
		mu.Unlock()
		entered <- struct{}{}
		<-release
		return nil
	})

	testLogger, _ := logger.NewTestLogger()
	dispatcher := reminder.NewDispatcher(
		reminder.NewSelector(tasks, testLogger),
		users,
		gateway,
		reminder.DispatcherConfig{Concurrency: 1, RenotifyCooldown: 12 * time.Hour},
		testLogger,
		reminder.WithLedger(ledger.NewMemoryLedger()),
	)
	router := newTestRouter(t, dispatcher, db, nil)
	token := bearer(t, testSecret, time.Now().Add(time.Hour))

	type result struct {
		code int
		body []byte
	}
	first := make(chan result, 1)
	go func() {
		rec := doRequest(router, http.MethodPost, "/api/reminders/run", token)
		first <- result{code: rec.Code, body: rec.Body.Bytes()}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the gateway")
	}

	overlap := doRequest(router, http.MethodPost, "/api/reminders/run", token)
	assert.Equal(t, http.StatusConflict, overlap.Code)

	close(release)
	res := <-first
	require.Equal(t, http.StatusOK, res.code, string(res.body))

	var summary reminder.RunSummary
	require.NoError(t, json.Unmarshal(res.body, &summary))
	assert.Equal(t, 2, summary.Selected)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"+15550001111"}, called)

	// Within the cooldown the same task is not called again.
	again := doRequest(router, http.MethodPost, "/api/reminders/run", token)
	require.Equal(t, http.StatusOK, again.Code)
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 2, summary.Skipped)
	assert.Len(t, called, 1)

	health := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
}
