package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

type consoleFixture struct {
	console    *Console
	pipeline   *Pipeline
	history    databases.HistoryDatabase
	moderation databases.ModerationDatabase
	hub        *Hub
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	store := databases.NewMemoryStore()
	history := databases.NewHistoryDatabase(store)
	moderation := databases.NewModerationDatabase(store)
	hub, err := NewHub(context.Background(), NewLocalFabric())
	require.NoError(t, err)
	return &consoleFixture{
		console:    NewConsole(history, moderation, hub),
		pipeline:   NewPipeline(history, moderation, hub),
		history:    history,
		moderation: moderation,
		hub:        hub,
	}
}

// hold seeds the queue with one flagged message and returns its reference
// token.
func (f *consoleFixture) hold(t *testing.T, roomID, sender, text string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.moderation.SetFilterTerms(ctx, []string{"badword"}))
	outcome, err := f.pipeline.Submit(ctx, roomID, models.Identity{Username: sender}, text)
	require.NoError(t, err)
	require.Equal(t, Held, outcome)

	queue, err := f.console.Queue(ctx, roomID)
	require.NoError(t, err)
	require.NotEmpty(t, queue)
	return queue[len(queue)-1].Raw
}

func TestConsoleApproveRepublishes(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword but fine")

	rec := &recorder{id: "conn-1"}
	f.hub.Join("room-1", rec)

	require.NoError(t, f.console.Action(ctx, "room-1", raw, ActionApprove, ActionExtra{}))

	queue, err := f.console.Queue(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, queue)

	history, err := f.history.Recent(ctx, "room-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Sender)
	assert.Equal(t, "badword but fine", history[0].Text)
	assert.False(t, history[0].Moderated)

	assert.Len(t, rec.Named(EventChat), 1)
}

func TestConsoleReplaceMarksModerated(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword rant")

	require.NoError(t, f.console.Action(ctx, "room-1", raw, ActionReplace, ActionExtra{Text: "[removed]"}))

	history, err := f.history.Recent(ctx, "room-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Sender)
	assert.Equal(t, "[removed]", history[0].Text)
	assert.True(t, history[0].Moderated)
}

func TestConsoleDeleteDiscards(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword")

	require.NoError(t, f.console.Action(ctx, "room-1", raw, ActionDelete, ActionExtra{}))

	queue, err := f.console.Queue(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, queue)

	history, err := f.history.Recent(ctx, "room-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConsoleBanAddsToBanSet(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "mallory", "badword")

	require.NoError(t, f.console.Action(ctx, "room-1", raw, ActionBan, ActionExtra{Username: "mallory"}))

	banned, err := f.moderation.IsBanned(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, banned)

	// the banned message itself is gone, not approved
	history, err := f.history.Recent(ctx, "room-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	// and future sends are rejected outright
	outcome, err := f.pipeline.Submit(ctx, "room-1", models.Identity{Username: "mallory"}, "clean text")
	require.NoError(t, err)
	assert.Equal(t, Rejected, outcome)
}

func TestConsoleStaleReferenceNotFound(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword")

	require.NoError(t, f.console.Action(ctx, "room-1", raw, ActionDelete, ActionExtra{}))
	err := f.console.Action(ctx, "room-1", raw, ActionDelete, ActionExtra{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsoleInvalidActionLeavesQueueIntact(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword")

	err := f.console.Action(ctx, "room-1", raw, "promote", ActionExtra{})
	assert.ErrorIs(t, err, ErrInvalidAction)

	queue, err := f.console.Queue(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestConsoleMissingExtrasLeaveQueueIntact(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword")

	assert.ErrorIs(t, f.console.Action(ctx, "room-1", raw, ActionBan, ActionExtra{}), ErrInvalidInput)
	assert.ErrorIs(t, f.console.Action(ctx, "room-1", raw, ActionReplace, ActionExtra{}), ErrInvalidInput)

	queue, err := f.console.Queue(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestConsoleConcurrentActionsResolveOnce(t *testing.T) {
	ctx := context.Background()
	f := newConsoleFixture(t)
	raw := f.hold(t, "room-1", "alice", "badword")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.console.Action(ctx, "room-1", raw, ActionDelete, ActionExtra{})
		}(i)
	}
	wg.Wait()

	var succeeded, notFound int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case err == ErrNotFound:
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notFound)
}

func TestConsoleQueueRequiresRoom(t *testing.T) {
	f := newConsoleFixture(t)
	_, err := f.console.Queue(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
