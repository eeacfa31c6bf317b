package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return c
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change")
		return Change{}
	}
}

func assertNoChange(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBroker_FanOutRespectsSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := NewLocalBroker(8)
	defer func() { _ = broker.Close() }()

	all, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	require.NoError(t, err)
	project, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1", Filter: &Filter{Column: "project_id", Value: "p-1"}})
	require.NoError(t, err)
	other, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-2"})
	require.NoError(t, err)

	change := Change{Table: "tasks", Kind: ChangeInsert, OwnerID: "u-1", Columns: map[string]string{"project_id": "p-1"}}
	require.NoError(t, broker.Publish(ctx, change))

	assert.Equal(t, ChangeInsert, receive(t, all.Changes()).Kind)
	assert.Equal(t, ChangeInsert, receive(t, project.Changes()).Kind)
	assertNoChange(t, other.Changes())
}

func TestLocalBroker_PreservesOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := NewLocalBroker(8)
	defer func() { _ = broker.Close() }()

	stream, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	require.NoError(t, err)

	kinds := []ChangeKind{ChangeInsert, ChangeUpdate, ChangeDelete}
	for _, k := range kinds {
		require.NoError(t, broker.Publish(ctx, Change{Table: "tasks", Kind: k, OwnerID: "u-1"}))
	}
	for _, k := range kinds {
		assert.Equal(t, k, receive(t, stream.Changes()).Kind)
	}
}

func TestLocalBroker_CloseStream(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := NewLocalBroker(8)
	defer func() { _ = broker.Close() }()

	stream, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "second close is a no-op")

	_, ok := <-stream.Changes()
	assert.False(t, ok)

	// Publishing after the stream is gone must not panic
	require.NoError(t, broker.Publish(ctx, Change{Table: "tasks", OwnerID: "u-1"}))
}

func TestLocalBroker_FullBufferDrops(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := NewLocalBroker(1)
	defer func() { _ = broker.Close() }()

	_, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, Change{Table: "tasks", OwnerID: "u-1"}))
	require.NoError(t, broker.Publish(ctx, Change{Table: "tasks", OwnerID: "u-1"}))
	assert.Equal(t, int64(1), broker.Dropped())
}

func TestLocalBroker_ClosedBroker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := NewLocalBroker(1)
	stream, err := broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	require.NoError(t, err)
	require.NoError(t, broker.Close())

	_, ok := <-stream.Changes()
	assert.False(t, ok)
	assert.ErrorIs(t, broker.Publish(ctx, Change{}), ErrStreamClosed)
	_, err = broker.Subscribe(ctx, Subscription{Table: "tasks", OwnerID: "u-1"})
	assert.ErrorIs(t, err, ErrStreamClosed)
	require.NoError(t, stream.Close())
}

func TestLocalBroker_RejectsUnscopedSubscription(t *testing.T) {
	t.Parallel()

	broker := NewLocalBroker(1)
	defer func() { _ = broker.Close() }()

	_, err := broker.Subscribe(context.Background(), Subscription{Table: "tasks"})
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestSubjectRouting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "taskmanager.changes.tasks.u-1", Subject("tasks", "u-1"))
	assert.True(t, validSubjectToken("8b0d7c1e-5a4f-4c36-9d0e-0c6f9f2b1a77"))
	assert.False(t, validSubjectToken("a.b"))
	assert.False(t, validSubjectToken("*"))
	assert.False(t, validSubjectToken(""))
}

func TestClassifyDaemonError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ClassifyDaemonError(nil))

	c := NewClient("/nonexistent/dir/taskmanager.sock")
	err := c.Connect(context.Background())
	require.Error(t, err)

	var de *DaemonError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrSocketNotFound, de.Code)
}
