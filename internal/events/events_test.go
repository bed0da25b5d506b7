package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/hiresense/internal/models"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, models.HistoryEntry) error {
	return errors.New("broker down")
}

func TestBroadcasterDelivers(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, b.Publish(context.Background(), models.HistoryEntry{ID: "0a1b2c3d"}))

	got := <-ch
	assert.Equal(t, "0a1b2c3d", got.ID)
	assert.Equal(t, 1, b.Subscribers())
}

func TestBroadcasterCancel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers())
	assert.NoError(t, b.Publish(context.Background(), models.HistoryEntry{ID: "x"}))
}

func TestBroadcasterSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, b.Publish(context.Background(), models.HistoryEntry{}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	b.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestMulti(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	err := Multi{failingPublisher{}, nil, b}.Publish(context.Background(), models.HistoryEntry{ID: "abc"})
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, "abc", (<-ch).ID)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "analysis.file", RoutingKey(models.HistoryEntry{Source: models.SourceFile}))
}
