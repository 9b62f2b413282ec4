package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ComplaintID string `json:"complaintId"`
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	require.NoError(t, PublishJSON(ctx, q, TypeComplaintUpdated, payload{ComplaintID: "c1"}))

	msg := receive(t, ch)
	assert.Equal(t, TypeComplaintUpdated, msg.Type)
	var p payload
	require.NoError(t, msg.Decode(&p))
	assert.Equal(t, "c1", p.ComplaintID)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewRedisQueue(client, "")
	q.timeout = 100 * time.Millisecond

	require.NoError(t, PublishJSON(ctx, q, TypeAttendanceMarked, payload{ComplaintID: "first"}))
	require.NoError(t, PublishJSON(ctx, q, TypeAttendanceMarked, payload{ComplaintID: "second"}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 2; i++ {
		var p payload
		require.NoError(t, receive(t, ch).Decode(&p))
		got = append(got, p.ComplaintID)
	}
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublishJSONWithoutPublisher(t *testing.T) {
	assert.NoError(t, PublishJSON(context.Background(), nil, TypeComplaintUpdated, payload{}))
}
