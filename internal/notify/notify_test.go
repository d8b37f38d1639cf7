package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubPublisher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "fan-app", option.WithGRPCConn(conn))
	require.NoError(t, err)

	_, err = client.CreateTopic(ctx, "entries-updated")
	require.NoError(t, err)

	pub, err := NewPubSubWithClient(client, "entries-updated")
	require.NoError(t, err)

	ev := Event{
		RunID:     "0190a8e2-0000-7000-8000-000000000001",
		Stage:     StageHarvest,
		Digest:    "abc",
		Meets:     2,
		Events:    5,
		Entrants:  40,
		WrittenAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	id, err := pub.Publish(ctx, ev)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "harvest", msgs[0].Attributes["stage"])
	assert.Equal(t, ev.RunID, msgs[0].Attributes["run_id"])

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "harvest", got["stage"])
	assert.Equal(t, "abc", got["digest"])
	assert.EqualValues(t, 40, got["entrants"])
	assert.Equal(t, "2025-06-01T12:00:00Z", got["written_at"])

	require.NoError(t, pub.Close())
}

func TestNewPubSubWithClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPubSubWithClient(nil, "t")
	require.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NoopPublisher{}
	id, err := p.Publish(context.Background(), Event{Stage: StageFilter})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMemoryPublisher(t *testing.T) {
	t.Parallel()

	p := NewMemory()
	id, err := p.Publish(context.Background(), Event{Stage: StageHarvest})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id)
	id, err = p.Publish(context.Background(), Event{Stage: StageFilter})
	require.NoError(t, err)
	assert.Equal(t, "memory-2", id)

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, StageFilter, events[1].Stage)
}
