package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()

	id, err := p.Publish(context.Background(), "ingest-events", map[string]int{"inserted": 3})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = p.Publish(context.Background(), "ingest-events", "second")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "ingest-events", msgs[0].Topic)
	require.Equal(t, "second", msgs[1].Payload)
}
