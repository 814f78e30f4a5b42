package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotifyImported(t *testing.T) {
	w := &recordingWriter{}
	n := &Notifier{writer: w, topic: "harvest.packages", logger: zap.NewNop(),
		now: func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }}

	require.NoError(t, n.NotifyImported(context.Background(), "msbnk-1", "MSBNK-1", "src"))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "msbnk-1", string(msg.Key))
	assert.Equal(t, TypePackageImported, string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, TypePackageImported, ev.Type)
	assert.Equal(t, "MSBNK-1", ev.GUID)
	assert.Equal(t, "src", ev.SourceID)
	assert.NotEmpty(t, ev.ID)
	assert.True(t, ev.Timestamp.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestNotifyImportedWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	n := &Notifier{writer: w, topic: "t", logger: zap.NewNop(), now: time.Now}
	assert.Error(t, n.NotifyImported(context.Background(), "p", "g", "s"))
}
