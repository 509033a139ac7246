package mail

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(log.New(&buf, "", 0))

	err := s.Send(context.Background(), Message{
		ToName:  "Alice",
		ToEmail: "alice@example.com",
		Subject: "Your certificate",
		Text:    "Congratulations",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `to="alice@example.com"`)
	assert.Contains(t, buf.String(), `subject="Your certificate"`)
	assert.Contains(t, buf.String(), "Congratulations")
}

func TestSendGridSenderHonoursCancelledContext(t *testing.T) {
	s := NewSendGridSender("key", "Academy", "noreply@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{ToEmail: "alice@example.com", Subject: "x", Text: "y"})
	assert.ErrorIs(t, err, context.Canceled)
}
