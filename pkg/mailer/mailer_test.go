package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Maverics-Seneca/auth-service/pkg/config"
)

func TestPasswordResetMessageEscapesLink(t *testing.T) {
	msg, err := PasswordResetMessage("jane@example.com", "https://app.example/reset?token=a&b=<x>")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.HTML, "token=a&amp;b=")
	assert.NotContains(t, msg.HTML, "<x>")
}

func TestComposeHeaders(t *testing.T) {
	raw := string(compose("noreply@example.com", Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.True(t, strings.HasPrefix(raw, "From: noreply@example.com\r\n"))
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>x</p>")
}

func TestNewWithoutHostLogsOnly(t *testing.T) {
	sender := New(config.SMTPConfig{}, zap.NewNop())
	_, ok := sender.(*logSender)
	require.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "a@example.com"}))
}
