package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"trysite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	raw := string(buildMessage("noreply@example.com", models.MailMessage{
		To:         "owner@example.com",
		Bcc:        "audit@example.com",
		Subject:    "Try Orchard Core",
		Body:       "<b>hi</b>",
		IsHTMLBody: true,
	}))

	headers, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "From: noreply@example.com\r\n")
	assert.Contains(t, headers, "To: owner@example.com\r\n")
	assert.Contains(t, headers, "Subject: Try Orchard Core\r\n")
	assert.Contains(t, headers, "Content-Type: text/html; charset=UTF-8")
	assert.NotContains(t, headers, "audit@example.com")
	assert.Equal(t, "<b>hi</b>", body)
}

func TestBuildMessagePlainText(t *testing.T) {
	raw := string(buildMessage("a@example.com", models.MailMessage{To: "b@example.com", Body: "hi"}))
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
}

func TestRenderConfirmationEmail(t *testing.T) {
	body, err := RenderConfirmationEmail(ConfirmationEmail{
		SiteName:         "Bob's <Site>",
		ConfirmationLink: "https://demo.example.com/sites/Confirm?handle=bob&ep=abc",
		SiteURL:          "https://demo.example.com/bob",
		AdminName:        "admin",
		AdminPassword:    "Pa$$w0rd",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Bob&#39;s &lt;Site&gt;")
	assert.Contains(t, body, `href="https://demo.example.com/sites/Confirm?handle=bob&amp;ep=abc"`)
	assert.Contains(t, body, `href="https://demo.example.com/bob/admin"`)
	assert.Contains(t, body, "Username: admin")
	assert.Contains(t, body, "Password: Pa$$w0rd")
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(zerolog.New(&buf))

	err := sender.Send(context.Background(), models.MailMessage{To: "owner@example.com", Subject: "Try Orchard Core"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "owner@example.com")
	assert.Contains(t, buf.String(), "Try Orchard Core")
}
