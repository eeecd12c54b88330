package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), Message{To: "x@example.com"}))
}

func TestSummaryMessage(t *testing.T) {
	msg := SummaryMessage("editor@example.com", RunReport{
		Date:      time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		Produced:  2,
		Attempted: 5,
		Skipped:   []string{"A3: classification failed", "A4: generation failed"},
		StorePath: "questions/generated.csv",
	})

	assert.Equal(t, "editor@example.com", msg.To)
	assert.Equal(t, "Generated Questions - 2026-03-04", msg.Subject)
	assert.Contains(t, msg.Body, "Generated 2 of 5")
	assert.Contains(t, msg.Body, "A4: generation failed")
	assert.Equal(t, "questions/generated.csv", msg.Attachment)
}

func TestMailer_Build(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "generated.csv")
	require.NoError(t, os.WriteFile(attachment, []byte("record_id\nABC123\n"), 0644))

	m := NewMailer(SMTPConfig{Host: "smtp.example.com", Port: 465, From: "bot@example.com"}, nil)
	mm, err := m.build(Message{To: "editor@example.com", Subject: "s", Body: "b", Attachment: attachment})
	require.NoError(t, err)

	require.Len(t, mm.GetToString(), 1)
	assert.Contains(t, mm.GetToString()[0], "editor@example.com")
	assert.Len(t, mm.GetAttachments(), 1)
}

func TestMailer_BuildRejectsBadAddress(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", From: "bot@example.com"}, nil)
	_, err := m.build(Message{To: "not an address"})
	assert.Error(t, err)
}

func TestMailer_SendFailsWithoutServer(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "bot@example.com", Username: "u", Password: "p"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := m.Notify(ctx, Message{To: "editor@example.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}
