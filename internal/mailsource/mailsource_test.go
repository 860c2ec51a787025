package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: tpa@example.com\r\n" +
	"To: claims@hospital.example\r\n" +
	"Subject: =?UTF-8?B?UGF5bWVudCBBZHZpY2U=?= CLM12345\r\n" +
	"Date: Mon, 03 Jun 2024 10:15:00 +0530\r\n" +
	"Message-ID: <abc123@tpa.example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"Settled Amount: Rs. 45,000 for patient Ravi Kumar =\r\n" +
	"(UHID 998877)\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>ignored html</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain; name=\"advice.txt\"\r\n" +
	"Content-Disposition: attachment; filename=\"advice.txt\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"VVRSIE5vOiBVVFI5ODc2\r\n" +
	"NTQz\r\n" +
	"--outer--\r\n"

func TestParseMultipart(t *testing.T) {
	msg, err := Parse([]byte(multipartMessage), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "abc123@tpa.example.com", msg.ID)
	assert.Equal(t, "Payment Advice CLM12345", msg.Subject)
	assert.Equal(t, time.Date(2024, 6, 3, 4, 45, 0, 0, time.UTC), msg.Date)
	assert.Equal(t, "Settled Amount: Rs. 45,000 for patient Ravi Kumar (UHID 998877)", strings.TrimSpace(msg.Body))
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "advice.txt", msg.Attachments[0].Name)
	assert.Equal(t, "UTR No: UTR9876543", string(msg.Attachments[0].Data))
}

func TestParseFallbacks(t *testing.T) {
	raw := []byte("Subject: Query raised\r\n\r\nPlease share discharge summary.\r\n")
	mtime := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	msg, err := Parse(raw, mtime)
	require.NoError(t, err)
	assert.Len(t, msg.ID, 64)
	assert.Equal(t, mtime, msg.Date)
	assert.Equal(t, "Please share discharge summary.\r\n", msg.Body)
	assert.Empty(t, msg.Attachments)

	again, err := Parse(raw, mtime)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, again.ID)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("no header separator"), time.Time{})
	assert.Error(t, err)
}

func TestMessagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	write := func(name, date, id string) {
		raw := "Subject: " + name + "\r\nDate: " + date + "\r\nMessage-ID: <" + id + ">\r\n\r\nbody\r\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(raw), 0o644))
	}
	write("new.eml", "Wed, 05 Jun 2024 10:00:00 +0000", "new")
	write("mid.EML", "Tue, 04 Jun 2024 10:00:00 +0000", "mid")
	write("old.eml", "Mon, 01 Jan 2024 10:00:00 +0000", "old")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not mail"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "bad.eml"), []byte("garbage"), 0o644))

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	msgs, err := New(dir, since, zerolog.Nop()).Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "mid", msgs[0].ID)
	assert.Equal(t, "new", msgs[1].ID)

	all, err := New(dir, time.Time{}, zerolog.Nop()).Messages(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMessagesCancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.eml"), []byte("Subject: a\r\n\r\nx"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(dir, time.Time{}, zerolog.Nop()).Messages(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
