package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailPlain(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com, carol@example.com\r\n" +
		"Subject: Quarterly report\r\n" +
		"\r\n" +
		"Please send the report by Friday.\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email.From)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, email.To)
	assert.Equal(t, "Quarterly report", email.Subject)
	assert.Contains(t, email.Body, "by Friday")
	assert.Equal(t, []string{"Quarterly report"}, email.Headers["Subject"])
}

func TestParseEmailPastedText(t *testing.T) {
	raw := "Hi team,\nlet's sync next week about the launch.\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, email.Body)
	assert.Empty(t, email.From)
	assert.Empty(t, email.Subject)
}

func TestParseEmailEncodedSubject(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: =?UTF-8?B?UmFwcG9ydCBtZW5zdWVs?=\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Rapport mensuel", email.Subject)
}

func TestParseEmailMultipart(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: Multipart\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"outer\"\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Call me back =\r\ntomorrow.\r\n" +
		"--outer\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>Call me back tomorrow.</p>\r\n" +
		"--outer--\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, email.Body, "Call me back tomorrow.")
	assert.NotContains(t, email.Body, "<p>")
}

func TestParseEmailBase64Body(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: Encoded\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"SGVsbG8sIHBsZWFzZSByZXBs\r\n" +
		"eSBieSBNb25kYXku\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Hello, please reply by Monday.", email.Body)
}

func TestParseEmailLatin1Body(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Caf=E9 tomorrow?\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, email.Body, "Café tomorrow?")
}

func TestParseEmailMultipartWithoutText(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b\"\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: application/pdf\r\n" +
		"\r\n" +
		"%PDF-1.4\r\n" +
		"--b--\r\n"

	email, err := ParseEmail([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "[No text content found in multipart message]", email.Body)
}
