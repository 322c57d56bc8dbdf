package cpim

import (
	"testing"
	"time"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartInviteBody(t *testing.T, envelope string) ([]byte, string) {
	t.Helper()
	boundary := global.MultipartBoundary
	body := "--" + boundary + CRLF +
		"Content-Type: " + global.MimeSdp + CRLF + CRLF +
		"v=0" + CRLF +
		"--" + boundary + CRLF +
		"Content-Type: " + global.MimeCpim + CRLF + CRLF +
		envelope + CRLF +
		"--" + boundary + "--" + CRLF
	return []byte(body), global.MimeMultipartMixed + ";boundary=" + boundary
}

func TestFirstMessageFromInviteCpimPart(t *testing.T) {
	sent := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	local := time.Date(2026, 2, 2, 8, 0, 3, 0, time.UTC)
	envelope := BuildWithImdn("sip:alice@x", "sip:bob@x", "m-77", []byte("first!"), "text/plain", sent, false)
	body, contentType := multipartInviteBody(t, envelope)

	msg, wantsDelivery := FirstMessageFromInvite(body, contentType, "ignored subject", "sip:alice@x", "", local)
	require.NotNil(t, msg)
	assert.Equal(t, "m-77", msg.MessageID)
	assert.Equal(t, "first!", msg.Content)
	assert.Equal(t, "text/plain", msg.MimeType)
	assert.True(t, msg.TimestampSent.Equal(sent))
	assert.True(t, msg.Timestamp.Equal(local))
	assert.True(t, wantsDelivery, "envelope requested positive delivery")
}

func TestFirstMessageFromInviteReferredByWins(t *testing.T) {
	envelope := BuildWithImdn("sip:relay@x", "sip:bob@x", "m-78", []byte("stored"), "text/plain", time.Now(), false)
	body, contentType := multipartInviteBody(t, envelope)

	msg, _ := FirstMessageFromInvite(body, contentType, "", "sip:relay@x", "sip:origin@x", time.Now())
	require.NotNil(t, msg)
	assert.Equal(t, "sip:origin@x", msg.Remote, "relayed message belongs to the referred-by identity")
}

func TestFirstMessageFromInviteSubjectFallback(t *testing.T) {
	local := time.Now()
	msg, wantsDelivery := FirstMessageFromInvite([]byte("v=0"), global.MimeSdp, "hey there", "sip:alice@x", "", local)
	require.NotNil(t, msg)
	assert.Equal(t, "hey there", msg.Content)
	assert.Equal(t, global.MimeTextPlain, msg.MimeType)
	assert.Equal(t, "sip:alice@x", msg.Remote)
	// no authoritative remote timestamp exists on this path
	assert.True(t, msg.TimestampSent.Equal(msg.Timestamp))
	// the message id is local, so no report can reach the sender for it
	assert.False(t, wantsDelivery)
}

func TestFirstMessageFromInviteNothingCarried(t *testing.T) {
	msg, _ := FirstMessageFromInvite([]byte("v=0"), global.MimeSdp, "", "sip:alice@x", "", time.Now())
	assert.Nil(t, msg)
}

func TestFirstMessageFromInviteRejectsIncompleteCpim(t *testing.T) {
	// no imdn message-id: unusable as a chat message
	envelope := Build("sip:alice@x", "sip:bob@x", []byte("text"), "text/plain", time.Now())
	body, contentType := multipartInviteBody(t, envelope)
	msg, _ := FirstMessageFromInvite(body, contentType, "", "sip:alice@x", "", time.Now())
	assert.Nil(t, msg)
}

func TestFirstMessageFromInviteUnrecognizedMime(t *testing.T) {
	envelope := BuildWithImdn("sip:alice@x", "sip:bob@x", "m-1", []byte("<x/>"), "application/x-vendor-junk", time.Now(), false)
	body, contentType := multipartInviteBody(t, envelope)
	msg, _ := FirstMessageFromInvite(body, contentType, "", "sip:alice@x", "", time.Now())
	assert.Nil(t, msg)
}
