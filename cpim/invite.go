package cpim

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"rcsclientgo/global"
	"rcsclientgo/guid"
	"rcsclientgo/system"
)

// extractCpimPart pulls the first message/cpim part out of an INVITE body.
func extractCpimPart(body []byte, contentType string) []byte {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	if mediaType == global.MimeCpim {
		return body
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil
		}
		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}
		if partType == global.MimeCpim {
			data, err := io.ReadAll(part)
			if err != nil {
				return nil
			}
			return data
		}
	}
}

// FirstMessageFromInvite extracts the first chat message carried inside an
// inbound INVITE. A CPIM part wins; without one a non-empty Subject header is
// used as plain text, with the sent timestamp forced equal to the local one
// since no authoritative remote timestamp exists on that path. A relayed
// (store-and-forward) invite attributes the message to the referred-by
// identity, not the relay. The second result reports whether the sender asked
// for a positive delivery notification.
func FirstMessageFromInvite(body []byte, contentType, subject, remote, referredBy string, localTimestamp time.Time) (*global.ChatMessage, bool) {
	if referredBy != "" {
		remote = referredBy
	}
	if payload := extractCpimPart(body, contentType); payload != nil {
		if env := Parse(payload); env != nil {
			mimeType := env.CleanContentType()
			content := env.BodyText()
			if env.MessageID == "" || content == "" || mimeType == "" {
				return nil, false
			}
			if !global.IsRecognizedMimeType(mimeType) {
				system.LogWarning(system.LTChatMessage, fmt.Sprintf("Discarding first message with unrecognized MIME type [%s]", mimeType))
				return nil, false
			}
			sent := env.DateTime
			if sent.IsZero() {
				sent = localTimestamp
			}
			return &global.ChatMessage{
				MessageID:     env.MessageID,
				Remote:        remote,
				Content:       content,
				MimeType:      mimeType,
				Timestamp:     localTimestamp,
				TimestampSent: sent,
			}, env.WantsDeliveryReport()
		}
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, false
	}
	// the message id below is local; no report can reach the sender for it
	return &global.ChatMessage{
		MessageID:     guid.NewMessageID(),
		Remote:        remote,
		Content:       subject,
		MimeType:      global.MimeTextPlain,
		Timestamp:     localTimestamp,
		TimestampSent: localTimestamp,
	}, false
}
