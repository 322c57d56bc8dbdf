// Package cpim encodes and decodes CPIM envelopes (RFC 5438 conventions):
// a message header block, a blank line, a content header block, a blank line
// and the raw body. All functions are pure transforms of their inputs.
package cpim

import (
	"encoding/base64"
	"strings"
	"time"

	"rcsclientgo/global"
	"rcsclientgo/guid"
	"rcsclientgo/system"
)

const (
	CRLF = "\r\n"

	HeaderFrom                    = "From"
	HeaderTo                      = "To"
	HeaderCc                      = "cc"
	HeaderNS                      = "NS"
	HeaderDateTime                = "DateTime"
	HeaderContentType             = "Content-type"
	HeaderContentLength           = "Content-length"
	HeaderContentDisposition      = "Content-Disposition"
	HeaderContentTransferEncoding = "Content-Transfer-Encoding"

	ImdnNamespace   = "imdn <urn:ietf:params:imdn>"
	HeaderImdnMsgID = "imdn.Message-ID"
	HeaderImdnDispo = "imdn.Disposition-Notification"

	DispositionPositiveDelivery = "positive-delivery"
	DispositionNegativeDelivery = "negative-delivery"
	DispositionDisplay          = "display"

	charsetUtf8 = "; charset=utf-8"

	// DateLayout is the wire encoding of CPIM/IMDN date-times.
	DateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ==============================================================

// Envelope is the transient wire-level view of one CPIM message. Built fresh
// per outbound message, parsed fresh per inbound payload, never persisted.
type Envelope struct {
	From     string
	To       string
	Ccs      []string
	DateTime time.Time

	MessageID    string // imdn.Message-ID
	Dispositions []string

	ContentType             string
	ContentDisposition      string
	ContentTransferEncoding string
	ContentLength           int
	Content                 []byte
}

// BodyText returns the content decoded according to the declared transfer
// encoding.
func (env *Envelope) BodyText() string {
	if env.ContentTransferEncoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(string(env.Content)); err == nil {
			return string(decoded)
		}
	}
	return string(env.Content)
}

// WantsDisplayReport reports whether the sender asked for a display
// notification.
func (env *Envelope) WantsDisplayReport() bool {
	for _, d := range env.Dispositions {
		if d == DispositionDisplay {
			return true
		}
	}
	return false
}

// WantsDeliveryReport reports whether the sender asked for a positive
// delivery notification.
func (env *Envelope) WantsDeliveryReport() bool {
	for _, d := range env.Dispositions {
		if d == DispositionPositiveDelivery {
			return true
		}
	}
	return false
}

// CleanContentType strips any parameters from the declared content type.
func (env *Envelope) CleanContentType() string {
	if idx := strings.IndexByte(env.ContentType, ';'); idx != -1 {
		return strings.TrimSpace(env.ContentType[:idx])
	}
	return env.ContentType
}

// ==============================================================

func EncodeDate(t time.Time) string {
	return t.Format(DateLayout)
}

func DecodeDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatURI normalizes a contact identifier for a CPIM From/To/cc header.
// Bracketed URIs and quoted-display-name forms pass through untouched, a
// valid phone number becomes a tel URI, anything else is wrapped verbatim.
func FormatURI(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">") {
		return id
	}
	if strings.Contains(id, "\"") {
		return id
	}
	if global.PhoneNumberPattern.MatchString(id) {
		return "<tel:" + system.DropVisualSeparators(id) + ">"
	}
	return "<" + id + ">"
}

func appendCharset(contentType string) string {
	if strings.Contains(system.ASCIIToLower(contentType), "charset") {
		return contentType
	}
	return contentType + charsetUtf8
}

// ==============================================================
// Builders

// Build produces the plain CPIM envelope with From/To/DateTime/Content-type
// headers and no IMDN headers.
func Build(from, to string, content []byte, contentType string, timestampSent time.Time) string {
	var sb strings.Builder
	sb.WriteString(HeaderFrom + ": " + FormatURI(from) + CRLF)
	sb.WriteString(HeaderTo + ": " + FormatURI(to) + CRLF)
	sb.WriteString(HeaderDateTime + ": " + EncodeDate(timestampSent) + CRLF)
	sb.WriteString(CRLF)
	sb.WriteString(HeaderContentType + ": " + appendCharset(contentType) + CRLF)
	sb.WriteString(CRLF)
	sb.Write(content)
	return sb.String()
}

// BuildWithImdn produces a CPIM envelope that requests IMDN dispositions.
// The Content-length header carries the byte length of the content as it is
// actually written, after any transformation.
func BuildWithImdn(from, to, messageID string, content []byte, contentType string, timestampSent time.Time, wantDisplay bool) string {
	dispo := DispositionPositiveDelivery
	if wantDisplay {
		dispo += ", " + DispositionDisplay
	}
	var sb strings.Builder
	sb.WriteString(HeaderFrom + ": " + FormatURI(from) + CRLF)
	sb.WriteString(HeaderTo + ": " + FormatURI(to) + CRLF)
	sb.WriteString(HeaderNS + ": " + ImdnNamespace + CRLF)
	sb.WriteString(HeaderImdnMsgID + ": " + messageID + CRLF)
	sb.WriteString(HeaderDateTime + ": " + EncodeDate(timestampSent) + CRLF)
	sb.WriteString(HeaderImdnDispo + ": " + dispo + CRLF)
	sb.WriteString(CRLF)
	sb.WriteString(HeaderContentType + ": " + appendCharset(contentType) + CRLF)
	sb.WriteString(HeaderContentLength + ": " + system.Int2Str(len(content)) + CRLF)
	sb.WriteString(CRLF)
	sb.Write(content)
	return sb.String()
}

// BuildWithCc produces the one-to-many courtesy-copy envelope: one cc header
// per additional recipient and negative-and-positive delivery requested (no
// display). When base64 is requested the body really is encoded so the
// declared Content-Transfer-Encoding header is truthful.
func BuildWithCc(from, to string, ccs []string, messageID string, content []byte, contentType string, timestampSent time.Time, useBase64 bool) string {
	body := content
	if useBase64 {
		body = []byte(base64.StdEncoding.EncodeToString(content))
	}
	var sb strings.Builder
	sb.WriteString(HeaderFrom + ": " + FormatURI(from) + CRLF)
	sb.WriteString(HeaderTo + ": " + FormatURI(to) + CRLF)
	for _, cc := range ccs {
		sb.WriteString(HeaderCc + ": " + FormatURI(cc) + CRLF)
	}
	sb.WriteString(HeaderNS + ": " + ImdnNamespace + CRLF)
	sb.WriteString(HeaderImdnMsgID + ": " + messageID + CRLF)
	sb.WriteString(HeaderDateTime + ": " + EncodeDate(timestampSent) + CRLF)
	sb.WriteString(HeaderImdnDispo + ": " + DispositionNegativeDelivery + ", " + DispositionPositiveDelivery + CRLF)
	sb.WriteString(CRLF)
	sb.WriteString(HeaderContentType + ": " + appendCharset(contentType) + CRLF)
	if useBase64 {
		sb.WriteString(HeaderContentTransferEncoding + ": base64" + CRLF)
	}
	sb.WriteString(HeaderContentLength + ": " + system.Int2Str(len(body)) + CRLF)
	sb.WriteString(CRLF)
	sb.Write(body)
	return sb.String()
}

// BuildDeliveryReport wraps an IMDN report document. Reports travel under a
// fresh message id of their own, independent of the message they report on.
func BuildDeliveryReport(from, to string, imdnXML []byte, timestampSent time.Time) string {
	var sb strings.Builder
	sb.WriteString(HeaderFrom + ": " + FormatURI(from) + CRLF)
	sb.WriteString(HeaderTo + ": " + FormatURI(to) + CRLF)
	sb.WriteString(HeaderNS + ": " + ImdnNamespace + CRLF)
	sb.WriteString(HeaderImdnMsgID + ": " + guid.NewMessageID() + CRLF)
	sb.WriteString(HeaderDateTime + ": " + EncodeDate(timestampSent) + CRLF)
	sb.WriteString(CRLF)
	sb.WriteString(HeaderContentType + ": " + global.MimeImdn + CRLF)
	sb.WriteString(HeaderContentDisposition + ": notification" + CRLF)
	sb.WriteString(HeaderContentLength + ": " + system.Int2Str(len(imdnXML)) + CRLF)
	sb.WriteString(CRLF)
	sb.Write(imdnXML)
	return sb.String()
}

// ==============================================================
// Parser

// Parse decodes a CPIM payload. It returns nil when the payload is not
// syntactically a CPIM message; it never raises for that case.
func Parse(data []byte) *Envelope {
	text := string(data)
	headerPart, rest, found := strings.Cut(text, CRLF+CRLF)
	if !found {
		return nil
	}

	env := new(Envelope)
	if !parseHeaderBlock(env, headerPart) {
		return nil
	}
	if env.From == "" && env.To == "" {
		return nil
	}

	// optional content header block ahead of the body
	if contentHeaders, body, ok := strings.Cut(rest, CRLF+CRLF); ok && looksLikeHeaders(contentHeaders) {
		parseHeaderBlock(env, contentHeaders)
		env.Content = []byte(body)
	} else if strings.HasPrefix(system.ASCIIToLower(rest), "content-") && looksLikeHeaders(rest) {
		// content headers with no body
		parseHeaderBlock(env, rest)
	} else {
		env.Content = []byte(rest)
	}
	return env
}

func looksLikeHeaders(block string) bool {
	lines := strings.Split(block, CRLF)
	for _, ln := range lines {
		if ln == "" {
			continue
		}
		name, _, ok := strings.Cut(ln, ":")
		if !ok || strings.ContainsAny(name, " \t") {
			return false
		}
	}
	return len(lines) > 0
}

func parseHeaderBlock(env *Envelope, block string) bool {
	parsed := false
	for _, ln := range strings.Split(block, CRLF) {
		if ln == "" {
			continue
		}
		name, value, ok := strings.Cut(ln, ":")
		if !ok {
			return false
		}
		value = strings.TrimSpace(value)
		switch system.ASCIIToLower(name) {
		case "from":
			env.From = value
		case "to":
			env.To = value
		case "cc":
			env.Ccs = append(env.Ccs, value)
		case "ns":
			// namespace prefix declaration, imdn assumed below
		case "datetime":
			if t, ok := DecodeDate(value); ok {
				env.DateTime = t
			}
		case "imdn.message-id":
			env.MessageID = value
		case "imdn.disposition-notification":
			for _, d := range strings.Split(value, ",") {
				env.Dispositions = append(env.Dispositions, strings.TrimSpace(d))
			}
		case "content-type":
			env.ContentType = value
		case "content-length":
			env.ContentLength = system.Str2Int[int](value)
		case "content-disposition":
			env.ContentDisposition = value
		case "content-transfer-encoding":
			env.ContentTransferEncoding = value
		}
		parsed = true
	}
	return parsed
}
