package chat

import (
	"fmt"
	"strings"
	"time"

	"rcsclientgo/cpim"
	"rcsclientgo/global"
	"rcsclientgo/imdn"
	"rcsclientgo/system"
)

// ShouldSendDisplayReport decides whether a display notification goes out for
// a received message: the sender must have asked for one and local policy
// must allow disclosing read state.
func ShouldSendDisplayReport(env *cpim.Envelope, cfg global.ChatConfig) bool {
	return cfg.SendDisplayReports && env != nil && env.WantsDisplayReport()
}

// SendDeliveryStatus sends an IMDN report for msgID over the media plane. The
// chunk is tagged so a transfer failure can be attributed to the report
// rather than to a user message.
func (c *ChatSession) SendDeliveryStatus(msgID string, status global.ImdnStatus, timestamp time.Time) error {
	if c.media == nil {
		return global.NewSessionError(global.MediaSessionBroken, "no media session to carry report")
	}
	report := imdn.BuildXML(msgID, status, timestamp)
	envelope := cpim.BuildDeliveryReport(c.cfg.LocalUser, c.Remote, report, timestamp)
	chunk := chunkTypeForStatus(status)

	reportID := msgID + "-" + strings.ToLower(imdn.KindForStatus(status).String())
	err := c.media.SendChunks(c.ctx, strings.NewReader(envelope), reportID, global.MimeCpim, int64(len(envelope)), chunk)
	if err != nil {
		system.LogWarning(system.LTIMDN, fmt.Sprintf("Report [%s/%s] send failed for chat [%s]: %v", msgID, status.String(), c.ChatID, err))
		return err
	}
	system.LogInfo(system.LTIMDN, fmt.Sprintf("Report [%s/%s] sent for chat [%s]", msgID, status.String(), c.ChatID))
	return nil
}

// MarkMessageDisplayed sends the display notification for a previously
// received message, once, and only if its sender asked for one.
func (c *ChatSession) MarkMessageDisplayed(msgID string) error {
	c.displayLock.Lock()
	_, wanted := c.displayWanted[msgID]
	if wanted {
		delete(c.displayWanted, msgID)
	}
	c.displayLock.Unlock()
	if !wanted {
		return nil
	}
	return c.SendDeliveryStatus(msgID, global.Displayed, time.Now())
}

func chunkTypeForStatus(status global.ImdnStatus) global.ChunkType {
	switch status {
	case global.Displayed:
		return global.ChunkDisplayReport
	case global.Delivered:
		return global.ChunkDeliveredReport
	default:
		return global.ChunkGeneric
	}
}

// dispatchInboundReport applies an inbound IMDN notification. Reports
// addressed to someone else are discarded, not forwarded.
func (c *ChatSession) dispatchInboundReport(env *cpim.Envelope) {
	if !uriMatches(env.To, c.cfg.LocalUser) {
		system.LogWarning(system.LTIMDN, fmt.Sprintf("Discarding report addressed to [%s], local user is [%s]", env.To, c.cfg.LocalUser))
		return
	}
	report, err := imdn.ParseReport(env.Content)
	if err != nil {
		system.LogWarning(system.LTIMDN, fmt.Sprintf("Unreadable report on chat [%s]: %v", c.ChatID, err))
		return
	}
	at := report.DateTime
	if at.IsZero() {
		at = time.Now()
	}
	c.store.RecordDeliveryTimestamp(report.MessageID, report.Status, at)
	c.emit(Event{Type: global.EvDeliveryStatusReceived, Remote: env.From, Report: report})
}

// uriMatches compares two SIP/tel identities ignoring brackets, display
// names and visual separators in phone numbers.
func uriMatches(a, b string) bool {
	return canonicalURI(a) == canonicalURI(b)
}

func canonicalURI(uri string) string {
	if idx := strings.IndexByte(uri, '<'); idx != -1 {
		uri = uri[idx+1:]
		if end := strings.IndexByte(uri, '>'); end != -1 {
			uri = uri[:end]
		}
	}
	if idx := strings.IndexByte(uri, ';'); idx != -1 {
		uri = uri[:idx]
	}
	uri = strings.TrimPrefix(uri, "sip:")
	uri = strings.TrimPrefix(uri, "tel:")
	if idx := strings.IndexByte(uri, '@'); idx != -1 {
		uri = uri[:idx]
	}
	if global.PhoneNumberPattern.MatchString(uri) {
		uri = system.DropVisualSeparators(uri)
	}
	return system.ASCIIToLower(uri)
}
