package chat

import (
	"fmt"
	"strings"
	"time"

	"rcsclientgo/cpim"
	"rcsclientgo/global"
	"rcsclientgo/system"
)

// ==============================================================
// Incoming lifecycle

func (c *ChatSession) runIncoming() {
	inv := c.invite
	c.setPhase(global.Invited)

	sdpBytes := ExtractSDP(inv.Body, inv.ContentType)
	remote, err := ParseMediaDescription(sdpBytes)
	if err != nil {
		system.LogWarning(system.LTSDPStack, fmt.Sprintf("Rejecting invite on chat [%s]: %v", c.ChatID, err))
		c.respond(488, "Not Acceptable Here", nil)
		c.abort(global.NewSessionErrorCause(global.SessionInitiationFailed, "unusable SDP offer", err))
		return
	}
	c.remoteMedia = remote

	c.FirstMessage, c.firstMsgNeedsReport = cpim.FirstMessageFromInvite(inv.Body, inv.ContentType, inv.Subject, inv.From, inv.ReferredBy, c.StartTime)

	if c.shouldAutoAccept() {
		c.emit(Event{Type: global.EvSessionAutoAccepted, Remote: inv.From})
	} else if !c.awaitAnswer() {
		return
	}

	c.setPhase(global.Accepting)
	c.emit(Event{Type: global.EvSessionAccepting, Remote: inv.From})
	c.answerAndEstablish()
}

// shouldAutoAccept is evaluated exactly once; a store-and-forward invite is
// always taken since the content already left the sender.
func (c *ChatSession) shouldAutoAccept() bool {
	if c.invite.ReferredBy != "" && carriesFileTransferTag(c.invite.ContactTags) {
		return true
	}
	if c.isGroup {
		return c.cfg.AutoAcceptGroupChat
	}
	return c.cfg.AutoAcceptChat
}

func carriesFileTransferTag(tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, "filetransfer") {
			return true
		}
	}
	return false
}

// awaitAnswer rings the user and blocks on their decision, the ringing
// timer, or session cancellation. Returns true only on explicit accept.
func (c *ChatSession) awaitAnswer() bool {
	c.respond(180, "Ringing", nil)
	c.setPhase(global.Ringing)
	c.emit(Event{Type: global.EvSessionInvited, Remote: c.invite.From, Message: c.FirstMessage})

	ringTimer := time.NewTimer(c.cfg.RingingPeriod())
	defer ringTimer.Stop()

	select {
	case accepted := <-c.answerCh:
		if accepted {
			return true
		}
		c.respond(603, "Decline", nil)
		c.emit(Event{Type: global.EvSessionRejected, Remote: c.invite.From, Reason: "declined"})
		c.abort(global.NewSessionError(global.SessionInitiationFailed, "declined by user"))
	case <-ringTimer.C:
		c.respond(408, "Request Timeout", nil)
		c.emit(Event{Type: global.EvSessionRejected, Remote: c.invite.From, Reason: "ringing timeout"})
		c.abort(global.NewSessionError(global.SessionInitiationFailed, "not answered in time"))
	case <-c.ctx.Done():
		c.respond(487, "Request Terminated", nil)
	}
	return false
}

func (c *ChatSession) answerAndEstablish() {
	c.localSetup = roleStrategies[global.Incoming].computeSetup(c)

	if c.localSetup == SetupPassive {
		ms, err := c.msrp.CreateServerSession(c)
		if err != nil {
			c.respond(500, "Server Internal Error", nil)
			c.abort(global.NewSessionErrorCause(global.MediaSessionFailed, "cannot bind local media session", err))
			return
		}
		c.media = ms
	}
	c.localPath = c.buildLocalPath()
	answer := c.buildLocalSDP()

	hdrs := NewSHsPointer(true)
	hdrs.SetHeader(global.Contact, fmt.Sprintf("<%s>", c.cfg.LocalUser))
	hdrs.SetHeader(global.Content_Type, global.MimeSdp)
	if err := c.sip.SendResponse(c.ctx, c.Dialog, 200, "OK", hdrs, answer); err != nil {
		c.abort(global.NewSessionErrorCause(global.SendResponseFailed, "cannot send final response", err))
		return
	}
	if err := c.sip.WaitAck(c.ctx, c.Dialog, c.cfg.TransactionTimeout()); err != nil {
		c.abort(global.NewSessionErrorCause(global.SessionInitiationFailed, "no ACK for final response", err))
		return
	}

	if !c.openMedia() {
		return
	}

	c.setPhase(global.Established)
	c.touch()
	go c.watchInactivity()
	c.emit(Event{Type: global.EvSessionStarted, Remote: c.invite.From})

	if c.FirstMessage != nil {
		c.store.RecordMessage(c.ChatID, c.FirstMessage, global.INBOUND)
		c.emit(Event{Type: global.EvMessageReceived, Message: c.FirstMessage, Remote: c.invite.From})
		if c.firstMsgNeedsReport && c.FirstMessage.MessageID != "" {
			if err := c.SendDeliveryStatus(c.FirstMessage.MessageID, global.Delivered, time.Now()); err != nil {
				system.LogWarning(system.LTIMDN, fmt.Sprintf("Delivery report for invite message [%s] not sent: %v", c.FirstMessage.MessageID, err))
			}
		}
	}
}

func (c *ChatSession) respond(statusCode int, reasonPhrase string, body []byte) {
	if err := c.sip.SendResponse(c.ctx, c.Dialog, statusCode, reasonPhrase, NewSHsPointer(true), body); err != nil {
		system.LogWarning(system.LTSIPStack, fmt.Sprintf("Response %d on chat [%s] not sent: %v", statusCode, c.ChatID, err))
	}
}
