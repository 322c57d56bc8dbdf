package chat

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"rcsclientgo/capability"
	"rcsclientgo/cpim"
	"rcsclientgo/global"
	"rcsclientgo/payload"
	"rcsclientgo/system"
)

// roleStrategy isolates the few operations that genuinely vary between
// session variants; the lifecycle itself is shared.
type roleStrategy struct {
	buildInviteBody func(*ChatSession) ([]byte, string)
	computeSetup    func(*ChatSession) string
	postEstablish   func(*ChatSession)
}

var roleStrategies = map[global.SessionRole]roleStrategy{
	global.OutgoingAdhoc: {
		buildInviteBody: buildAdhocInviteBody,
		computeSetup:    computeOfferSetup,
		postEstablish:   postEstablishAdhoc,
	},
	global.OutgoingRestart: {
		buildInviteBody: buildGroupInviteBody,
		computeSetup:    computeOfferSetup,
		postEstablish:   postEstablishGroup,
	},
	global.Incoming: {
		computeSetup: computeAnswerSetup,
	},
	global.LargeMessageStandalone: {
		buildInviteBody: buildLargeMessageInviteBody,
		computeSetup:    computeOfferSetup,
		postEstablish:   postEstablishLargeMessage,
	},
}

func computeOfferSetup(c *ChatSession) string {
	if c.cfg.PreferPassiveSetup {
		return SetupPassive
	}
	return SetupActive
}

func computeAnswerSetup(c *ChatSession) string {
	if c.remoteMedia == nil {
		return SetupPassive
	}
	return ComplementSetup(c.remoteMedia.Setup)
}

// ==============================================================
// Outgoing lifecycle

func (c *ChatSession) runOutgoing() {
	strategy := roleStrategies[c.Role]
	c.localSetup = strategy.computeSetup(c)

	// a passive endpoint must bind its MSRP socket ahead of the offer so the
	// advertised port is real
	if c.localSetup == SetupPassive {
		ms, err := c.msrp.CreateServerSession(c)
		if err != nil {
			c.abort(global.NewSessionErrorCause(global.MediaSessionFailed, "cannot bind local media session", err))
			return
		}
		c.media = ms
	}
	c.localPath = c.buildLocalPath()

	if c.isGroup && c.participants != nil {
		inviting := make(map[string]global.ParticipantStatus)
		for contact := range c.participants.Snapshot() {
			inviting[contact] = global.Inviting
		}
		c.participants.ApplyUpdate(inviting)
	}

	body, contentType := strategy.buildInviteBody(c)
	req := c.buildInviteRequest(body, contentType)

	c.setPhase(global.OfferSent)
	rsps, err := c.sendInitialWithProxyAuthRetry(req)
	if err != nil {
		c.failParticipantsBatch()
		c.abort(global.NewSessionErrorCause(c.initiationErrorCode(), "INVITE failed", err))
		return
	}
	if !rsps.IsSuccess() {
		c.failParticipantsBatch()
		c.abort(c.classifyInviteFailure(rsps))
		return
	}

	c.recordDialogFromResponse(rsps)
	remote, perr := ParseMediaDescription(rsps.Body)
	if perr != nil {
		c.abort(global.NewSessionErrorCause(global.SessionInitiationFailed, "unusable SDP answer", perr))
		return
	}
	c.remoteMedia = remote

	// ACK completes the offer/answer exchange
	ackHdrs := NewSHsPointer(false)
	c.Dialog.NextCSeq()
	if _, err := c.sip.SendSubsequentRequest(c.ctx, c.Dialog, &SipRequest{Method: global.ACK, RequestURI: c.Dialog.RemoteContact, Headers: ackHdrs}); err != nil {
		system.LogWarning(system.LTSIPStack, fmt.Sprintf("ACK send failed for chat [%s]: %v", c.ChatID, err))
	}

	if !c.openMedia() {
		return
	}

	if c.isGroup && c.participants != nil {
		invited := make(map[string]global.ParticipantStatus)
		for contact := range c.participants.ByStatus(global.Inviting) {
			invited[contact] = global.ParticipantInvited
		}
		c.participants.ApplyUpdate(invited)
	}

	c.setPhase(global.Established)
	c.touch()
	go c.watchInactivity()
	c.emit(Event{Type: global.EvSessionStarted, Remote: c.Remote})

	if strategy.postEstablish != nil {
		strategy.postEstablish(c)
	}
}

// openMedia connects or awaits the MSRP session per the negotiated setup
// roles and moves the session through MediaNegotiating.
func (c *ChatSession) openMedia() bool {
	c.setPhase(global.MediaNegotiating)

	if c.localSetup == SetupActive {
		ms, err := c.msrp.CreateClientSession(c.remoteMedia.Host, c.remoteMedia.Port, c.remoteMedia.Path, c.remoteMedia.Fingerprint, c)
		if err != nil {
			c.abort(global.NewSessionErrorCause(global.MediaSessionFailed, "cannot create media session", err))
			return false
		}
		c.media = ms
	}
	if err := c.media.Open(c.ctx, c.cfg.TransactionTimeout()); err != nil {
		c.abort(global.NewSessionErrorCause(global.MediaSessionFailed, "media session open failed", err))
		return false
	}
	return true
}

func (c *ChatSession) failParticipantsBatch() {
	if !c.isGroup || c.participants == nil {
		return
	}
	failed := make(map[string]global.ParticipantStatus)
	for contact := range c.participants.ByStatus(global.Inviting, global.InviteQueued) {
		failed[contact] = global.ParticipantFailed
	}
	c.participants.ApplyUpdate(failed)
}

func (c *ChatSession) initiationErrorCode() global.SessionErrorCode {
	if c.Role.IsRestart() {
		return global.SessionRestartFailed
	}
	return global.SessionInitiationFailed
}

// classifyInviteFailure distinguishes the restart-specific authorization
// failure and the vanished-conference case from generic initiation failure.
func (c *ChatSession) classifyInviteFailure(rsps *SipResponse) *global.SessionError {
	if c.Role.IsRestart() {
		if rsps.StatusCode == 404 {
			return global.NewSessionError(global.SessionNotFound, "conference focus reports no such session")
		}
		if rsps.StatusCode == 403 && rsps.WarningContains(global.RestartNotAuthorisedWarning) {
			return global.NewSessionError(global.SessionRestartFailed, "session restart not authorised")
		}
	}
	return global.NewSessionError(global.SessionInitiationFailed, fmt.Sprintf("INVITE rejected with %d %s", rsps.StatusCode, rsps.ReasonPhrase))
}

// sendInitialWithProxyAuthRetry sends the INVITE and honours exactly one 407
// challenge; a second 407 is a final failure.
func (c *ChatSession) sendInitialWithProxyAuthRetry(req *SipRequest) (*SipResponse, error) {
	rsps, err := c.sendInitial(req)
	if err != nil {
		return nil, err
	}
	if rsps.StatusCode != 407 {
		return rsps, nil
	}
	challenge := rsps.Headers.ValueHeader(global.Proxy_Authenticate)
	authorization, err := c.sip.ProxyAuthorization(challenge, req.Method, req.RequestURI)
	if err != nil {
		return nil, global.NewNetworkError("proxy authorization", err)
	}
	// the retry carries its own header set; the original request stays as sent
	retry := *req
	retry.Headers = req.Headers.Clone()
	retry.Headers.SetHeader(global.Proxy_Authorization, authorization)
	return c.sendInitial(&retry)
}

func (c *ChatSession) sendInitial(req *SipRequest) (*SipResponse, error) {
	trans, err := c.sip.SendInitialRequest(c.ctx, req)
	if err != nil {
		return nil, global.NewNetworkError("INVITE", err)
	}
	rsps, err := trans.WaitResponse(c.ctx, c.cfg.TransactionTimeout())
	if err != nil {
		return nil, global.NewNetworkError("INVITE response", err)
	}
	return rsps, nil
}

func (c *ChatSession) recordDialogFromResponse(rsps *SipResponse) {
	if rsps.Headers == nil {
		return
	}
	if contact := rsps.Headers.ValueHeader(global.Contact); contact != "" {
		c.Dialog.RemoteContact = strings.Trim(contact, "<>")
	}
	c.Dialog.RemoteSDP = rsps.Body
}

// ==============================================================
// INVITE construction

func (c *ChatSession) buildInviteRequest(body []byte, contentType string) *SipRequest {
	hdrs := NewSHsPointer(true)

	var contactTags, acceptTags []string
	if c.isGroup {
		contactTags = capability.SupportedTagsForGroupChat(c.cfg)
		acceptTags = capability.AcceptContactTagsForGroupChat(c.cfg)
	} else if c.Role == global.LargeMessageStandalone {
		contactTags = []string{capability.TagForLargeMessageMode(c.cfg)}
		acceptTags = contactTags
	} else {
		contactTags = capability.SupportedTagsForChat(c.cfg)
		acceptTags = []string{capability.TagForSessionMode(c.cfg)}
	}
	c.NegotiatedTags = contactTags

	hdrs.SetHeader(global.Contact, fmt.Sprintf("<%s>;%s", c.cfg.LocalUser, strings.Join(contactTags, ";")))
	hdrs.SetHeader(global.Accept_Contact, "*;"+strings.Join(acceptTags, ";"))
	hdrs.SetHeader(global.P_Preferred_Identity, cpim.FormatURI(c.cfg.LocalUser))
	if c.cfg.Dialect == global.CPM {
		hdrs.SetHeader(global.P_Preferred_Service, capability.IcsiCpmSession)
		hdrs.SetHeader(global.Conversation_ID, c.Dialog.ConversationID)
		hdrs.SetHeader(global.Contribution_ID, c.Dialog.ContributionID)
	}
	if c.Subject != "" {
		hdrs.SetHeader(global.Subject, c.Subject)
	}
	if c.isGroup {
		hdrs.SetHeader(global.Require, "recipient-list-invite")
	}

	return &SipRequest{
		Method:      global.INVITE,
		RequestURI:  c.Dialog.RemoteURI,
		Headers:     hdrs,
		ContentType: contentType,
		Body:        body,
	}
}

func (c *ChatSession) buildLocalPath() string {
	port := global.ActiveSetupPort
	if c.media != nil {
		port = c.media.LocalPort()
	}
	return fmt.Sprintf("msrp://%s:%d/%s;tcp", c.localHost, port, c.Dialog.CallID)
}

func (c *ChatSession) buildLocalSDP() []byte {
	port := 0
	if c.media != nil {
		port = c.media.LocalPort()
	}
	data := BuildMediaDescription(c.localHost, port, c.localSetup, c.localPath, c.AcceptTypes, c.WrappedTypes, "")
	c.Dialog.LocalSDP = data
	return data
}

func buildAdhocInviteBody(c *ChatSession) ([]byte, string) {
	sdpBytes := c.buildLocalSDP()
	if c.FirstMessage == nil {
		return sdpBytes, global.MimeSdp
	}
	envelope := cpim.BuildWithImdn(c.cfg.LocalUser, c.Remote, c.FirstMessage.MessageID,
		[]byte(c.FirstMessage.Content), c.FirstMessage.MimeType, c.FirstMessage.TimestampSent, c.cfg.SendDisplayReports)
	return buildMultipartMixed(
		contentPart{global.MimeSdp, sdpBytes},
		contentPart{global.MimeCpim, []byte(envelope)},
	)
}

func buildGroupInviteBody(c *ChatSession) ([]byte, string) {
	sdpBytes := c.buildLocalSDP()
	var uris []string
	for contact := range c.participants.Snapshot() {
		uris = append(uris, contact)
	}
	return buildMultipartMixed(
		contentPart{global.MimeSdp, sdpBytes},
		contentPart{global.MimeResourceList, payload.BuildResourceList(uris)},
	)
}

func buildLargeMessageInviteBody(c *ChatSession) ([]byte, string) {
	return c.buildLocalSDP(), global.MimeSdp
}

func postEstablishAdhoc(c *ChatSession) {
	if c.FirstMessage != nil {
		c.store.RecordMessage(c.ChatID, c.FirstMessage, global.OUTBOUND)
		c.emit(Event{Type: global.EvMessageSent, Message: c.FirstMessage})
	}
}

// postEstablishLargeMessage pushes the single oversized message and tears
// the session straight down, pager-mode style.
func postEstablishLargeMessage(c *ChatSession) {
	if c.FirstMessage == nil {
		c.Terminate(global.TerminationBySystem)
		return
	}
	envelope := cpim.BuildWithImdn(c.cfg.LocalUser, c.Remote, c.FirstMessage.MessageID,
		[]byte(c.FirstMessage.Content), c.FirstMessage.MimeType, c.FirstMessage.TimestampSent, c.cfg.SendDisplayReports)
	err := c.media.SendChunks(c.ctx, strings.NewReader(envelope), c.FirstMessage.MessageID,
		global.MimeCpim, int64(len(envelope)), global.ChunkGeneric)
	if err != nil {
		c.emit(Event{Type: global.EvMessageSendFailed, Message: c.FirstMessage})
		c.classifyTransferError(c.FirstMessage.MessageID, err, global.ChunkGeneric)
		return
	}
	c.store.RecordMessage(c.ChatID, c.FirstMessage, global.OUTBOUND)
	c.emit(Event{Type: global.EvMessageSent, Message: c.FirstMessage})
	c.Terminate(global.TerminationBySystem)
}

func postEstablishGroup(c *ChatSession) {
	// subscribe to conference events so participant updates flow in
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.TransactionTimeout())
	defer cancel()
	hdrs := NewSHsPointer(true)
	hdrs.SetHeader(global.Event, "conference")
	hdrs.SetHeader(global.Expires, system.Int2Str(c.cfg.SessionRefreshSec))
	if _, err := c.sendSubsequent(ctx, &SipRequest{Method: global.SUBSCRIBE, RequestURI: c.Dialog.RemoteContact, Headers: hdrs}); err != nil {
		system.LogWarning(system.LTGroupChat, fmt.Sprintf("Conference subscribe failed for chat [%s]: %v", c.ChatID, err))
	}
}

// ==============================================================
// Multipart assembly

type contentPart struct {
	contentType string
	data        []byte
}

func buildMultipartMixed(parts ...contentPart) ([]byte, string) {
	var buf bytes.Buffer
	for _, part := range parts {
		buf.WriteString("--" + global.MultipartBoundary + cpim.CRLF)
		buf.WriteString("Content-Type: " + part.contentType + cpim.CRLF)
		buf.WriteString("Content-Length: " + system.Int2Str(len(part.data)) + cpim.CRLF)
		buf.WriteString(cpim.CRLF)
		buf.Write(part.data)
		buf.WriteString(cpim.CRLF)
	}
	buf.WriteString("--" + global.MultipartBoundary + "--")
	return buf.Bytes(), global.MimeMultipartMixed + ";boundary=" + global.MultipartBoundary
}
