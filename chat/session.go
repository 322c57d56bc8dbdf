package chat

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"rcsclientgo/cpim"
	"rcsclientgo/global"
	"rcsclientgo/guid"
	"rcsclientgo/system"
)

// ChatSession drives one chat session from creation to terminal state. One
// goroutine per session; the only shared state is the participant directory
// and the phase, both lock-protected. The config snapshot is immutable for
// the session's lifetime.
type ChatSession struct {
	Role      global.SessionRole
	Direction global.Direction
	ChatID    string
	Remote    string
	Subject   string

	cfg global.ChatConfig

	Dialog *DialogState

	phase     global.SessionPhase
	phaseLock sync.RWMutex

	pendingRemoval atomic.Bool

	NegotiatedTags []string
	AcceptTypes    string
	WrappedTypes   string

	FirstMessage        *global.ChatMessage
	firstMsgNeedsReport bool

	participants *GroupParticipantDirectory
	isGroup      bool

	sip   SipTransport
	msrp  MsrpTransport
	store PersistenceLog
	caps  CapabilityStore

	media      MsrpSession
	localSetup string
	localHost  string
	localPath  string

	remoteMedia *MediaDescription

	invite *InboundInvite // incoming sessions only

	displayWanted map[string]struct{} // message-ids awaiting a display report
	displayLock   sync.Mutex

	events       chan Event
	eventsLock   sync.Mutex
	eventsClosed bool
	broadcast    func(Event)

	answerCh chan bool

	ctx    context.Context
	cancel context.CancelFunc

	terminated   atomic.Bool
	lastActivity atomic.Int64

	StartTime time.Time
	EndTime   time.Time
}

// InboundInvite is the decoded view of a received INVITE handed to the engine
// by the SIP transport collaborator.
type InboundInvite struct {
	From        string
	DisplayName string
	CallID      string
	Contact     string
	Subject     string
	ReferredBy  string

	ConversationID string
	ContributionID string
	ContactTags    []string

	ContentType string
	Body        []byte

	IsGroup bool
}

// ==============================================================
// Constructors

func newSession(role global.SessionRole, cfg global.ChatConfig, deps *Engine) *ChatSession {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ChatSession{
		Role:         role,
		cfg:          cfg,
		phase:        global.Created,
		sip:          deps.sip,
		msrp:         deps.msrp,
		store:        deps.store,
		caps:         deps.caps,
		broadcast:    deps.dispatch,
		events:       make(chan Event, eventBufferSize),
		answerCh:     make(chan bool, 1),
		ctx:          ctx,
		cancel:       cancel,
		localHost:    deps.localHost,
		StartTime:    time.Now(),
		AcceptTypes:  DefaultAcceptTypes,
		WrappedTypes: DefaultWrappedTypes,
	}
	if role.IsOutgoing() {
		c.Direction = global.OUTBOUND
	} else {
		c.Direction = global.INBOUND
	}
	return c
}

func (c *ChatSession) String() string {
	return fmt.Sprintf("Chat-ID: %s, Call-ID: %s, Phase: %s, Role: %s", c.ChatID, c.Dialog.CallID, c.PhaseSYNC(), c.Role)
}

// ==============================================================
// Phase handling

func (c *ChatSession) PhaseSYNC() global.SessionPhase {
	c.phaseLock.RLock()
	defer c.phaseLock.RUnlock()
	return c.phase
}

func (c *ChatSession) setPhase(p global.SessionPhase) {
	c.phaseLock.Lock()
	prev := c.phase
	c.phase = p
	c.phaseLock.Unlock()
	if prev != p {
		system.LogInfo(system.LTChatSession, fmt.Sprintf("Chat [%s] %s -> %s", c.ChatID, prev, p))
	}
}

func (c *ChatSession) IsGroup() bool {
	return c.isGroup
}

func (c *ChatSession) Participants() *GroupParticipantDirectory {
	return c.participants
}

// MarkPendingRemoval flags this session as superseded by a newer one for the
// same chat id. It is excluded from routing and disposed by inactivity
// instead of an active teardown.
func (c *ChatSession) MarkPendingRemoval() {
	c.pendingRemoval.Store(true)
}

func (c *ChatSession) IsPendingRemoval() bool {
	return c.pendingRemoval.Load()
}

// ==============================================================
// Answer plumbing (incoming sessions)

// Accept resolves a pending inbound invitation positively.
func (c *ChatSession) Accept() {
	select {
	case c.answerCh <- true:
	default:
	}
}

// Reject resolves a pending inbound invitation negatively.
func (c *ChatSession) Reject() {
	select {
	case c.answerCh <- false:
	default:
	}
}

// ==============================================================
// Run boundary

// Run executes the session lifecycle on its own goroutine. Any internal
// fault is caught here, turned into a session failure event and never allowed
// to take the process down with it.
func (c *ChatSession) Run() {
	global.WtGrp.Add(1)
	go func() {
		defer global.WtGrp.Done()
		defer func() {
			if r := recover(); r != nil {
				system.LogCallStack(r)
				c.abort(global.NewSessionError(global.InternalFault, fmt.Sprintf("unexpected fault: %v", r)))
			}
		}()
		if c.Role.IsOutgoing() {
			c.runOutgoing()
		} else {
			c.runIncoming()
		}
	}()
}

// ==============================================================
// Messaging

// SendTextMessage composes, wraps and ships one chat message over the media
// session, requesting delivery and (per policy) display dispositions.
func (c *ChatSession) SendTextMessage(content string) (*global.ChatMessage, error) {
	return c.SendMessage(content, global.MimeTextPlain)
}

func (c *ChatSession) SendMessage(content, mimeType string) (*global.ChatMessage, error) {
	if c.PhaseSYNC() != global.Established {
		return nil, global.NewSessionError(global.MediaSessionFailed, "session not established")
	}
	now := time.Now()
	msg := &global.ChatMessage{
		MessageID:     guid.NewMessageID(),
		Remote:        c.Remote,
		Content:       content,
		MimeType:      mimeType,
		Timestamp:     now,
		TimestampSent: now,
		DisplayName:   c.cfg.LocalDisplayName,
	}

	envelope := cpim.BuildWithImdn(c.cfg.LocalUser, c.Remote, msg.MessageID, []byte(content), mimeType, now, c.cfg.SendDisplayReports)
	data := []byte(envelope)
	err := c.media.SendChunks(c.ctx, bytes.NewReader(data), msg.MessageID, global.MimeCpim, int64(len(data)), global.ChunkGeneric)
	if err != nil {
		c.emit(Event{Type: global.EvMessageSendFailed, Message: msg, Reason: err.Error()})
		return msg, c.classifyTransferError(msg.MessageID, err, global.ChunkGeneric)
	}

	c.touch()
	c.store.RecordMessage(c.ChatID, msg, global.OUTBOUND)
	c.emit(Event{Type: global.EvMessageSent, Message: msg})
	return msg, nil
}

// ==============================================================
// Inactivity

func (c *ChatSession) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// watchInactivity disposes the session once nothing moved over the media
// plane for the configured window. Superseded sessions go down this path
// instead of via an active teardown.
func (c *ChatSession) watchInactivity() {
	timeout := c.cfg.InactivityTimeout()
	if timeout <= 0 {
		return
	}
	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, c.lastActivity.Load()))
			if idle >= timeout {
				system.LogInfo(system.LTChatSession, fmt.Sprintf("Chat [%s] idle for %v, disposing", c.ChatID, idle.Round(time.Second)))
				c.Terminate(global.TerminationByInactivity)
				return
			}
		}
	}
}

// classifyTransferError separates a broken transfer, which leaves the session
// usable for other messages, from a dead media session.
func (c *ChatSession) classifyTransferError(msgID string, err error, chunk global.ChunkType) *global.SessionError {
	if me, ok := err.(*MsrpError); ok && me.Recoverable() {
		serr := global.NewSessionErrorCause(global.MediaSessionBroken, fmt.Sprintf("transfer of [%s] broken", msgID), err)
		c.emit(Event{Type: global.EvImError, Err: serr, Reason: chunk.String()})
		return serr
	}
	serr := global.NewSessionErrorCause(global.MediaSessionFailed, fmt.Sprintf("media session failed on [%s]", msgID), err)
	c.abort(serr)
	return serr
}

// ==============================================================
// Termination

// Terminate tears the session down. Idempotent: concurrent triggers (local
// close, remote BYE, inactivity) collapse into a single cleanup and a single
// aborted notification.
func (c *ChatSession) Terminate(reason global.TerminationReason) {
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}
	c.setPhase(global.Terminating)
	c.cancel() // unblock any pending wait promptly

	// protocol-correct teardown is pointless over a dead connection, and a
	// superseded draining session must not disturb its replacement
	if reason != global.TerminationConnectionLost && !c.IsPendingRemoval() {
		c.sendProtocolTeardown(reason)
	}
	c.cleanup()
	c.emit(Event{Type: global.EvSessionAborted, Reason: reason.String()})
	c.closeEvents()
}

// abort terminates after a fatal session error, emitting the error event
// first. Cleanup runs even if the notification path misbehaves.
func (c *ChatSession) abort(serr *global.SessionError) {
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}
	c.setPhase(global.Terminating)
	c.cancel()
	func() {
		defer func() {
			if r := recover(); r != nil {
				system.LogCallStack(r)
			}
		}()
		c.emit(Event{Type: global.EvImError, Err: serr})
	}()
	c.cleanup()
	c.emit(Event{Type: global.EvSessionAborted, Reason: serr.Code.String()})
	c.closeEvents()
}

func (c *ChatSession) sendProtocolTeardown(reason global.TerminationReason) {
	if c.Dialog == nil || c.Dialog.RemoteContact == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TransactionTimeout())
	defer cancel()

	if c.isGroup {
		// conference event un-subscribe ahead of leaving the focus
		hdrs := NewSHsPointer(true)
		hdrs.SetHeader(global.Event, "conference")
		hdrs.SetHeader(global.Expires, "0")
		if _, err := c.sendSubsequent(ctx, &SipRequest{Method: global.SUBSCRIBE, RequestURI: c.Dialog.RemoteContact, Headers: hdrs}); err != nil {
			system.LogWarning(system.LTChatSession, fmt.Sprintf("Conference un-subscribe failed for chat [%s]: %v", c.ChatID, err))
		}
	}

	hdrs := NewSHsPointer(true)
	hdrs.SetHeader(global.Reason, fmt.Sprintf("SIP;text=\"%s\"", reason))
	if _, err := c.sendSubsequent(ctx, &SipRequest{Method: global.BYE, RequestURI: c.Dialog.RemoteContact, Headers: hdrs}); err != nil {
		system.LogWarning(system.LTChatSession, fmt.Sprintf("BYE failed for chat [%s]: %v", c.ChatID, err))
	}
}

func (c *ChatSession) cleanup() {
	if c.media != nil {
		c.media.Close()
	}
	c.setPhase(global.Terminated)
	c.EndTime = time.Now()
}

func (c *ChatSession) closeEvents() {
	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()
	if c.eventsClosed {
		return
	}
	c.eventsClosed = true
	close(c.events)
}

// HandleRemoteBye processes an inbound BYE from the remote side or the
// conference focus.
func (c *ChatSession) HandleRemoteBye() {
	c.Terminate(global.TerminationByRemote)
}

// ==============================================================
// MSRP listener

func (c *ChatSession) OnDataTransferred(msgID string) {
	system.LogInfo(system.LTMediaStack, fmt.Sprintf("Chunk delivery confirmed for [%s]", msgID))
}

func (c *ChatSession) OnDataReceived(msgID string, data []byte, mimeType string) {
	if mimeType != global.MimeCpim {
		system.LogWarning(system.LTMediaStack, fmt.Sprintf("Ignoring non-CPIM payload [%s] on chat [%s]", mimeType, c.ChatID))
		return
	}
	env := cpim.Parse(data)
	if env == nil {
		system.LogWarning(system.LTCPIMStack, fmt.Sprintf("Discarding non-CPIM bytes tagged [%s]", msgID))
		return
	}
	if env.CleanContentType() == global.MimeImdn {
		c.dispatchInboundReport(env)
		return
	}
	c.handleInboundMessage(env)
}

func (c *ChatSession) OnTransferError(msgID string, err error, chunk global.ChunkType) {
	c.classifyTransferError(msgID, err, chunk)
}

func (c *ChatSession) OnTransferProgress(current, total int64) {
	system.LogInfo(system.LTMediaStack, fmt.Sprintf("Transfer progress %d/%d on chat [%s]", current, total, c.ChatID))
}

func (c *ChatSession) handleInboundMessage(env *cpim.Envelope) {
	mimeType := env.CleanContentType()
	if !global.IsRecognizedMimeType(mimeType) {
		// multi-vendor leniency: unknown extensions are skipped, not fatal
		system.LogWarning(system.LTChatMessage, fmt.Sprintf("Ignoring message with unrecognized MIME type [%s]", mimeType))
		return
	}
	now := time.Now()
	sent := env.DateTime
	if sent.IsZero() {
		sent = now
	}
	msg := &global.ChatMessage{
		MessageID:     env.MessageID,
		Remote:        env.From,
		Content:       env.BodyText(),
		MimeType:      mimeType,
		Timestamp:     now,
		TimestampSent: sent,
	}
	c.touch()
	c.store.RecordMessage(c.ChatID, msg, global.INBOUND)
	c.emit(Event{Type: global.EvMessageReceived, Message: msg, Remote: env.From})

	if msg.MessageID != "" && ShouldSendDisplayReport(env, c.cfg) {
		c.displayLock.Lock()
		if c.displayWanted == nil {
			c.displayWanted = make(map[string]struct{})
		}
		c.displayWanted[msg.MessageID] = struct{}{}
		c.displayLock.Unlock()
	}
	if msg.MessageID != "" && env.WantsDeliveryReport() {
		if err := c.SendDeliveryStatus(msg.MessageID, global.Delivered, now); err != nil {
			system.LogWarning(system.LTIMDN, fmt.Sprintf("Delivery report for [%s] not sent: %v", msg.MessageID, err))
		}
	}
}
