package chat

import (
	"fmt"
	"sync"
	"time"

	"rcsclientgo/global"
	"rcsclientgo/guid"
	"rcsclientgo/payload"
	"rcsclientgo/system"
)

// Engine owns the session registry and the collaborators every session is
// built with. One engine per client identity.
type Engine struct {
	cfg       global.ChatConfig
	sip       SipTransport
	msrp      MsrpTransport
	store     PersistenceLog
	caps      CapabilityStore
	localHost string

	broadcast func(Event)
	events    chan Event

	mu       sync.RWMutex
	sessions map[string]*registryEntry
}

// registryEntry keeps at most two sessions per chat id: the routable current
// one and a superseded one still draining its media plane.
type registryEntry struct {
	current  *ChatSession
	draining *ChatSession
}

func NewEngine(cfg global.ChatConfig, localHost string) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     NoopPersistence,
		caps:      NoopCapabilityStore,
		localHost: localHost,
		events:    make(chan Event, eventBufferSize),
		sessions:  make(map[string]*registryEntry),
	}
}

// SetTransports attaches the SIP and MSRP planes. Until both are present no
// session can be started.
func (e *Engine) SetTransports(sip SipTransport, msrp MsrpTransport) {
	e.sip = sip
	e.msrp = msrp
}

func (e *Engine) transportsReady() error {
	if e.sip == nil || e.msrp == nil {
		return global.NewSessionError(global.SessionInitiationFailed, "no transport collaborators attached")
	}
	return nil
}

func (e *Engine) SetPersistence(store PersistenceLog) {
	if store != nil {
		e.store = store
	}
}

func (e *Engine) SetCapabilityStore(caps CapabilityStore) {
	if caps != nil {
		e.caps = caps
	}
}

// SetBroadcast installs an additional event sink; the engine-level Events
// channel keeps receiving regardless.
func (e *Engine) SetBroadcast(f func(Event)) {
	e.broadcast = f
}

// Events exposes the merged event stream of all sessions.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) Config() global.ChatConfig {
	return e.cfg
}

// ==============================================================
// Session construction

// StartOneToOneSession opens an ad-hoc chat towards remote, optionally
// carrying the first message inside the INVITE.
func (e *Engine) StartOneToOneSession(remote, firstMessageText string) (*ChatSession, error) {
	if err := e.transportsReady(); err != nil {
		return nil, err
	}
	if remote == "" {
		return nil, global.NewSessionError(global.SessionInitiationFailed, "no remote contact")
	}
	c := newSession(global.OutgoingAdhoc, e.cfg, e)
	c.ChatID = canonicalURI(remote)
	c.Remote = remote
	c.Dialog = e.newDialog(remote)
	if firstMessageText != "" {
		now := time.Now()
		c.FirstMessage = &global.ChatMessage{
			MessageID:     guid.NewMessageID(),
			Remote:        remote,
			Content:       firstMessageText,
			MimeType:      global.MimeTextPlain,
			Timestamp:     now,
			TimestampSent: now,
		}
	}
	if err := e.register(c); err != nil {
		return nil, err
	}
	c.Run()
	return c, nil
}

// StartGroupSession opens an ad-hoc group chat through the conference
// factory with the given initial members.
func (e *Engine) StartGroupSession(contacts []string, subject string) (*ChatSession, error) {
	if err := e.transportsReady(); err != nil {
		return nil, err
	}
	if e.cfg.ConferenceFactory == "" {
		return nil, global.NewSessionError(global.SessionInitiationFailed, "no conference factory configured")
	}
	if len(contacts) == 0 {
		return nil, global.NewSessionError(global.SessionInitiationFailed, "no participants")
	}
	if len(contacts) > e.cfg.MaxParticipants-1 {
		return nil, global.NewSessionError(global.SessionInitiationFailed,
			fmt.Sprintf("participant count %d exceeds maximum %d", len(contacts), e.cfg.MaxParticipants-1))
	}
	c := newSession(global.OutgoingAdhoc, e.cfg, e)
	c.isGroup = true
	c.Subject = subject
	c.Remote = e.cfg.ConferenceFactory
	c.Dialog = e.newDialog(e.cfg.ConferenceFactory)
	c.ChatID = c.Dialog.ContributionID
	c.participants = NewGroupParticipantDirectory(contacts)
	e.watchParticipants(c)
	if err := e.register(c); err != nil {
		return nil, err
	}
	c.Run()
	return c, nil
}

// RestartGroupSession rejoins a stored group chat. The conversation and
// contribution identifiers are carried over so the focus can correlate, and
// only rejoinable members go into the resource list.
func (e *Engine) RestartGroupSession(chatID, conversationID, contributionID string, members map[string]global.ParticipantStatus) (*ChatSession, error) {
	if err := e.transportsReady(); err != nil {
		return nil, err
	}
	if e.cfg.ConferenceFactory == "" {
		return nil, global.NewSessionError(global.SessionRestartFailed, "no conference factory configured")
	}
	c := newSession(global.OutgoingRestart, e.cfg, e)
	c.isGroup = true
	c.Remote = e.cfg.ConferenceFactory
	c.Dialog = e.newDialog(e.cfg.ConferenceFactory)
	c.Dialog.ConversationID = conversationID
	c.Dialog.ContributionID = contributionID
	c.ChatID = chatID

	dir := &GroupParticipantDirectory{statuses: make(map[string]global.ParticipantStatus, len(members))}
	for contact, status := range members {
		dir.statuses[contact] = status
	}
	rejoinable := dir.Rejoinable()
	if len(rejoinable) == 0 {
		return nil, global.NewSessionError(global.SessionRestartFailed, "no rejoinable participants")
	}
	c.participants = NewGroupParticipantDirectory(rejoinable)
	e.watchParticipants(c)
	if err := e.register(c); err != nil {
		return nil, err
	}
	c.Run()
	return c, nil
}

// StartLargeMessageSession opens a standalone session used to carry a single
// oversized message, torn down right after the transfer.
func (e *Engine) StartLargeMessageSession(remote, content, mimeType string) (*ChatSession, error) {
	if err := e.transportsReady(); err != nil {
		return nil, err
	}
	if remote == "" {
		return nil, global.NewSessionError(global.SessionInitiationFailed, "no remote contact")
	}
	c := newSession(global.LargeMessageStandalone, e.cfg, e)
	c.ChatID = canonicalURI(remote) + ";large"
	c.Remote = remote
	c.Dialog = e.newDialog(remote)
	now := time.Now()
	c.FirstMessage = &global.ChatMessage{
		MessageID:     guid.NewMessageID(),
		Remote:        remote,
		Content:       content,
		MimeType:      mimeType,
		Timestamp:     now,
		TimestampSent: now,
	}
	if err := e.register(c); err != nil {
		return nil, err
	}
	c.Run()
	return c, nil
}

// HandleInvite materialises a session from a received INVITE and starts its
// lifecycle. The caller already owns the SIP dialog bookkeeping.
func (e *Engine) HandleInvite(inv *InboundInvite) (*ChatSession, error) {
	if err := e.transportsReady(); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, global.NewSessionError(global.InternalFault, "nil invite")
	}
	c := newSession(global.Incoming, e.cfg, e)
	c.invite = inv
	c.isGroup = inv.IsGroup
	c.Remote = inv.From
	c.Subject = inv.Subject
	c.Dialog = &DialogState{
		CallID:         inv.CallID,
		ConversationID: inv.ConversationID,
		ContributionID: inv.ContributionID,
		LocalTag:       guid.NewTag(),
		RemoteURI:      inv.From,
		RemoteContact:  inv.Contact,
	}
	if inv.IsGroup && inv.ContributionID != "" {
		c.ChatID = inv.ContributionID
	} else {
		c.ChatID = canonicalURI(inv.From)
	}
	if inv.IsGroup {
		c.participants = NewGroupParticipantDirectory(nil)
		if rl := extractPart(inv.Body, inv.ContentType, global.MimeResourceList); rl != nil {
			if members, err := payload.ParseResourceList(rl); err != nil {
				system.LogWarning(system.LTGroupChat, fmt.Sprintf("Unusable resource list on chat [%s]: %v", c.ChatID, err))
			} else {
				// co-invitees the focus is already dialing out to
				inviting := make(map[string]global.ParticipantStatus, len(members))
				for _, contact := range members {
					inviting[contact] = global.Inviting
				}
				c.participants.ApplyUpdate(inviting)
			}
		}
		e.watchParticipants(c)
	}
	if err := e.register(c); err != nil {
		return nil, err
	}
	c.Run()
	return c, nil
}

// watchParticipants wires directory changes into persistence and the event
// stream.
func (e *Engine) watchParticipants(c *ChatSession) {
	c.participants.SetListener(func(changed, full map[string]global.ParticipantStatus) {
		e.store.RecordParticipantStatus(c.ChatID, changed)
		c.emit(Event{Type: global.EvParticipantsUpdated, Participants: full})
	})
}

func (e *Engine) newDialog(remote string) *DialogState {
	return &DialogState{
		CallID:         guid.NewCallID(),
		ConversationID: guid.NewConversationID(),
		ContributionID: guid.NewContributionID(),
		LocalTag:       guid.NewTag(),
		RemoteURI:      remote,
	}
}

// ==============================================================
// Registry

// register stores the session under its chat id. An alive predecessor is
// demoted to draining, not torn down, so in-flight chunks on its media plane
// can still complete; a predecessor already terminal is simply replaced.
func (e *Engine) register(c *ChatSession) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.sessions[c.ChatID]
	if entry == nil {
		e.sessions[c.ChatID] = &registryEntry{current: c}
		return nil
	}
	if entry.draining != nil && !entry.draining.PhaseSYNC().IsTerminal() {
		return global.NewSessionError(global.SessionInitiationFailed,
			fmt.Sprintf("chat [%s] already has a draining predecessor", c.ChatID))
	}
	if prev := entry.current; prev != nil && !prev.PhaseSYNC().IsTerminal() {
		prev.MarkPendingRemoval()
		entry.draining = prev
		system.LogInfo(system.LTChatSession, fmt.Sprintf("Chat [%s] predecessor demoted to draining", c.ChatID))
	}
	entry.current = c
	return nil
}

// SessionByChatID returns the routable session for a chat id; draining
// predecessors are never returned.
func (e *Engine) SessionByChatID(chatID string) *ChatSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if entry := e.sessions[chatID]; entry != nil {
		return entry.current
	}
	return nil
}

// SessionByCallID locates any session, draining included, by its SIP dialog.
// Used to route in-dialog requests like BYE towards superseded sessions.
func (e *Engine) SessionByCallID(callID string) *ChatSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, entry := range e.sessions {
		if entry.current != nil && entry.current.Dialog.CallID == callID {
			return entry.current
		}
		if entry.draining != nil && entry.draining.Dialog.CallID == callID {
			return entry.draining
		}
	}
	return nil
}

// Sessions snapshots all routable sessions.
func (e *Engine) Sessions() []*ChatSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*ChatSession, 0, len(e.sessions))
	for _, entry := range e.sessions {
		if entry.current != nil {
			out = append(out, entry.current)
		}
	}
	return out
}

func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, entry := range e.sessions {
		if entry.current != nil && entry.current.PhaseSYNC().IsAlive() {
			n++
		}
	}
	return n
}

// dispatch fans a session event out to the engine channel and the optional
// broadcast sink, and reaps registry entries once their sessions end.
func (e *Engine) dispatch(ev Event) {
	if ev.Type == global.EvSessionAborted {
		e.reap(ev.ChatID)
	}
	select {
	case e.events <- ev:
	default:
		system.LogWarning(system.LTChatSession, fmt.Sprintf("Engine event buffer full, dropping %s for chat [%s]", ev.Type, ev.ChatID))
	}
	if e.broadcast != nil {
		e.broadcast(ev)
	}
}

func (e *Engine) reap(chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.sessions[chatID]
	if entry == nil {
		return
	}
	if entry.draining != nil && entry.draining.PhaseSYNC().IsTerminal() {
		entry.draining = nil
	}
	if entry.current != nil && entry.current.PhaseSYNC().IsTerminal() {
		entry.current = entry.draining
		entry.draining = nil
	}
	if entry.current == nil && entry.draining == nil {
		delete(e.sessions, chatID)
	}
}

// TerminateAll tears every session down, draining predecessors included.
func (e *Engine) TerminateAll(reason global.TerminationReason) {
	e.mu.RLock()
	all := make([]*ChatSession, 0, len(e.sessions)*2)
	for _, entry := range e.sessions {
		if entry.current != nil {
			all = append(all, entry.current)
		}
		if entry.draining != nil {
			all = append(all, entry.draining)
		}
	}
	e.mu.RUnlock()
	for _, c := range all {
		c.Terminate(reason)
	}
}
