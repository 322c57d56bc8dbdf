package chat

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"rcsclientgo/global"
	"rcsclientgo/payload"
	"rcsclientgo/system"
)

// ParticipantListener receives one notification per committed update with the
// changed subset and the full resulting set.
type ParticipantListener func(changed, full map[string]global.ParticipantStatus)

// GroupParticipantDirectory is the single source of truth for who is part of
// a group chat. Mutation is serialized; readers get copies and never observe
// a half-applied diff. Entries are never removed, departure is a terminal
// status.
type GroupParticipantDirectory struct {
	mu       sync.RWMutex
	opMu     sync.Mutex // one in-flight mutating operation at a time
	statuses map[string]global.ParticipantStatus
	listener ParticipantListener
}

func NewGroupParticipantDirectory(initial []string) *GroupParticipantDirectory {
	dir := &GroupParticipantDirectory{statuses: make(map[string]global.ParticipantStatus, len(initial))}
	for _, contact := range initial {
		dir.statuses[contact] = global.InviteQueued
	}
	return dir
}

func (dir *GroupParticipantDirectory) SetListener(l ParticipantListener) {
	dir.listener = l
}

// Snapshot returns a full copy, safe for concurrent readers.
func (dir *GroupParticipantDirectory) Snapshot() map[string]global.ParticipantStatus {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	cp := make(map[string]global.ParticipantStatus, len(dir.statuses))
	maps.Copy(cp, dir.statuses)
	return cp
}

// ByStatus returns the entries currently in any of the given statuses.
func (dir *GroupParticipantDirectory) ByStatus(statuses ...global.ParticipantStatus) map[string]global.ParticipantStatus {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	cp := make(map[string]global.ParticipantStatus)
	for contact, st := range dir.statuses {
		for _, want := range statuses {
			if st == want {
				cp[contact] = st
				break
			}
		}
	}
	return cp
}

// DiffUpdate returns only the incoming entries that are new or differ from
// the current status.
func (dir *GroupParticipantDirectory) DiffUpdate(incoming map[string]global.ParticipantStatus) map[string]global.ParticipantStatus {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	diff := make(map[string]global.ParticipantStatus)
	for contact, st := range incoming {
		if current, ok := dir.statuses[contact]; !ok || current != st {
			diff[contact] = st
		}
	}
	return diff
}

// ApplyUpdate commits a diff and notifies the listener exactly once with the
// changed subset and resulting set. An empty or no-op diff stays silent.
// Backward transitions are rejected entry by entry.
func (dir *GroupParticipantDirectory) ApplyUpdate(diff map[string]global.ParticipantStatus) {
	dir.opMu.Lock()
	defer dir.opMu.Unlock()

	changed := make(map[string]global.ParticipantStatus)
	dir.mu.Lock()
	for contact, next := range diff {
		current, exists := dir.statuses[contact]
		if exists && current == next {
			continue
		}
		if exists && !current.CanBecome(next) {
			system.LogWarning(system.LTParticipants, fmt.Sprintf("Ignoring backward transition %s -> %s for [%s]", current, next, contact))
			continue
		}
		dir.statuses[contact] = next
		changed[contact] = next
	}
	var full map[string]global.ParticipantStatus
	if len(changed) > 0 {
		full = make(map[string]global.ParticipantStatus, len(dir.statuses))
		maps.Copy(full, dir.statuses)
	}
	dir.mu.Unlock()

	if len(changed) > 0 && dir.listener != nil {
		dir.listener(changed, full)
	}
}

// AvailableSlots returns how many more participants fit under the ceiling,
// one slot being reserved for the local user.
func (dir *GroupParticipantDirectory) AvailableSlots(maxParticipants int) int {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	occupied := 0
	for _, st := range dir.statuses {
		if st.CountsAgainstCap() {
			occupied++
		}
	}
	return maxParticipants - occupied - 1
}

// Rejoinable lists the contacts re-invited on a session restart: everyone
// whose prior status shows they were ever invited or connected.
func (dir *GroupParticipantDirectory) Rejoinable() []string {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	var contacts []string
	for contact, st := range dir.statuses {
		if st.Rejoinable() {
			contacts = append(contacts, contact)
		}
	}
	return contacts
}

// ==============================================================
// REFER-based membership operations

// InviteParticipants adds contacts to an established group session with a
// REFER towards the conference focus: single-target form for one contact,
// resource-list form otherwise. The REFER is one transaction, so the batch
// status outcome is atomic: all invited or all failed.
func (c *ChatSession) InviteParticipants(ctx context.Context, contacts []string) error {
	if len(contacts) == 0 {
		return nil
	}
	if c.PhaseSYNC() != global.Established {
		return global.NewSessionError(global.SessionInitiationFailed, "session not established")
	}
	if slots := c.participants.AvailableSlots(c.cfg.MaxParticipants); len(contacts) > slots {
		return global.NewSessionError(global.SessionInitiationFailed,
			fmt.Sprintf("%d contacts exceed the %d remaining slots", len(contacts), slots))
	}

	inviting := make(map[string]global.ParticipantStatus, len(contacts))
	for _, contact := range contacts {
		inviting[contact] = global.Inviting
	}
	c.participants.ApplyUpdate(inviting)

	req := c.buildReferRequest(contacts)
	rsps, err := c.sendWithProxyAuthRetry(ctx, req)

	outcome := global.ParticipantInvited
	if err != nil || !rsps.IsSuccess() {
		outcome = global.ParticipantFailed
	}
	result := make(map[string]global.ParticipantStatus, len(contacts))
	for _, contact := range contacts {
		result[contact] = outcome
	}
	c.participants.ApplyUpdate(result)

	if err != nil {
		return global.NewSessionErrorCause(global.SessionInitiationFailed, "REFER failed", err)
	}
	if outcome == global.ParticipantFailed {
		return global.NewSessionError(global.SessionInitiationFailed, fmt.Sprintf("REFER rejected with %d", rsps.StatusCode))
	}
	return nil
}

// RemoveParticipant boots one contact off the group via REFER with method=BYE.
func (c *ChatSession) RemoveParticipant(ctx context.Context, contact string) error {
	if c.PhaseSYNC() != global.Established {
		return global.NewSessionError(global.SessionInitiationFailed, "session not established")
	}

	c.participants.ApplyUpdate(map[string]global.ParticipantStatus{contact: global.Booting})

	hdrs := NewSHsPointer(true)
	hdrs.SetHeader(global.Refer_To, fmt.Sprintf("<%s;method=BYE>", strings.TrimSpace(contact)))
	hdrs.SetHeader(global.Refer_Sub, "false")
	req := &SipRequest{Method: global.REFER, RequestURI: c.Dialog.RemoteContact, Headers: hdrs}

	rsps, err := c.sendWithProxyAuthRetry(ctx, req)

	outcome := global.Booted
	if err != nil || !rsps.IsSuccess() {
		outcome = global.ParticipantFailed
	}
	c.participants.ApplyUpdate(map[string]global.ParticipantStatus{contact: outcome})

	if outcome == global.ParticipantFailed {
		return global.NewSessionError(global.SessionInitiationFailed, "removal REFER rejected")
	}
	return nil
}

func (c *ChatSession) buildReferRequest(contacts []string) *SipRequest {
	hdrs := NewSHsPointer(true)
	req := &SipRequest{Method: global.REFER, RequestURI: c.Dialog.RemoteContact, Headers: hdrs}
	if len(contacts) == 1 {
		hdrs.SetHeader(global.Refer_To, fmt.Sprintf("<%s>", strings.TrimSpace(contacts[0])))
		hdrs.SetHeader(global.Refer_Sub, "true")
		return req
	}
	hdrs.SetHeader(global.Refer_To, "<cid:mixedlist@"+global.EntityName+">")
	hdrs.SetHeader(global.Refer_Sub, "false")
	hdrs.SetHeader(global.Require, "multiple-refer")
	req.ContentType = global.MimeResourceList
	req.Body = payload.BuildResourceList(contacts)
	return req
}

// sendWithProxyAuthRetry sends a subsequent request and, on a 407 challenge,
// retries exactly once with a computed Proxy-Authorization header. A second
// 407 is final.
func (c *ChatSession) sendWithProxyAuthRetry(ctx context.Context, req *SipRequest) (*SipResponse, error) {
	rsps, err := c.sendSubsequent(ctx, req)
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
	return c.sendSubsequent(ctx, &retry)
}

// ApplyConferenceNotify folds a conference event notification into the
// directory. Re-notification of already-known states is a no-op.
func (c *ChatSession) ApplyConferenceNotify(body []byte) error {
	if c.participants == nil {
		return nil
	}
	incoming, err := payload.ParseConferenceInfo(body)
	if err != nil {
		system.LogWarning(system.LTGroupChat, fmt.Sprintf("Unusable conference notification on chat [%s]: %v", c.ChatID, err))
		return err
	}
	if diff := c.participants.DiffUpdate(incoming); len(diff) > 0 {
		c.participants.ApplyUpdate(diff)
	}
	return nil
}

func (c *ChatSession) sendSubsequent(ctx context.Context, req *SipRequest) (*SipResponse, error) {
	c.Dialog.NextCSeq()
	trans, err := c.sip.SendSubsequentRequest(ctx, c.Dialog, req)
	if err != nil {
		return nil, global.NewNetworkError(req.Method.String(), err)
	}
	rsps, err := trans.WaitResponse(ctx, c.cfg.TransactionTimeout())
	if err != nil {
		return nil, global.NewNetworkError(req.Method.String()+" response", err)
	}
	return rsps, nil
}
