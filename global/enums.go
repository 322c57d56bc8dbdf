package global

import "slices"

// ==============================================================
type Method int

const (
	UNKNOWN Method = iota
	INVITE
	ReINVITE
	REFER
	ACK
	CANCEL
	BYE
	OPTIONS
	NOTIFY
	UPDATE
	INFO
	REGISTER
	SUBSCRIBE
	MESSAGE
)

func (m Method) String() string {
	return methods[m]
}

func MethodFromName(nm string) Method {
	idx := slices.IndexFunc(methods[:], func(m string) bool { return m == nm })
	if idx == -1 {
		return UNKNOWN
	}
	return Method(idx)
}

// ==============================================================
type Direction int

const (
	INBOUND Direction = iota
	OUTBOUND
)

func (d Direction) String() string {
	return directions[d]
}

// ==============================================================
// Dialect selects the IM signaling convention used on the wire:
// legacy OMA SIMPLE IM or Converged IP Messaging.
type Dialect int

const (
	SimpleIM Dialect = iota
	CPM
)

func (d Dialect) String() string {
	return dialects[d]
}

// ==============================================================
type SessionRole int

const (
	OutgoingAdhoc SessionRole = iota
	OutgoingRestart
	Incoming
	LargeMessageStandalone
)

func (sr SessionRole) String() string {
	return sessionRoles[sr]
}

func (sr SessionRole) IsOutgoing() bool {
	return sr != Incoming
}

func (sr SessionRole) IsRestart() bool {
	return sr == OutgoingRestart
}

// ==============================================================
type SessionPhase int

const (
	Created SessionPhase = iota
	OfferSent
	Invited
	Ringing
	Accepting
	MediaNegotiating
	Established
	Terminating
	Terminated
)

func (sp SessionPhase) String() string {
	return sessionPhases[sp]
}

func (sp SessionPhase) IsTerminal() bool {
	return sp == Terminated
}

func (sp SessionPhase) IsAlive() bool {
	return sp < Terminating
}

// ==============================================================
type ParticipantStatus int

const (
	InviteQueued ParticipantStatus = iota
	Inviting
	ParticipantInvited
	Connected
	Disconnected
	Departed
	ParticipantFailed
	Declined
	TimedOut
	BootQueued
	Booting
	Booted
)

func (ps ParticipantStatus) String() string {
	return participantStatuses[ps]
}

// CountsAgainstCap reports whether the status occupies a group slot.
func (ps ParticipantStatus) CountsAgainstCap() bool {
	switch ps {
	case InviteQueued, Inviting, ParticipantInvited, Connected:
		return true
	}
	return false
}

// Rejoinable reports whether a restart re-invites this participant.
func (ps ParticipantStatus) Rejoinable() bool {
	switch ps {
	case Inviting, ParticipantInvited, Connected, Disconnected:
		return true
	}
	return false
}

// CanBecome enforces forward-only transitions. A departed or failed contact
// never moves back; re-joining starts a fresh Inviting epoch instead.
func (ps ParticipantStatus) CanBecome(next ParticipantStatus) bool {
	if next == Inviting || next == Booting {
		// fresh invite/boot epochs are always permitted from any settled state
		return ps != Inviting && ps != Booting
	}
	switch ps {
	case InviteQueued:
		return next == ParticipantFailed
	case Inviting:
		return next == ParticipantInvited || next == Connected || next == ParticipantFailed
	case ParticipantInvited:
		return next == Connected || next == Declined || next == TimedOut || next == ParticipantFailed
	case Connected:
		return next == Disconnected || next == Departed
	case BootQueued:
		return next == ParticipantFailed
	case Booting:
		return next == Booted || next == ParticipantFailed
	}
	return false
}

// ==============================================================
type ChunkType int

const (
	ChunkGeneric ChunkType = iota
	ChunkDeliveredReport
	ChunkDisplayReport
)

func (ct ChunkType) String() string {
	return chunkTypes[ct]
}

// ==============================================================
type ImdnStatus int

const (
	Delivered ImdnStatus = iota
	Displayed
	DeliveryFailed
)

func (is ImdnStatus) String() string {
	return imdnStatuses[is]
}

// ==============================================================
type SessionErrorCode int

const (
	SessionInitiationFailed SessionErrorCode = iota
	SessionRestartFailed
	SessionNotFound
	MediaSessionBroken
	MediaSessionFailed
	SendResponseFailed
	InternalFault
)

func (sec SessionErrorCode) String() string {
	return sessionErrorCodes[sec]
}

// IsFatal reports whether the session must be torn down. A broken media
// session may still carry other messages.
func (sec SessionErrorCode) IsFatal() bool {
	return sec != MediaSessionBroken
}

// ==============================================================
type TerminationReason int

const (
	TerminationByUser TerminationReason = iota
	TerminationByRemote
	TerminationByInactivity
	TerminationByTimeout
	TerminationConnectionLost
	TerminationBySystem
)

func (tr TerminationReason) String() string {
	return terminationReasons[tr]
}

// ==============================================================
type EventType int

const (
	EvSessionInvited EventType = iota
	EvSessionAutoAccepted
	EvSessionAccepting
	EvSessionStarted
	EvSessionRejected
	EvSessionAborted
	EvMessageReceived
	EvMessageSent
	EvMessageSendFailed
	EvDeliveryStatusReceived
	EvParticipantsUpdated
	EvImError
)

func (et EventType) String() string {
	return eventTypes[et]
}
