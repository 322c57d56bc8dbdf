package global

import (
	"fmt"
	"time"
)

// ==============================================================
// Error taxonomy

// PayloadError marks wire content that is malformed or missing mandatory
// fields. The same bytes are never retried.
type PayloadError struct {
	Doc     string
	Details string
}

func NewPayloadError(doc, details string) error {
	return &PayloadError{Doc: doc, Details: details}
}

func (pe *PayloadError) Error() string {
	return fmt.Sprintf("payload %s: %s", pe.Doc, pe.Details)
}

// NetworkError marks a transport failure. Retry policy belongs to the
// transport collaborator, not to the session core.
type NetworkError struct {
	Op    string
	Cause error
}

func NewNetworkError(op string, cause error) error {
	return &NetworkError{Op: op, Cause: cause}
}

func (ne *NetworkError) Error() string {
	return fmt.Sprintf("network %s: %v", ne.Op, ne.Cause)
}

func (ne *NetworkError) Unwrap() error {
	return ne.Cause
}

type SessionError struct {
	Code    SessionErrorCode
	Details string
	Cause   error
}

func NewSessionError(code SessionErrorCode, details string) *SessionError {
	return &SessionError{Code: code, Details: details}
}

func NewSessionErrorCause(code SessionErrorCode, details string, cause error) *SessionError {
	return &SessionError{Code: code, Details: details, Cause: cause}
}

func (se *SessionError) Error() string {
	if se.Cause == nil {
		return fmt.Sprintf("session error %s: %s", se.Code, se.Details)
	}
	return fmt.Sprintf("session error %s: %s: %v", se.Code, se.Details, se.Cause)
}

func (se *SessionError) Unwrap() error {
	return se.Cause
}

// ==============================================================

// ChatMessage is an immutable chat message value. Built once when composed
// locally or parsed from an inbound envelope, never mutated afterwards.
type ChatMessage struct {
	MessageID     string
	Remote        string
	Content       string
	MimeType      string
	Timestamp     time.Time // local creation time
	TimestampSent time.Time // equals Timestamp for outgoing; parsed from the envelope for incoming
	DisplayName   string
}

// ==============================================================

// ChatConfig is the immutable per-session configuration snapshot. A settings
// change while a session is in flight does not alter that session.
type ChatConfig struct {
	Dialect Dialect

	LocalUser         string
	LocalDisplayName  string
	ConferenceFactory string

	FileTransferEnabled  bool
	FileTransferHttp     bool
	FileTransferStoreFwd bool
	GeolocPushEnabled    bool
	GroupManageExtension bool // network variant: vendor group-manage tag on Accept-Contact
	StoreForwardEnabled  bool

	AutoAcceptChat      bool
	AutoAcceptGroupChat bool
	SendDisplayReports  bool // group display report policy
	PreferPassiveSetup  bool // advertise a=setup:passive in offers

	RingingPeriodSec      int
	TransactionTimeoutSec int
	SessionRefreshSec     int
	InactivityTimeoutSec  int
	MaxParticipants       int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Dialect:               SimpleIM,
		RingingPeriodSec:      DefaultRingingPeriodSec,
		TransactionTimeoutSec: DefaultTransactionTimeout,
		SessionRefreshSec:     DefaultSessionRefreshSec,
		InactivityTimeoutSec:  DefaultInactivityTimeoutSec,
		MaxParticipants:       DefaultMaxParticipants,
	}
}

func (cfg ChatConfig) RingingPeriod() time.Duration {
	return time.Duration(cfg.RingingPeriodSec) * time.Second
}

func (cfg ChatConfig) TransactionTimeout() time.Duration {
	return time.Duration(cfg.TransactionTimeoutSec) * time.Second
}

func (cfg ChatConfig) InactivityTimeout() time.Duration {
	return time.Duration(cfg.InactivityTimeoutSec) * time.Second
}
