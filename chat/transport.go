package chat

import (
	"context"
	"fmt"
	"io"
	"time"

	"rcsclientgo/global"
)

// The session core consumes its collaborators through the narrow interfaces
// below. Transaction retransmission, authentication computation and socket
// handling all live behind them.

// ==============================================================
// SIP plane

type SipRequest struct {
	Method      global.Method
	RequestURI  string
	Headers     *SipHeaders
	ContentType string
	Body        []byte
}

type SipResponse struct {
	StatusCode   int
	ReasonPhrase string
	Headers      *SipHeaders
	ContentType  string
	Body         []byte
}

func (rsps *SipResponse) IsSuccess() bool {
	return rsps.StatusCode >= 200 && rsps.StatusCode < 300
}

func (rsps *SipResponse) WarningContains(text string) bool {
	return rsps.Headers != nil && rsps.Headers.DoesValueExistInHeader(global.Warning.String(), text)
}

// Transaction is the in-flight context of one sent request.
type Transaction interface {
	// WaitResponse blocks until a final response arrives, the timeout fires
	// or ctx is cancelled.
	WaitResponse(ctx context.Context, timeout time.Duration) (*SipResponse, error)
}

type SipTransport interface {
	SendInitialRequest(ctx context.Context, req *SipRequest) (Transaction, error)
	SendSubsequentRequest(ctx context.Context, dlg *DialogState, req *SipRequest) (Transaction, error)
	SendResponse(ctx context.Context, dlg *DialogState, statusCode int, reasonPhrase string, headers *SipHeaders, body []byte) error
	// WaitAck blocks until the ACK for a previously sent 2xx arrives.
	WaitAck(ctx context.Context, dlg *DialogState, timeout time.Duration) error
	// ProxyAuthorization answers a Proxy-Authenticate challenge.
	ProxyAuthorization(challenge string, method global.Method, requestURI string) (string, error)
}

// ==============================================================

// DialogState carries the per-session dialog identifiers. Requests within a
// session are strictly sequential, so the CSeq needs no locking.
type DialogState struct {
	CallID         string
	ConversationID string
	ContributionID string

	LocalTag  string
	RemoteTag string

	RemoteURI     string
	RemoteContact string

	LocalSDP  []byte
	RemoteSDP []byte

	cseq uint32
}

// NextCSeq increments the sequence number ahead of a subsequent request.
func (dlg *DialogState) NextCSeq() uint32 {
	dlg.cseq++
	return dlg.cseq
}

func (dlg *DialogState) CSeq() uint32 {
	return dlg.cseq
}

// ==============================================================
// MSRP plane

// MsrpError is a transport-reported chunk delivery failure carrying the MSRP
// status code.
type MsrpError struct {
	Code    int
	Details string
}

func (me *MsrpError) Error() string {
	return fmt.Sprintf("msrp %d: %s", me.Code, me.Details)
}

// Recoverable reports whether the session may still carry other messages:
// request-timeout and stop-sending responses break one transfer, not the
// connection.
func (me *MsrpError) Recoverable() bool {
	return me.Code == 408 || me.Code == 413
}

type MsrpListener interface {
	OnDataTransferred(msgID string)
	OnDataReceived(msgID string, data []byte, mimeType string)
	OnTransferError(msgID string, err error, chunk global.ChunkType)
	OnTransferProgress(current, total int64)
}

type MsrpSession interface {
	Open(ctx context.Context, timeout time.Duration) error
	LocalPort() int
	LocalPath() string
	SendChunks(ctx context.Context, r io.Reader, msgID, mimeType string, size int64, chunk global.ChunkType) error
	SendEmptyChunk() error
	Close()
}

type MsrpTransport interface {
	CreateClientSession(remoteHost string, remotePort int, remotePath, fingerprint string, listener MsrpListener) (MsrpSession, error)
	CreateServerSession(listener MsrpListener) (MsrpSession, error)
}

// ==============================================================
// Storage plane (write-only from the core's perspective)

type PersistenceLog interface {
	RecordMessage(chatID string, msg *global.ChatMessage, direction global.Direction)
	RecordParticipantStatus(chatID string, deltas map[string]global.ParticipantStatus)
	RecordDeliveryTimestamp(msgID string, status global.ImdnStatus, at time.Time)
}

// CapabilityStore answers what a remote contact advertised, used to decide
// whether optional content is attached to an offer.
type CapabilityStore interface {
	SupportsThumbnail(contact string) bool
	FeatureTags(contact string) []string
}

// ==============================================================

type noopPersistence struct{}

func (noopPersistence) RecordMessage(string, *global.ChatMessage, global.Direction)         {}
func (noopPersistence) RecordParticipantStatus(string, map[string]global.ParticipantStatus) {}
func (noopPersistence) RecordDeliveryTimestamp(string, global.ImdnStatus, time.Time)        {}

// NoopPersistence is used when no persistence collaborator is attached.
var NoopPersistence PersistenceLog = noopPersistence{}

type noopCapabilityStore struct{}

func (noopCapabilityStore) SupportsThumbnail(string) bool { return false }
func (noopCapabilityStore) FeatureTags(string) []string   { return nil }

var NoopCapabilityStore CapabilityStore = noopCapabilityStore{}
