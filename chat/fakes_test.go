package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"rcsclientgo/global"
)

// ==============================================================
// SIP plane fakes

type fakeTransaction struct {
	rsps *SipResponse
	err  error
}

func (ft *fakeTransaction) WaitResponse(ctx context.Context, timeout time.Duration) (*SipResponse, error) {
	return ft.rsps, ft.err
}

// fakeSipTransport answers scripted responses in order and records every
// request it was asked to send.
type fakeSipTransport struct {
	mu        sync.Mutex
	responses []*SipResponse
	requests  []*SipRequest

	sentResponses []int
	ackWaitErr    error
	authHeader    string
	authCalls     int
}

func okResponse(body []byte) *SipResponse {
	return &SipResponse{StatusCode: 200, ReasonPhrase: "OK", Headers: NewSipHeaders(), Body: body}
}

func statusResponse(code int, reason string) *SipResponse {
	return &SipResponse{StatusCode: code, ReasonPhrase: reason, Headers: NewSipHeaders()}
}

func (fs *fakeSipTransport) nextResponse() *SipResponse {
	if len(fs.responses) == 0 {
		return statusResponse(500, "no scripted response")
	}
	rsps := fs.responses[0]
	fs.responses = fs.responses[1:]
	return rsps
}

func (fs *fakeSipTransport) SendInitialRequest(ctx context.Context, req *SipRequest) (Transaction, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, req)
	return &fakeTransaction{rsps: fs.nextResponse()}, nil
}

func (fs *fakeSipTransport) SendSubsequentRequest(ctx context.Context, dlg *DialogState, req *SipRequest) (Transaction, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, req)
	return &fakeTransaction{rsps: fs.nextResponse()}, nil
}

func (fs *fakeSipTransport) SendResponse(ctx context.Context, dlg *DialogState, statusCode int, reasonPhrase string, headers *SipHeaders, body []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sentResponses = append(fs.sentResponses, statusCode)
	return nil
}

func (fs *fakeSipTransport) WaitAck(ctx context.Context, dlg *DialogState, timeout time.Duration) error {
	return fs.ackWaitErr
}

func (fs *fakeSipTransport) ProxyAuthorization(challenge string, method global.Method, requestURI string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.authCalls++
	if fs.authHeader == "" {
		fs.authHeader = `Digest username="tester"`
	}
	return fs.authHeader, nil
}

func (fs *fakeSipTransport) sentRequests(method global.Method) []*SipRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*SipRequest
	for _, req := range fs.requests {
		if req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

// ==============================================================
// MSRP plane fakes

type fakeMsrpSession struct {
	mu        sync.Mutex
	openErr   error
	sendErr   error
	sent      []sentChunk
	closed    bool
	localPort int
}

type sentChunk struct {
	msgID    string
	mimeType string
	chunk    global.ChunkType
	data     []byte
}

func (fm *fakeMsrpSession) Open(ctx context.Context, timeout time.Duration) error { return fm.openErr }

func (fm *fakeMsrpSession) LocalPort() int {
	if fm.localPort == 0 {
		return 20000
	}
	return fm.localPort
}

func (fm *fakeMsrpSession) LocalPath() string { return "msrp://127.0.0.1:20000/fake;tcp" }

func (fm *fakeMsrpSession) SendChunks(ctx context.Context, r io.Reader, msgID, mimeType string, size int64, chunk global.ChunkType) error {
	if fm.sendErr != nil {
		return fm.sendErr
	}
	data, _ := io.ReadAll(r)
	fm.mu.Lock()
	fm.sent = append(fm.sent, sentChunk{msgID: msgID, mimeType: mimeType, chunk: chunk, data: data})
	fm.mu.Unlock()
	return nil
}

func (fm *fakeMsrpSession) SendEmptyChunk() error { return nil }

func (fm *fakeMsrpSession) Close() {
	fm.mu.Lock()
	fm.closed = true
	fm.mu.Unlock()
}

func (fm *fakeMsrpSession) chunks() []sentChunk {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return append([]sentChunk(nil), fm.sent...)
}

type fakeMsrpTransport struct {
	session *fakeMsrpSession
}

func (ft *fakeMsrpTransport) CreateClientSession(remoteHost string, remotePort int, remotePath, fingerprint string, listener MsrpListener) (MsrpSession, error) {
	return ft.session, nil
}

func (ft *fakeMsrpTransport) CreateServerSession(listener MsrpListener) (MsrpSession, error) {
	return ft.session, nil
}

// ==============================================================
// Persistence fake

type fakeStore struct {
	mu         sync.Mutex
	messages   []*global.ChatMessage
	deliveries map[string]global.ImdnStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{deliveries: make(map[string]global.ImdnStatus)}
}

func (fs *fakeStore) RecordMessage(chatID string, msg *global.ChatMessage, direction global.Direction) {
	fs.mu.Lock()
	fs.messages = append(fs.messages, msg)
	fs.mu.Unlock()
}

func (fs *fakeStore) RecordParticipantStatus(chatID string, deltas map[string]global.ParticipantStatus) {
}

func (fs *fakeStore) RecordDeliveryTimestamp(msgID string, status global.ImdnStatus, at time.Time) {
	fs.mu.Lock()
	fs.deliveries[msgID] = status
	fs.mu.Unlock()
}

// ==============================================================
// Harness

func testConfig() global.ChatConfig {
	cfg := global.DefaultChatConfig()
	cfg.LocalUser = "sip:tester@example.com"
	cfg.ConferenceFactory = "sip:conf-factory@example.com"
	cfg.TransactionTimeoutSec = 1
	cfg.RingingPeriodSec = 1
	return cfg
}

func testEngine(cfg global.ChatConfig, sip SipTransport, msrp MsrpTransport) *Engine {
	eng := NewEngine(cfg, "127.0.0.1")
	eng.SetTransports(sip, msrp)
	return eng
}

// establishedGroupSession builds a session already past its lifecycle, in
// Established with a fake media plane, for exercising in-dialog operations.
func establishedGroupSession(cfg global.ChatConfig, sip SipTransport, media MsrpSession, contacts []string) *ChatSession {
	eng := testEngine(cfg, sip, &fakeMsrpTransport{})
	c := newSession(global.OutgoingAdhoc, cfg, eng)
	c.isGroup = true
	c.ChatID = "grp-test"
	c.Remote = cfg.ConferenceFactory
	c.Dialog = &DialogState{CallID: "call-1", RemoteURI: cfg.ConferenceFactory, RemoteContact: "sip:focus@example.com"}
	c.participants = NewGroupParticipantDirectory(contacts)
	c.media = media
	c.setPhase(global.Established)
	return c
}

func collectEvents(c *ChatSession, wanted global.EventType, deadline time.Duration) []Event {
	var out []Event
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return out
			}
			if ev.Type == wanted {
				out = append(out, ev)
			}
		case <-timer.C:
			return out
		}
	}
}
