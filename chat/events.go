package chat

import (
	"fmt"
	"time"

	"rcsclientgo/global"
	"rcsclientgo/imdn"
	"rcsclientgo/system"
)

// Event is the tagged session notification delivered over the per-session
// event channel, replacing per-callback listener interfaces.
type Event struct {
	Type   global.EventType
	ChatID string
	Remote string
	Reason string
	At     time.Time

	Message      *global.ChatMessage
	Report       *imdn.Report
	Participants map[string]global.ParticipantStatus
	Err          *global.SessionError
}

const eventBufferSize = 64

// emit delivers the event to the session channel and the engine broadcast
// without ever blocking the session goroutine. Producers on transport
// goroutines can outlive the session, so anything arriving after disposal is
// dropped rather than sent on the closed channel.
func (c *ChatSession) emit(ev Event) {
	ev.ChatID = c.ChatID
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	c.eventsLock.Lock()
	if c.eventsClosed {
		c.eventsLock.Unlock()
		system.LogInfo(system.LTChatSession, fmt.Sprintf("Dropping late %s for disposed chat [%s]", ev.Type, c.ChatID))
		return
	}
	select {
	case c.events <- ev:
	default:
		system.LogWarning(system.LTChatSession, fmt.Sprintf("Event channel full, dropping %s for chat [%s]", ev.Type, c.ChatID))
	}
	c.eventsLock.Unlock()
	if c.broadcast != nil {
		c.broadcast(ev)
	}
}

// Events exposes the session notifications. The channel is closed when the
// session reaches its terminal state.
func (c *ChatSession) Events() <-chan Event {
	return c.events
}
