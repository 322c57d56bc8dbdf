package system

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

var (
	logtitles = [...]string{"All", "Capabilities", "ChatMessage", "ChatSession", "Configuration", "CPIMStack", "GroupChat", "IMDN", "MediaStack", "Participants", "SDPStack", "SIPStack", "System", "UnhandledCritical", "Webserver", "WebSocketData", "None"}
)

// ==============================================================
type LogTitle int

const (
	LTAll LogTitle = iota
	LTCapabilities
	LTChatMessage
	LTChatSession
	LTConfiguration
	LTCPIMStack
	LTGroupChat
	LTIMDN
	LTMediaStack
	LTParticipants
	LTSDPStack
	LTSIPStack
	LTSystem
	LTUnhandledCritical
	LTWebserver
	LTWebSocketData
	LTNone
)

func (lt LogTitle) String() string {
	return logtitles[lt]
}

// ==============================================================

var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

func LogInfo(lt LogTitle, msg string) {
	Logger.Info().Str("title", lt.String()).Msg(msg)
}

func LogWarning(lt LogTitle, msg string) {
	Logger.Warn().Str("title", lt.String()).Msg(msg)
}

func LogError(lt LogTitle, msg string) {
	Logger.Error().Str("title", lt.String()).Msg(msg)
}

func LogCallStack(r any) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	Logger.Error().
		Str("title", LTUnhandledCritical.String()).
		Interface("recovered", r).
		Bytes("stack", buf[:n]).
		Msg("Panic recovered")
}
