package global

import (
	"regexp"
	"sync"
)

const (
	EntityName = "rcs-core"
	ClientName = "rcsclientgo/1.0"

	SipVersion  string = "SIP/2.0"
	MagicCookie string = "z9hG4bK"

	AllowedMethods string = "INVITE, ACK, CANCEL, BYE, OPTIONS, UPDATE, INFO, NOTIFY, REFER, MESSAGE"

	DefaultHttpPort int = 8080

	T1Timer int = 500

	// RFC4145 fixed discard port advertised by the active endpoint
	ActiveSetupPort int = 9

	DefaultRingingPeriodSec     int = 60
	DefaultTransactionTimeout   int = 30
	DefaultSessionRefreshSec    int = 3600
	DefaultInactivityTimeoutSec int = 300
	DefaultMaxParticipants      int = 10

	MultipartBoundary string = "unique-boundary-1"

	// vendor warning text carried in a 403 when a group chat restart
	// is rejected by the conference focus
	RestartNotAuthorisedWarning string = "127 Service not authorised"
)

// MIME types of the payloads carried inside CPIM bodies or INVITEs.
const (
	MimeTextPlain      string = "text/plain"
	MimeCpim           string = "message/cpim"
	MimeImdn           string = "message/imdn+xml"
	MimeGeoloc         string = "application/vnd.gsma.rcspushlocation+xml"
	MimeFtHttp         string = "application/vnd.gsma.rcs-ft-http+xml"
	MimeEmoticon       string = "message/vemoticon+xml"
	MimeCloudFile      string = "application/cloudfile+xml"
	MimeCard           string = "application/card+xml"
	MimeResourceList   string = "application/resource-lists+xml"
	MimeSdp            string = "application/sdp"
	MimeMultipartMixed string = "multipart/mixed"
)

var (
	ClientIPv4Str string
	HttpTcpPort   int

	WtGrp  sync.WaitGroup
	WtGrpC int32
)

var (
	// =================================================================
	// Arrays to get the string representation of the enum values
	methods             = [...]string{"UNKNOWN", "INVITE", "INVITE", "REFER", "ACK", "CANCEL", "BYE", "OPTIONS", "NOTIFY", "UPDATE", "INFO", "REGISTER", "SUBSCRIBE", "MESSAGE"}
	directions          = [...]string{"INBOUND", "OUTBOUND"}
	dialects            = [...]string{"SIMPLE-IM", "CPM"}
	sessionRoles        = [...]string{"OutgoingAdhoc", "OutgoingRestart", "Incoming", "LargeMessageStandalone"}
	sessionPhases       = [...]string{"Created", "OfferSent", "Invited", "Ringing", "Accepting", "MediaNegotiating", "Established", "Terminating", "Terminated"}
	participantStatuses = [...]string{"InviteQueued", "Inviting", "Invited", "Connected", "Disconnected", "Departed", "Failed", "Declined", "TimedOut", "BootQueued", "Booting", "Booted"}
	chunkTypes          = [...]string{"Generic", "DeliveredReport", "DisplayReport"}
	imdnStatuses        = [...]string{"Delivered", "Displayed", "Failed"}
	sessionErrorCodes   = [...]string{"SessionInitiationFailed", "SessionRestartFailed", "SessionNotFound", "MediaSessionBroken", "MediaSessionFailed", "SendResponseFailed", "InternalFault"}
	terminationReasons  = [...]string{"ByUser", "ByRemote", "ByInactivity", "ByTimeout", "ConnectionLost", "BySystem"}
	eventTypes          = [...]string{"SessionInvited", "SessionAutoAccepted", "SessionAccepting", "SessionStarted", "SessionRejected", "SessionAborted", "MessageReceived", "MessageSent", "MessageSendFailed", "DeliveryStatusReceived", "ParticipantsUpdated", "ImError"}
)

var (
	// international or national number with optional visual separators
	PhoneNumberPattern = regexp.MustCompile(`^\+?[0-9]{1}[0-9\-\.\(\)\s]{2,18}[0-9]{1}$`)
)

// RecognizedMimeTypes lists the payload MIME types a ChatMessage may carry.
var RecognizedMimeTypes = [...]string{MimeTextPlain, MimeGeoloc, MimeFtHttp, MimeEmoticon, MimeCloudFile, MimeCard}

func IsRecognizedMimeType(mt string) bool {
	for _, m := range RecognizedMimeTypes {
		if m == mt {
			return true
		}
	}
	return false
}
