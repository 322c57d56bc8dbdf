package main

import (
	"fmt"
	"os"

	"rcsclientgo/chat"
	"rcsclientgo/global"
	"rcsclientgo/system"
	"rcsclientgo/webserver"

	"github.com/joho/godotenv"
)

// environment variables
//
//nolint:revive
const (
	OwnIPv4    string = "server_ipv4"
	LocalUser  string = "local_user"
	LocalName  string = "local_display_name"
	Dialect    string = "chat_dialect" // "simple-im" or "cpm"
	ConfFctUri string = "conference_factory_uri"

	AutoAcceptChat      string = "auto_accept_chat"
	AutoAcceptGroupChat string = "auto_accept_group_chat"
	SendDisplayReports  string = "send_display_reports"
	FileTransferHttp    string = "ft_http"
	GeolocPush          string = "geoloc_push"
	GroupManageExt      string = "group_manage_extension"

	RingingPeriod   string = "ringing_period_sec"
	InactivityLimit string = "inactivity_timeout_sec"
	MaxParticipants string = "max_participants"

	//nolint:stylecheck
	OwnHttpPort string = "http_port"
)

func main() {
	_ = godotenv.Load()

	greeting()

	cfg, ipv4, httpport := checkArgs()

	eng := chat.NewEngine(cfg, ipv4)

	webserver.StartWS(ipv4, httpport, eng)

	global.WtGrp.Wait()
}

func greeting() {
	system.LogInfo(system.LTSystem, fmt.Sprintf("Welcome to %s - %s", global.EntityName, global.ClientName))
}

func checkArgs() (global.ChatConfig, string, int) {
	cfg := global.DefaultChatConfig()

	ipv4, ok := os.LookupEnv(OwnIPv4)
	if !ok {
		system.LogWarning(system.LTConfiguration, "No self IPv4 address provided - Loopback shall be used")
		ipv4 = "127.0.0.1"
	}

	localUser, ok := os.LookupEnv(LocalUser)
	if !ok {
		system.LogError(system.LTConfiguration, "No local user URI provided - Exiting")
		os.Exit(2)
	}
	cfg.LocalUser = localUser
	cfg.LocalDisplayName = os.Getenv(LocalName)

	if dialect, ok := os.LookupEnv(Dialect); ok {
		switch system.ASCIIToLower(dialect) {
		case "cpm":
			cfg.Dialect = global.CPM
		case "simple-im":
			cfg.Dialect = global.SimpleIM
		default:
			system.LogWarning(system.LTConfiguration, fmt.Sprintf("Unknown chat dialect [%s] - [%s] shall be used", dialect, cfg.Dialect))
		}
	}

	cfg.ConferenceFactory = os.Getenv(ConfFctUri)
	if cfg.ConferenceFactory == "" {
		system.LogWarning(system.LTConfiguration, "No conference factory URI provided - Group chat disabled")
	}

	cfg.AutoAcceptChat = envFlag(AutoAcceptChat, cfg.AutoAcceptChat)
	cfg.AutoAcceptGroupChat = envFlag(AutoAcceptGroupChat, cfg.AutoAcceptGroupChat)
	cfg.SendDisplayReports = envFlag(SendDisplayReports, cfg.SendDisplayReports)
	cfg.FileTransferHttp = envFlag(FileTransferHttp, cfg.FileTransferHttp)
	cfg.GeolocPushEnabled = envFlag(GeolocPush, cfg.GeolocPushEnabled)
	cfg.GroupManageExtension = envFlag(GroupManageExt, cfg.GroupManageExtension)

	cfg.RingingPeriodSec = envInt(RingingPeriod, cfg.RingingPeriodSec, 5, 300)
	cfg.InactivityTimeoutSec = envInt(InactivityLimit, cfg.InactivityTimeoutSec, 0, 86400)
	cfg.MaxParticipants = envInt(MaxParticipants, cfg.MaxParticipants, 2, 100)

	var httpport int
	hp, ok := os.LookupEnv(OwnHttpPort)
	if !ok {
		system.LogWarning(system.LTConfiguration, fmt.Sprintf("No self HTTP port provided - [%d] shall be used", global.DefaultHttpPort))
		httpport = global.DefaultHttpPort
	} else {
		minH := 80
		maxH := 9999
		httpport, ok = system.Str2IntDefaultMinMax(hp, global.DefaultHttpPort, minH, maxH)
		if !ok {
			system.LogWarning(system.LTConfiguration, "Invalid HTTP port: "+hp)
		}
	}

	return cfg, ipv4, httpport
}

func envFlag(name string, dflt bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return dflt
	}
	switch system.ASCIIToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	system.LogWarning(system.LTConfiguration, fmt.Sprintf("Invalid flag [%s=%s] - default kept", name, raw))
	return dflt
}

func envInt(name string, dflt, min, max int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return dflt
	}
	val, ok := system.Str2IntDefaultMinMax(raw, dflt, min, max)
	if !ok {
		system.LogWarning(system.LTConfiguration, fmt.Sprintf("Invalid value [%s=%s] - default kept", name, raw))
	}
	return val
}
