package payload

import (
	"encoding/xml"

	"rcsclientgo/global"
)

// conference-info (RFC 4575), reduced to what the participant directory
// consumes: per-user endpoint status and disconnection method.
type xmlConferenceEndpoint struct {
	Status              string `xml:"status"`
	DisconnectionMethod string `xml:"disconnection-method"`
}

type xmlConferenceUser struct {
	Entity    string                  `xml:"entity,attr"`
	Endpoints []xmlConferenceEndpoint `xml:"endpoint"`
}

type xmlConferenceInfo struct {
	XMLName xml.Name            `xml:"conference-info"`
	Users   []xmlConferenceUser `xml:"users>user"`
}

// ParseConferenceInfo extracts participant statuses from a conference event
// notification body. Users without a recognizable endpoint status are
// skipped rather than failing the whole document.
func ParseConferenceInfo(data []byte) (map[string]global.ParticipantStatus, error) {
	var doc xmlConferenceInfo
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, global.NewPayloadError("conference-info", "malformed document: "+err.Error())
	}
	statuses := make(map[string]global.ParticipantStatus, len(doc.Users))
	for _, user := range doc.Users {
		if user.Entity == "" || len(user.Endpoints) == 0 {
			continue
		}
		if status, ok := endpointStatus(user.Endpoints[0]); ok {
			statuses[user.Entity] = status
		}
	}
	if len(statuses) == 0 {
		return nil, global.NewPayloadError("conference-info", "no usable participant entries")
	}
	return statuses, nil
}

func endpointStatus(ep xmlConferenceEndpoint) (global.ParticipantStatus, bool) {
	switch ep.Status {
	case "pending":
		return global.InviteQueued, true
	case "dialing-out", "dialing-in":
		return global.Inviting, true
	case "alerting":
		return global.ParticipantInvited, true
	case "connected", "on-hold", "muted-via-focus":
		return global.Connected, true
	case "disconnected":
		switch ep.DisconnectionMethod {
		case "departed":
			return global.Departed, true
		case "booted":
			return global.Booted, true
		case "failed":
			return global.ParticipantFailed, true
		}
		return global.Disconnected, true
	case "failed":
		return global.ParticipantFailed, true
	}
	return 0, false
}
