package chat

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"rcsclientgo/global"

	"github.com/Moatassem/sdp"
)

const (
	SetupActive  = "active"
	SetupPassive = "passive"
	SetupActPass = "actpass"

	msrpProtoTCP = "TCP/MSRP"
	msrpProtoTLS = "TCP/TLS/MSRP"

	// accept-types of the media offer; CPIM wraps the payload types listed in
	// accept-wrapped-types
	DefaultAcceptTypes  = global.MimeCpim + " application/im-iscomposing+xml"
	DefaultWrappedTypes = global.MimeTextPlain + " " + global.MimeImdn + " " + global.MimeGeoloc + " " + global.MimeFtHttp + " " + global.MimeEmoticon + " " + global.MimeCloudFile + " " + global.MimeCard
)

// MediaDescription is the parsed view of one MSRP media block.
type MediaDescription struct {
	Host         string
	Port         int
	Path         string
	Setup        string
	Fingerprint  string
	AcceptTypes  string
	WrappedTypes string
	Secured      bool
}

// ComplementSetup answers the setup role opposite to the remote offer. An
// actpass offer is answered active so the local side initiates the TCP
// connection.
func ComplementSetup(remote string) string {
	switch remote {
	case SetupActive:
		return SetupPassive
	case SetupPassive, "":
		return SetupActive
	}
	return SetupActive
}

// BuildMediaDescription encodes the local MSRP media block. An active
// endpoint advertises the fixed RFC4145 discard port instead of a bound one.
func BuildMediaDescription(localHost string, localPort int, setup, path, acceptTypes, wrappedTypes, fingerprint string) []byte {
	port := localPort
	if setup == SetupActive {
		port = global.ActiveSetupPort
	}
	proto := msrpProtoTCP
	if fingerprint != "" {
		proto = msrpProtoTLS
	}
	now := time.Now().Unix()

	attrs := []*sdp.Attr{
		{Name: "accept-types", Value: acceptTypes},
		{Name: "accept-wrapped-types", Value: wrappedTypes},
		{Name: "setup", Value: setup},
		{Name: "path", Value: path},
	}
	if fingerprint != "" {
		attrs = append(attrs, &sdp.Attr{Name: "fingerprint", Value: fingerprint})
	}

	mySDP := &sdp.Session{
		Origin: &sdp.Origin{
			Username:       "-",
			SessionID:      now,
			SessionVersion: now,
			Network:        sdp.NetworkInternet,
			Type:           sdp.TypeIPv4,
			Address:        localHost,
		},
		Name: "-",
		Connection: &sdp.Connection{
			Network: sdp.NetworkInternet,
			Type:    sdp.TypeIPv4,
			Address: localHost,
		},
		Timing: &sdp.Timing{},
		Media: []*sdp.Media{
			{
				Type:        "message",
				Port:        port,
				Proto:       proto,
				FormatDescr: "*",
				Attributes:  attrs,
			},
		},
	}
	return mySDP.Bytes()
}

// ParseMediaDescription decodes the remote MSRP media block out of an SDP
// offer or answer.
func ParseMediaDescription(data []byte) (*MediaDescription, error) {
	sdpses, err := sdp.Parse(data)
	if err != nil {
		return nil, global.NewPayloadError("sdp", fmt.Sprintf("malformed session description: %v", err))
	}

	for _, media := range sdpses.Media {
		if media.Type != "message" || !strings.Contains(media.Proto, "MSRP") || media.Port == 0 {
			continue
		}
		md := &MediaDescription{
			Port:         media.Port,
			Path:         media.Attributes.Get("path"),
			Setup:        media.Attributes.Get("setup"),
			Fingerprint:  media.Attributes.Get("fingerprint"),
			AcceptTypes:  media.Attributes.Get("accept-types"),
			WrappedTypes: media.Attributes.Get("accept-wrapped-types"),
			Secured:      strings.Contains(media.Proto, "TLS"),
		}
		if len(media.Connection) > 0 {
			md.Host = media.Connection[0].Address
		} else if sdpses.Connection != nil {
			md.Host = sdpses.Connection.Address
		}
		if md.Path == "" {
			return nil, global.NewPayloadError("sdp", "msrp media without path attribute")
		}
		if md.Host == "" {
			return nil, global.NewPayloadError("sdp", "msrp media without connection address")
		}
		return md, nil
	}
	return nil, global.NewPayloadError("sdp", "no msrp media block present")
}

// ExtractSDP pulls the session description out of an INVITE body, unwrapping
// a multipart envelope when needed.
func ExtractSDP(body []byte, contentType string) []byte {
	return extractPart(body, contentType, global.MimeSdp)
}

// extractPart returns the body itself when it carries wantType directly, or
// the first matching part of a multipart envelope.
func extractPart(body []byte, contentType, wantType string) []byte {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	if mediaType == wantType {
		return body
	}
	if !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil
	}
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil
		}
		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}
		if partType == wantType {
			data, err := io.ReadAll(part)
			if err != nil {
				return nil
			}
			return data
		}
	}
}
