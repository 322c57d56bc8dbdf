package payload

import (
	"encoding/xml"
	"fmt"
	"strings"

	"rcsclientgo/global"
)

// ==============================================================
// Emoticon

const EmoticonNamespace = "http://vemoticon.3gpp.ims/types"

// Emoticon carries a shortcut text and the emoticon identifier it resolves to.
type Emoticon struct {
	XMLName xml.Name `xml:"vemoticon"`
	SMS     string   `xml:"sms"`
	EID     string   `xml:"eid"`
}

func BuildEmoticon(sms, eid string) []byte {
	e := Emoticon{SMS: sms, EID: eid}
	return marshalWithNamespace(e, EmoticonNamespace)
}

func ParseEmoticon(data []byte) (*Emoticon, error) {
	var e Emoticon
	if err := xml.Unmarshal(data, &e); err != nil {
		return nil, global.NewPayloadError("emoticon", fmt.Sprintf("malformed document: %v", err))
	}
	if e.SMS == "" || e.EID == "" {
		return nil, global.NewPayloadError("emoticon", "missing sms or eid")
	}
	return &e, nil
}

// ==============================================================
// Cloud file

const CloudFileNamespace = "http://cloudfile.3gpp.ims/types"

// CloudFile describes a file shared via a storage service: name, byte size
// and download link are mandatory, the rest optional.
type CloudFile struct {
	XMLName     xml.Name `xml:"cloudfile"`
	FileName    string   `xml:"filename"`
	FileSize    int64    `xml:"filesize"`
	DownloadURL string   `xml:"downloadurl"`
	FileType    string   `xml:"filetype,omitempty"`
	ExpireDate  string   `xml:"expiredate,omitempty"`
}

func BuildCloudFile(cf CloudFile) []byte {
	return marshalWithNamespace(cf, CloudFileNamespace)
}

func ParseCloudFile(data []byte) (*CloudFile, error) {
	var cf CloudFile
	if err := xml.Unmarshal(data, &cf); err != nil {
		return nil, global.NewPayloadError("cloudfile", fmt.Sprintf("malformed document: %v", err))
	}
	if cf.FileName == "" || cf.FileSize <= 0 || cf.DownloadURL == "" {
		return nil, global.NewPayloadError("cloudfile", "missing filename, filesize or downloadurl")
	}
	return &cf, nil
}

// ==============================================================
// Card

const CardNamespace = "http://card.3gpp.ims/types"

// Card is a shared personal or business card. Name and number are mandatory.
type Card struct {
	XMLName  xml.Name `xml:"card"`
	Name     string   `xml:"name"`
	Number   string   `xml:"number"`
	Email    string   `xml:"email,omitempty"`
	Address  string   `xml:"address,omitempty"`
	PhotoURL string   `xml:"photourl,omitempty"`
}

func BuildCard(c Card) []byte {
	return marshalWithNamespace(c, CardNamespace)
}

func ParseCard(data []byte) (*Card, error) {
	var c Card
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, global.NewPayloadError("card", fmt.Sprintf("malformed document: %v", err))
	}
	if c.Name == "" || c.Number == "" {
		return nil, global.NewPayloadError("card", "missing name or number")
	}
	return &c, nil
}

// ==============================================================

func marshalWithNamespace(v any, ns string) []byte {
	out, err := xml.Marshal(v)
	if err != nil {
		// fixed schemas marshal deterministically; failure here is a bug
		panic(err)
	}
	doc := string(out)
	// inject the default namespace on the root element
	if idx := strings.IndexByte(doc, '>'); idx != -1 && !strings.Contains(doc[:idx], "xmlns") {
		doc = doc[:idx] + fmt.Sprintf(" xmlns=\"%s\"", ns) + doc[idx:]
	}
	return []byte(xml.Header + doc)
}
