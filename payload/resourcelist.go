// Package payload builds and parses the fixed-schema XML documents carried
// in chat sessions: resource lists for group membership, geolocation push,
// emoticon, cloud-file and card contents. Parsers raise a PayloadError when
// a mandatory field is absent and never synthesize defaults.
package payload

import (
	"encoding/xml"
	"fmt"
	"strings"

	"rcsclientgo/global"
)

const ResourceListNamespace = "urn:ietf:params:xml:ns:resource-lists"

// BuildResourceList renders the recipient URIs as a resource-lists document
// for a multi-target REFER or INVITE.
func BuildResourceList(uris []string) []byte {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(fmt.Sprintf("<resource-lists xmlns=\"%s\">\n<list>\n", ResourceListNamespace))
	for _, uri := range uris {
		sb.WriteString("<entry uri=\"")
		xml.EscapeText(&sb, []byte(uri))
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</list>\n</resource-lists>")
	return []byte(sb.String())
}

type xmlResourceEntry struct {
	URI string `xml:"uri,attr"`
}

type xmlResourceList struct {
	Entries []xmlResourceEntry `xml:"entry"`
}

type xmlResourceLists struct {
	XMLName xml.Name          `xml:"resource-lists"`
	Lists   []xmlResourceList `xml:"list"`
}

// ParseResourceList extracts the entry URIs of a resource-lists document.
func ParseResourceList(data []byte) ([]string, error) {
	var doc xmlResourceLists
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, global.NewPayloadError("resource-list", fmt.Sprintf("malformed document: %v", err))
	}
	var uris []string
	for _, lst := range doc.Lists {
		for _, e := range lst.Entries {
			if e.URI != "" {
				uris = append(uris, e.URI)
			}
		}
	}
	if len(uris) == 0 {
		return nil, global.NewPayloadError("resource-list", "no entry uri present")
	}
	return uris, nil
}
