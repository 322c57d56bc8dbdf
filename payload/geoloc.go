package payload

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rcsclientgo/cpim"
	"rcsclientgo/global"
)

const GeolocNamespace = "urn:gsma:params:xml:ns:rcs:rcs:geolocation"

// Geoloc is a push-location content: a PIDF-LO derived circle with an
// optional label and expiry.
type Geoloc struct {
	Label      string
	Latitude   float64
	Longitude  float64
	Radius     float64
	Expiration time.Time
}

// BuildGeoloc renders the GSMA push-location document.
func BuildGeoloc(g Geoloc, entity string) []byte {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(fmt.Sprintf("<rcsenvelope xmlns=\"%s\"\n", GeolocNamespace))
	sb.WriteString("xmlns:rpid=\"urn:ietf:params:xml:ns:pidf:rpid\"\n")
	sb.WriteString("xmlns:gp=\"urn:ietf:params:xml:ns:pidf:geopriv10\"\n")
	sb.WriteString("xmlns:gml=\"http://www.opengis.net/gml\"\n")
	sb.WriteString("xmlns:gs=\"http://www.opengis.net/pidflo/1.0\"\n")
	sb.WriteString(fmt.Sprintf("entity=\"%s\">\n", entity))
	if g.Label != "" {
		sb.WriteString(fmt.Sprintf("<rcspushlocation id=\"geo1\" label=\"%s\">\n", g.Label))
	} else {
		sb.WriteString("<rcspushlocation id=\"geo1\">\n")
	}
	sb.WriteString("<gp:geopriv>\n<gp:location-info>\n")
	sb.WriteString("<gs:Circle srsName=\"urn:ogc:def:crs:EPSG::4326\">\n")
	sb.WriteString(fmt.Sprintf("<gml:pos>%s %s</gml:pos>\n", formatCoord(g.Latitude), formatCoord(g.Longitude)))
	sb.WriteString(fmt.Sprintf("<gs:radius uom=\"urn:ogc:def:uom:EPSG::9001\">%s</gs:radius>\n", formatCoord(g.Radius)))
	sb.WriteString("</gs:Circle>\n</gp:location-info>\n")
	sb.WriteString("<gp:usage-rules>\n")
	if !g.Expiration.IsZero() {
		sb.WriteString(fmt.Sprintf("<gp:retention-expiry>%s</gp:retention-expiry>\n", cpim.EncodeDate(g.Expiration)))
	}
	sb.WriteString("</gp:usage-rules>\n</gp:geopriv>\n")
	sb.WriteString(fmt.Sprintf("<timestamp>%s</timestamp>\n", cpim.EncodeDate(time.Now())))
	sb.WriteString("</rcspushlocation>\n</rcsenvelope>")
	return []byte(sb.String())
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type xmlCircle struct {
	Pos    string `xml:"pos"`
	Radius string `xml:"radius"`
}

type xmlLocationInfo struct {
	Circle *xmlCircle `xml:"Circle"`
}

type xmlUsageRules struct {
	RetentionExpiry string `xml:"retention-expiry"`
}

type xmlGeopriv struct {
	LocationInfo *xmlLocationInfo `xml:"location-info"`
	UsageRules   *xmlUsageRules   `xml:"usage-rules"`
}

type xmlPushLocation struct {
	Label     string      `xml:"label,attr"`
	Geopriv   *xmlGeopriv `xml:"geopriv"`
	Timestamp string      `xml:"timestamp"`
}

type xmlRcsEnvelope struct {
	XMLName      xml.Name         `xml:"rcsenvelope"`
	PushLocation *xmlPushLocation `xml:"rcspushlocation"`
}

// ParseGeoloc decodes a push-location document. The coordinate position is
// mandatory; everything else is optional.
func ParseGeoloc(data []byte) (*Geoloc, error) {
	var doc xmlRcsEnvelope
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, global.NewPayloadError("geoloc", fmt.Sprintf("malformed document: %v", err))
	}
	if doc.PushLocation == nil || doc.PushLocation.Geopriv == nil ||
		doc.PushLocation.Geopriv.LocationInfo == nil || doc.PushLocation.Geopriv.LocationInfo.Circle == nil {
		return nil, global.NewPayloadError("geoloc", "missing location-info circle")
	}
	circle := doc.PushLocation.Geopriv.LocationInfo.Circle
	fields := strings.Fields(circle.Pos)
	if len(fields) != 2 {
		return nil, global.NewPayloadError("geoloc", "malformed gml:pos")
	}
	lat, errLat := strconv.ParseFloat(fields[0], 64)
	lon, errLon := strconv.ParseFloat(fields[1], 64)
	if errLat != nil || errLon != nil {
		return nil, global.NewPayloadError("geoloc", "non-numeric gml:pos")
	}

	g := &Geoloc{Label: doc.PushLocation.Label, Latitude: lat, Longitude: lon}
	if circle.Radius != "" {
		if r, err := strconv.ParseFloat(strings.TrimSpace(circle.Radius), 64); err == nil {
			g.Radius = r
		}
	}
	if ur := doc.PushLocation.Geopriv.UsageRules; ur != nil && ur.RetentionExpiry != "" {
		if t, ok := cpim.DecodeDate(ur.RetentionExpiry); ok {
			g.Expiration = t
		}
	}
	return g, nil
}
