// Package imdn builds and parses Instant Message Disposition Notification
// documents (RFC 5438 XML schema).
package imdn

import (
	"encoding/xml"
	"fmt"
	"time"

	"rcsclientgo/cpim"
	"rcsclientgo/global"
)

const (
	Namespace = "urn:ietf:params:imdn"
)

// ==============================================================
type ReportKind int

const (
	DeliveryNotification ReportKind = iota
	DisplayNotification
	ProcessingNotification
)

var reportKinds = [...]string{"delivery-notification", "display-notification", "processing-notification"}

func (rk ReportKind) String() string {
	return reportKinds[rk]
}

// KindForStatus maps a disposition status onto the notification element that
// carries it: Displayed travels as display-notification, Delivered as
// delivery-notification, anything else as processing-notification.
func KindForStatus(status global.ImdnStatus) ReportKind {
	switch status {
	case global.Displayed:
		return DisplayNotification
	case global.Delivered:
		return DeliveryNotification
	}
	return ProcessingNotification
}

// ==============================================================

// Report is the transient parsed form of one IMDN document. Consumed
// immediately by the dispatcher and discarded.
type Report struct {
	MessageID string
	Kind      ReportKind
	Status    global.ImdnStatus
	DateTime  time.Time
}

// ==============================================================

func statusLeafName(status global.ImdnStatus) string {
	switch status {
	case global.Delivered:
		return "delivered"
	case global.Displayed:
		return "displayed"
	}
	return "failed"
}

// BuildXML produces the IMDN report document for the given message id and
// disposition status.
func BuildXML(msgID string, status global.ImdnStatus, timestamp time.Time) []byte {
	doc := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>"+cpim.CRLF+
		"<imdn xmlns=\"%s\">"+cpim.CRLF+
		"<message-id>%s</message-id>"+cpim.CRLF+
		"<datetime>%s</datetime>"+cpim.CRLF+
		"<%s><status><%s/></status></%s>"+cpim.CRLF+
		"</imdn>",
		Namespace, msgID, cpim.EncodeDate(timestamp),
		KindForStatus(status), statusLeafName(status), KindForStatus(status))
	return []byte(doc)
}

// ==============================================================
// Parsing

type xmlStatus struct {
	Delivered *struct{} `xml:"delivered"`
	Displayed *struct{} `xml:"displayed"`
	Failed    *struct{} `xml:"failed"`
	Error     *struct{} `xml:"error"`
	Forbidden *struct{} `xml:"forbidden"`
}

type xmlNotification struct {
	Status xmlStatus `xml:"status"`
}

type xmlDocument struct {
	XMLName    xml.Name         `xml:"imdn"`
	MessageID  string           `xml:"message-id"`
	DateTime   string           `xml:"datetime"`
	Delivery   *xmlNotification `xml:"delivery-notification"`
	Display    *xmlNotification `xml:"display-notification"`
	Processing *xmlNotification `xml:"processing-notification"`
}

// ParseReport strictly parses an IMDN document. Malformed XML or a missing
// mandatory field yields a PayloadError; partially populated reports are
// never returned.
func ParseReport(data []byte) (*Report, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, global.NewPayloadError("imdn", fmt.Sprintf("malformed document: %v", err))
	}
	if doc.MessageID == "" {
		return nil, global.NewPayloadError("imdn", "missing message-id")
	}

	var kind ReportKind
	var notif *xmlNotification
	switch {
	case doc.Display != nil:
		kind, notif = DisplayNotification, doc.Display
	case doc.Delivery != nil:
		kind, notif = DeliveryNotification, doc.Delivery
	case doc.Processing != nil:
		kind, notif = ProcessingNotification, doc.Processing
	default:
		return nil, global.NewPayloadError("imdn", "missing notification element")
	}

	var status global.ImdnStatus
	switch {
	case notif.Status.Displayed != nil:
		status = global.Displayed
	case notif.Status.Delivered != nil:
		status = global.Delivered
	case notif.Status.Failed != nil, notif.Status.Error != nil, notif.Status.Forbidden != nil:
		status = global.DeliveryFailed
	default:
		return nil, global.NewPayloadError("imdn", "missing status leaf")
	}

	report := &Report{MessageID: doc.MessageID, Kind: kind, Status: status}
	if t, ok := cpim.DecodeDate(doc.DateTime); ok {
		report.DateTime = t
	}
	return report, nil
}
