package imdn

import (
	"testing"
	"time"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParseRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 9, 17, 5, 0, 0, time.UTC)
	tests := []struct {
		status global.ImdnStatus
		kind   ReportKind
	}{
		{global.Delivered, DeliveryNotification},
		{global.Displayed, DisplayNotification},
		{global.DeliveryFailed, ProcessingNotification},
	}
	for _, tc := range tests {
		t.Run(tc.status.String(), func(t *testing.T) {
			report, err := ParseReport(BuildXML("msg-7", tc.status, ts))
			require.NoError(t, err)
			assert.Equal(t, "msg-7", report.MessageID)
			assert.Equal(t, tc.status, report.Status)
			assert.Equal(t, tc.kind, report.Kind)
			assert.True(t, report.DateTime.Equal(ts))
		})
	}
}

func TestParseReportRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "garbage"},
		{"missing message-id", `<imdn xmlns="urn:ietf:params:imdn"><delivery-notification><status><delivered/></status></delivery-notification></imdn>`},
		{"missing notification", `<imdn xmlns="urn:ietf:params:imdn"><message-id>m1</message-id></imdn>`},
		{"missing status leaf", `<imdn xmlns="urn:ietf:params:imdn"><message-id>m1</message-id><delivery-notification><status/></delivery-notification></imdn>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := ParseReport([]byte(tc.data))
			assert.Nil(t, report)
			var perr *global.PayloadError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseReportFailureLeafVariants(t *testing.T) {
	for _, leaf := range []string{"failed", "error", "forbidden"} {
		data := `<imdn xmlns="urn:ietf:params:imdn"><message-id>m1</message-id>` +
			`<processing-notification><status><` + leaf + `/></status></processing-notification></imdn>`
		report, err := ParseReport([]byte(data))
		require.NoError(t, err, leaf)
		assert.Equal(t, global.DeliveryFailed, report.Status, leaf)
	}
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, DeliveryNotification, KindForStatus(global.Delivered))
	assert.Equal(t, DisplayNotification, KindForStatus(global.Displayed))
	assert.Equal(t, ProcessingNotification, KindForStatus(global.DeliveryFailed))
}
