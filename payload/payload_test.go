package payload

import (
	"testing"
	"time"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeolocRoundTrip(t *testing.T) {
	in := Geoloc{
		Label:      "office",
		Latitude:   48.8584,
		Longitude:  2.2945,
		Radius:     50,
		Expiration: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	out, err := ParseGeoloc(BuildGeoloc(in, "tel:+33612345678"))
	require.NoError(t, err)
	assert.Equal(t, in.Label, out.Label)
	assert.InDelta(t, in.Latitude, out.Latitude, 1e-9)
	assert.InDelta(t, in.Longitude, out.Longitude, 1e-9)
	assert.InDelta(t, in.Radius, out.Radius, 1e-9)
	assert.True(t, out.Expiration.Equal(in.Expiration))
}

func TestGeolocMandatoryPosition(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "junk"},
		{"no circle", `<rcsenvelope xmlns="` + GeolocNamespace + `"><rcspushlocation id="geo1"/></rcsenvelope>`},
		{"bad pos", `<rcsenvelope xmlns="` + GeolocNamespace + `"><rcspushlocation id="geo1"><geopriv><location-info><Circle><pos>48.85</pos></Circle></location-info></geopriv></rcspushlocation></rcsenvelope>`},
		{"non-numeric pos", `<rcsenvelope xmlns="` + GeolocNamespace + `"><rcspushlocation id="geo1"><geopriv><location-info><Circle><pos>north south</pos></Circle></location-info></geopriv></rcspushlocation></rcsenvelope>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := ParseGeoloc([]byte(tc.data))
			assert.Nil(t, g)
			var perr *global.PayloadError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestResourceListRoundTrip(t *testing.T) {
	uris := []string{"sip:bob@example.com", "tel:+33612345678", "sip:carol@example.com"}
	out, err := ParseResourceList(BuildResourceList(uris))
	require.NoError(t, err)
	assert.Equal(t, uris, out)
}

func TestResourceListErrors(t *testing.T) {
	_, err := ParseResourceList([]byte("nope"))
	assert.Error(t, err)

	empty := `<resource-lists xmlns="urn:ietf:params:xml:ns:resource-lists"><list/></resource-lists>`
	_, err = ParseResourceList([]byte(empty))
	assert.Error(t, err)
}

func TestEmoticonRoundTrip(t *testing.T) {
	e, err := ParseEmoticon(BuildEmoticon(":-)", "smile"))
	require.NoError(t, err)
	assert.Equal(t, ":-)", e.SMS)
	assert.Equal(t, "smile", e.EID)

	_, err = ParseEmoticon(BuildEmoticon("", "smile"))
	assert.Error(t, err)
}

func TestCloudFileRoundTrip(t *testing.T) {
	in := CloudFile{FileName: "photo.jpg", FileSize: 204800, DownloadURL: "https://store.example.com/f/abc", FileType: "image/jpeg"}
	out, err := ParseCloudFile(BuildCloudFile(in))
	require.NoError(t, err)
	assert.Equal(t, in.FileName, out.FileName)
	assert.Equal(t, in.FileSize, out.FileSize)
	assert.Equal(t, in.DownloadURL, out.DownloadURL)
	assert.Equal(t, in.FileType, out.FileType)

	_, err = ParseCloudFile(BuildCloudFile(CloudFile{FileName: "x"}))
	assert.Error(t, err)
}

func TestCardMandatoryFields(t *testing.T) {
	c, err := ParseCard(BuildCard(Card{Name: "Alice", Number: "+33612345678", Email: "alice@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.Name)

	_, err = ParseCard(BuildCard(Card{Name: "Alice"}))
	assert.Error(t, err)
}

func TestParseConferenceInfo(t *testing.T) {
	doc := `<?xml version="1.0"?>
<conference-info xmlns="urn:ietf:params:xml:ns:conference-info" entity="sip:conf@example.com">
 <users>
  <user entity="sip:bob@example.com"><endpoint entity="e1"><status>connected</status></endpoint></user>
  <user entity="sip:carol@example.com"><endpoint entity="e2"><status>dialing-out</status></endpoint></user>
  <user entity="sip:dave@example.com"><endpoint entity="e3"><status>disconnected</status><disconnection-method>departed</disconnection-method></endpoint></user>
  <user entity="sip:erin@example.com"><endpoint entity="e4"><status>disconnected</status><disconnection-method>booted</disconnection-method></endpoint></user>
 </users>
</conference-info>`
	statuses, err := ParseConferenceInfo([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, map[string]global.ParticipantStatus{
		"sip:bob@example.com":   global.Connected,
		"sip:carol@example.com": global.Inviting,
		"sip:dave@example.com":  global.Departed,
		"sip:erin@example.com":  global.Booted,
	}, statuses)
}

func TestParseConferenceInfoNoUsable(t *testing.T) {
	_, err := ParseConferenceInfo([]byte(`<conference-info xmlns="urn:ietf:params:xml:ns:conference-info"><users/></conference-info>`))
	assert.Error(t, err)
}
