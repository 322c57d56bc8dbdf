package chat

import (
	"testing"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaDescriptionRoundTrip(t *testing.T) {
	path := "msrp://192.0.2.10:2855/abc;tcp"
	data := BuildMediaDescription("192.0.2.10", 2855, SetupPassive, path, DefaultAcceptTypes, DefaultWrappedTypes, "")

	md, err := ParseMediaDescription(data)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", md.Host)
	assert.Equal(t, 2855, md.Port)
	assert.Equal(t, path, md.Path)
	assert.Equal(t, SetupPassive, md.Setup)
	assert.Equal(t, DefaultAcceptTypes, md.AcceptTypes)
	assert.Equal(t, DefaultWrappedTypes, md.WrappedTypes)
	assert.False(t, md.Secured)
}

func TestActiveOfferAdvertisesDiscardPort(t *testing.T) {
	data := BuildMediaDescription("192.0.2.10", 2855, SetupActive, "msrp://192.0.2.10:2855/abc;tcp", DefaultAcceptTypes, DefaultWrappedTypes, "")
	md, err := ParseMediaDescription(data)
	require.NoError(t, err)
	assert.Equal(t, global.ActiveSetupPort, md.Port)
}

func TestFingerprintSelectsSecuredProto(t *testing.T) {
	data := BuildMediaDescription("192.0.2.10", 2855, SetupPassive, "msrps://192.0.2.10:2855/abc;tcp", DefaultAcceptTypes, DefaultWrappedTypes, "SHA-1 AB:CD")
	md, err := ParseMediaDescription(data)
	require.NoError(t, err)
	assert.True(t, md.Secured)
	assert.Equal(t, "SHA-1 AB:CD", md.Fingerprint)
}

func TestComplementSetup(t *testing.T) {
	assert.Equal(t, SetupPassive, ComplementSetup(SetupActive))
	assert.Equal(t, SetupActive, ComplementSetup(SetupPassive))
	assert.Equal(t, SetupActive, ComplementSetup(SetupActPass))
	assert.Equal(t, SetupActive, ComplementSetup(""))
}

func TestParseMediaDescriptionErrors(t *testing.T) {
	_, err := ParseMediaDescription([]byte("not sdp at all"))
	assert.Error(t, err)

	audioOnly := "v=0\r\no=- 1 1 IN IP4 192.0.2.10\r\ns=-\r\nc=IN IP4 192.0.2.10\r\nt=0 0\r\nm=audio 4000 RTP/AVP 0\r\n"
	_, err = ParseMediaDescription([]byte(audioOnly))
	assert.Error(t, err)
}

func TestExtractSDPMultipart(t *testing.T) {
	plain := []byte("v=0\r\n")
	assert.Equal(t, plain, ExtractSDP(plain, global.MimeSdp))

	boundary := global.MultipartBoundary
	body := "--" + boundary + "\r\n" +
		"Content-Type: " + global.MimeSdp + "\r\n\r\n" +
		"v=0\r\n" +
		"--" + boundary + "--\r\n"
	extracted := ExtractSDP([]byte(body), global.MimeMultipartMixed+";boundary="+boundary)
	assert.Equal(t, "v=0", string(extracted))

	assert.Nil(t, ExtractSDP([]byte("x"), "application/junk"))
}
