// Package capability holds the static feature-tag registry and the
// deterministic mapping from configuration to the tag lists advertised in
// SIP Contact and Accept-Contact headers.
package capability

// IARI/ICSI reference urns, percent-encoded as they travel inside tag values.
const (
	IariChat         = "urn%3Aurn-7%3A3gpp-application.ims.iari.rcse.im"
	IariFileTransfer = "urn%3Aurn-7%3A3gpp-application.ims.iari.rcs.ft"
	IariFtHttp       = "urn%3Aurn-7%3A3gpp-application.ims.iari.rcs.fthttp"
	IariFtStoreFwd   = "urn%3Aurn-7%3A3gpp-application.ims.iari.rcs.ftstandfw"
	IariGeolocPush   = "urn%3Aurn-7%3A3gpp-application.ims.iari.rcs.geopush"

	IcsiCpmSession      = "urn%3Aurn-7%3A3gpp-service.ims.icsi.oma.cpm.session"
	IcsiCpmPagerMsg     = "urn%3Aurn-7%3A3gpp-service.ims.icsi.oma.cpm.msg"
	IcsiCpmLargeMsg     = "urn%3Aurn-7%3A3gpp-service.ims.icsi.oma.cpm.largemsg"
	IcsiCpmFileTransfer = "urn%3Aurn-7%3A3gpp-service.ims.icsi.oma.cpm.filetransfer"
)

// Complete feature tags.
const (
	TagChatIM          = `+g.oma.sip-im`
	TagCpmSession      = `+g.3gpp.icsi-ref="` + IcsiCpmSession + `"`
	TagCpmPagerMsg     = `+g.3gpp.icsi-ref="` + IcsiCpmPagerMsg + `"`
	TagCpmLargeMsg     = `+g.3gpp.icsi-ref="` + IcsiCpmLargeMsg + `"`
	TagCpmFileTransfer = `+g.3gpp.icsi-ref="` + IcsiCpmFileTransfer + `"`
	TagFileTransfer    = `+g.3gpp.iari-ref="` + IariFileTransfer + `"`

	// vendor extension advertised on some CPM network variants only
	TagGroupManage = `+g.gsma.rcs.cpm.group-manage`

	iariRefPrefix = `+g.3gpp.iari-ref=`
)
