package capability

import (
	"strings"

	"rcsclientgo/global"
)

// extensionIARIs collects the optional-feature IARI urns enabled by the given
// configuration, in advertisement order.
func extensionIARIs(cfg global.ChatConfig) []string {
	var urns []string
	if cfg.GeolocPushEnabled {
		urns = append(urns, IariGeolocPush)
	}
	if cfg.FileTransferEnabled {
		urns = append(urns, IariFileTransfer)
	}
	if cfg.FileTransferHttp {
		urns = append(urns, IariFtHttp)
	}
	if cfg.FileTransferStoreFwd {
		urns = append(urns, IariFtStoreFwd)
	}
	return urns
}

// aggregatedExtensionTag joins the enabled optional-feature urns into the
// single semicolon-separated iari-ref tag. Empty when nothing is enabled.
func aggregatedExtensionTag(cfg global.ChatConfig) string {
	urns := extensionIARIs(cfg)
	if len(urns) == 0 {
		return ""
	}
	return iariRefPrefix + `"` + strings.Join(urns, ";") + `"`
}

func dialectTag(cfg global.ChatConfig) string {
	// legacy SIMPLE-IM is the fallback for any dialect value not enumerated,
	// so an unknown dialect degrades rather than failing closed
	if cfg.Dialect == global.CPM {
		return TagCpmSession
	}
	return TagChatIM
}

// SupportedTagsForChat returns the Contact feature tags for a one-to-one chat
// INVITE: the dialect tag first, then one aggregated extension tag when at
// least one optional feature is enabled. Order is significant.
func SupportedTagsForChat(cfg global.ChatConfig) []string {
	tags := []string{dialectTag(cfg)}
	if ext := aggregatedExtensionTag(cfg); ext != "" {
		tags = append(tags, ext)
	}
	return tags
}

// SupportedTagsForGroupChat returns the Contact feature tags for a group chat
// INVITE. Same shape as the one-to-one list.
func SupportedTagsForGroupChat(cfg global.ChatConfig) []string {
	return SupportedTagsForChat(cfg)
}

// AcceptContactTagsForGroupChat returns the Accept-Contact feature tags for a
// group chat INVITE: the dialect tag plus, on CPM network variants that
// require it, the vendor group-manage tag.
func AcceptContactTagsForGroupChat(cfg global.ChatConfig) []string {
	tags := []string{dialectTag(cfg)}
	if cfg.Dialect == global.CPM && cfg.GroupManageExtension {
		tags = append(tags, TagGroupManage)
	}
	return tags
}

// TagForPagerMode selects the single tag for pager-mode standalone messages.
func TagForPagerMode(cfg global.ChatConfig) string {
	if cfg.Dialect == global.CPM {
		return TagCpmPagerMsg
	}
	return TagChatIM
}

// TagForLargeMessageMode selects the single tag for large-message-mode
// standalone exchanges.
func TagForLargeMessageMode(cfg global.ChatConfig) string {
	if cfg.Dialect == global.CPM {
		return TagCpmLargeMsg
	}
	return TagChatIM
}

// TagForSessionMode selects the single tag for session-mode messaging.
func TagForSessionMode(cfg global.ChatConfig) string {
	if cfg.Dialect == global.CPM {
		return TagCpmSession
	}
	return TagChatIM
}

// TagForFileTransfer selects the single tag for file transfer sessions.
func TagForFileTransfer(cfg global.ChatConfig) string {
	if cfg.Dialect == global.CPM {
		return TagCpmFileTransfer
	}
	return TagFileTransfer
}
