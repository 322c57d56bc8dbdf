package capability

import (
	"strings"
	"testing"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
)

func TestSupportedTagsForChatDialect(t *testing.T) {
	cfg := global.DefaultChatConfig()

	cfg.Dialect = global.SimpleIM
	assert.Equal(t, []string{TagChatIM}, SupportedTagsForChat(cfg))

	cfg.Dialect = global.CPM
	assert.Equal(t, []string{TagCpmSession}, SupportedTagsForChat(cfg))
}

func TestExtensionTagAggregation(t *testing.T) {
	cfg := global.DefaultChatConfig()
	cfg.GeolocPushEnabled = true
	cfg.FileTransferEnabled = true
	cfg.FileTransferHttp = true

	tags := SupportedTagsForChat(cfg)
	if len(tags) != 2 {
		t.Fatalf("expected dialect tag plus one aggregated extension tag, got %v", tags)
	}
	ext := tags[1]
	assert.True(t, strings.HasPrefix(ext, iariRefPrefix), ext)
	assert.Contains(t, ext, IariGeolocPush)
	assert.Contains(t, ext, IariFileTransfer)
	assert.Contains(t, ext, IariFtHttp)
	assert.NotContains(t, ext, IariFtStoreFwd)

	// all urns share the single iari-ref parameter
	assert.Equal(t, 1, strings.Count(ext, iariRefPrefix))
	assert.Contains(t, ext, IariGeolocPush+";"+IariFileTransfer)
}

func TestExtensionTagOmittedWhenNothingEnabled(t *testing.T) {
	cfg := global.DefaultChatConfig()
	assert.Len(t, SupportedTagsForChat(cfg), 1)
}

func TestAcceptContactTagsForGroupChat(t *testing.T) {
	cfg := global.DefaultChatConfig()
	cfg.Dialect = global.CPM
	cfg.GroupManageExtension = true
	assert.Equal(t, []string{TagCpmSession, TagGroupManage}, AcceptContactTagsForGroupChat(cfg))

	cfg.GroupManageExtension = false
	assert.Equal(t, []string{TagCpmSession}, AcceptContactTagsForGroupChat(cfg))

	// the vendor tag never applies to legacy SIMPLE-IM
	cfg.Dialect = global.SimpleIM
	cfg.GroupManageExtension = true
	assert.Equal(t, []string{TagChatIM}, AcceptContactTagsForGroupChat(cfg))
}

func TestModeTagSelection(t *testing.T) {
	tests := []struct {
		name     string
		dialect  global.Dialect
		selector func(global.ChatConfig) string
		expected string
	}{
		{"pager cpm", global.CPM, TagForPagerMode, TagCpmPagerMsg},
		{"pager legacy", global.SimpleIM, TagForPagerMode, TagChatIM},
		{"large cpm", global.CPM, TagForLargeMessageMode, TagCpmLargeMsg},
		{"large legacy", global.SimpleIM, TagForLargeMessageMode, TagChatIM},
		{"session cpm", global.CPM, TagForSessionMode, TagCpmSession},
		{"session legacy", global.SimpleIM, TagForSessionMode, TagChatIM},
		{"ft cpm", global.CPM, TagForFileTransfer, TagCpmFileTransfer},
		{"ft legacy", global.SimpleIM, TagForFileTransfer, TagFileTransfer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := global.DefaultChatConfig()
			cfg.Dialect = tc.dialect
			assert.Equal(t, tc.expected, tc.selector(cfg))
		})
	}
}
