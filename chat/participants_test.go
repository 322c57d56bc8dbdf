package chat

import (
	"context"
	"testing"

	"rcsclientgo/global"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryApplyNotifiesOnceThenStaysSilent(t *testing.T) {
	dir := NewGroupParticipantDirectory([]string{"sip:bob@x", "sip:carol@x"})

	notifications := 0
	var lastChanged map[string]global.ParticipantStatus
	dir.SetListener(func(changed, full map[string]global.ParticipantStatus) {
		notifications++
		lastChanged = changed
		assert.Len(t, full, 2)
	})

	update := map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting}
	dir.ApplyUpdate(dir.DiffUpdate(update))
	require.Equal(t, 1, notifications)
	assert.Equal(t, update, lastChanged)

	// re-applying the same update is a silent no-op
	dir.ApplyUpdate(dir.DiffUpdate(update))
	assert.Equal(t, 1, notifications)
}

func TestDirectoryRejectsBackwardTransitions(t *testing.T) {
	dir := NewGroupParticipantDirectory(nil)
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Connected})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Departed})

	// departed never moves back to connected
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Connected})
	assert.Equal(t, global.Departed, dir.Snapshot()["sip:bob@x"])

	// but a fresh inviting epoch is always permitted
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting})
	assert.Equal(t, global.Inviting, dir.Snapshot()["sip:bob@x"])
}

func TestAvailableSlots(t *testing.T) {
	dir := NewGroupParticipantDirectory([]string{"sip:bob@x", "sip:carol@x"})
	// ceiling 10, two queued, one slot for the local user
	assert.Equal(t, 7, dir.AvailableSlots(10))

	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Connected})
	assert.Equal(t, 7, dir.AvailableSlots(10), "connected still occupies a slot")

	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Departed})
	assert.Equal(t, 8, dir.AvailableSlots(10), "departed frees its slot")
}

func TestRejoinable(t *testing.T) {
	dir := NewGroupParticipantDirectory(nil)
	dir.ApplyUpdate(map[string]global.ParticipantStatus{
		"sip:bob@x":   global.Inviting,
		"sip:carol@x": global.Inviting,
		"sip:dave@x":  global.Inviting,
		"sip:erin@x":  global.Inviting,
	})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{
		"sip:bob@x":   global.Connected,
		"sip:carol@x": global.ParticipantInvited,
		"sip:dave@x":  global.ParticipantFailed,
	})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:erin@x": global.Connected})
	dir.ApplyUpdate(map[string]global.ParticipantStatus{"sip:erin@x": global.Departed})

	rejoinable := dir.Rejoinable()
	assert.ElementsMatch(t, []string{"sip:bob@x", "sip:carol@x"}, rejoinable)
}

// ==============================================================
// REFER operations

func TestInviteParticipantsProxyAuthRetry(t *testing.T) {
	sip := &fakeSipTransport{responses: []*SipResponse{
		statusResponse(407, "Proxy Authentication Required"),
		statusResponse(200, "OK"),
	}}
	c := establishedGroupSession(testConfig(), sip, &fakeMsrpSession{}, []string{"sip:bob@x"})

	err := c.InviteParticipants(context.Background(), []string{"sip:new@x"})
	require.NoError(t, err)

	refers := sip.sentRequests(global.REFER)
	require.Len(t, refers, 2, "exactly one retry after the challenge")
	assert.False(t, refers[0].Headers.HeaderExists(global.Proxy_Authorization.String()))
	assert.True(t, refers[1].Headers.HeaderExists(global.Proxy_Authorization.String()))
	assert.Equal(t, 1, sip.authCalls)

	assert.Equal(t, global.ParticipantInvited, c.participants.Snapshot()["sip:new@x"])
}

func TestInviteParticipantsSecondChallengeIsFinal(t *testing.T) {
	sip := &fakeSipTransport{responses: []*SipResponse{
		statusResponse(407, "Proxy Authentication Required"),
		statusResponse(407, "Proxy Authentication Required"),
	}}
	c := establishedGroupSession(testConfig(), sip, &fakeMsrpSession{}, nil)

	err := c.InviteParticipants(context.Background(), []string{"sip:new@x"})
	require.Error(t, err)
	require.Len(t, sip.sentRequests(global.REFER), 2)
	assert.Equal(t, global.ParticipantFailed, c.participants.Snapshot()["sip:new@x"])
}

func TestInviteParticipantsRejectedBatchFails(t *testing.T) {
	sip := &fakeSipTransport{responses: []*SipResponse{statusResponse(403, "Forbidden")}}
	c := establishedGroupSession(testConfig(), sip, &fakeMsrpSession{}, nil)

	err := c.InviteParticipants(context.Background(), []string{"sip:a@x", "sip:b@x"})
	require.Error(t, err)
	require.Len(t, sip.sentRequests(global.REFER), 1, "no retry without a challenge")

	snap := c.participants.Snapshot()
	assert.Equal(t, global.ParticipantFailed, snap["sip:a@x"])
	assert.Equal(t, global.ParticipantFailed, snap["sip:b@x"])
}

func TestInviteParticipantsMultiTargetUsesResourceList(t *testing.T) {
	sip := &fakeSipTransport{responses: []*SipResponse{statusResponse(200, "OK")}}
	c := establishedGroupSession(testConfig(), sip, &fakeMsrpSession{}, nil)

	require.NoError(t, c.InviteParticipants(context.Background(), []string{"sip:a@x", "sip:b@x"}))

	refer := sip.sentRequests(global.REFER)[0]
	assert.Equal(t, global.MimeResourceList, refer.ContentType)
	assert.True(t, refer.Headers.DoesValueExistInHeader(global.Require.String(), "multiple-refer"))
	assert.Contains(t, string(refer.Body), "sip:a@x")
	assert.Contains(t, string(refer.Body), "sip:b@x")
}

func TestInviteParticipantsCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxParticipants = 3
	sip := &fakeSipTransport{}
	c := establishedGroupSession(cfg, sip, &fakeMsrpSession{}, []string{"sip:a@x", "sip:b@x"})

	// 3-person ceiling minus local user minus two queued leaves no room
	err := c.InviteParticipants(context.Background(), []string{"sip:c@x"})
	require.Error(t, err)
	assert.Empty(t, sip.sentRequests(global.REFER))
}

func TestRemoveParticipant(t *testing.T) {
	sip := &fakeSipTransport{responses: []*SipResponse{statusResponse(200, "OK")}}
	c := establishedGroupSession(testConfig(), sip, &fakeMsrpSession{}, []string{"sip:bob@x"})
	c.participants.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting})
	c.participants.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Connected})

	require.NoError(t, c.RemoveParticipant(context.Background(), "sip:bob@x"))

	refer := sip.sentRequests(global.REFER)[0]
	assert.True(t, refer.Headers.DoesValueExistInHeader(global.Refer_To.String(), "method=BYE"))
	assert.Equal(t, global.Booted, c.participants.Snapshot()["sip:bob@x"])
}

func TestApplyConferenceNotify(t *testing.T) {
	c := establishedGroupSession(testConfig(), &fakeSipTransport{}, &fakeMsrpSession{}, []string{"sip:bob@x"})
	c.participants.ApplyUpdate(map[string]global.ParticipantStatus{"sip:bob@x": global.Inviting})

	doc := `<conference-info xmlns="urn:ietf:params:xml:ns:conference-info">
<users><user entity="sip:bob@x"><endpoint><status>connected</status></endpoint></user></users>
</conference-info>`
	require.NoError(t, c.ApplyConferenceNotify([]byte(doc)))
	assert.Equal(t, global.Connected, c.participants.Snapshot()["sip:bob@x"])

	// replaying the same notification changes nothing
	require.NoError(t, c.ApplyConferenceNotify([]byte(doc)))
	assert.Equal(t, global.Connected, c.participants.Snapshot()["sip:bob@x"])
}
