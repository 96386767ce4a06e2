package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage_JoinMeeting(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"join-meeting","meetingId":"room-1"}`))
	require.NoError(t, err)

	join, ok := msg.(JoinMeetingMessage)
	require.True(t, ok)
	assert.Equal(t, KindJoinMeeting, join.Kind())
	assert.Equal(t, "room-1", join.MeetingID())
}

func TestDecodeClientMessage_OfferKeepsPayloadOpaque(t *testing.T) {
	raw := `{"type":"offer","meetingId":"room-1","offer":{"type":"offer","sdp":"v=0"},"from":"conn-a"}`
	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)

	offer, ok := msg.(OfferMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(offer.Offer))
	assert.Equal(t, "conn-a", offer.From)
}

func TestDecodeClientMessage_ChatMessage(t *testing.T) {
	raw := `{"type":"chat-message","meetingId":"room-1","message":"hi","sender":"Alice","userId":"user-a"}`
	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)

	chat, ok := msg.(ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hi", chat.Message)
	assert.Equal(t, "Alice", chat.Sender)
}

func TestDecodeClientMessage_MediaState(t *testing.T) {
	raw := `{"type":"media-state","meetingId":"room-1","isMuted":true,"isPresenting":true}`
	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)

	state, ok := msg.(MediaStateMessage)
	require.True(t, ok)
	assert.True(t, state.IsMuted)
	assert.False(t, state.IsVideoOff)
	assert.True(t, state.IsPresenting)
}

func TestDecodeClientMessage_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"type":"join-meeting"`,
		"unknown kind":      `{"type":"teleport","meetingId":"room-1"}`,
		"missing kind":      `{"meetingId":"room-1"}`,
		"missing meetingId": `{"type":"join-meeting"}`,
		"empty meetingId":   `{"type":"leave-meeting","meetingId":""}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestMeeting_AddRemoveParticipant(t *testing.T) {
	m := &Meeting{MeetingID: "room-1"}

	assert.True(t, m.AddParticipant(Participant{UserID: "user-a", SocketID: "conn-a"}))
	assert.False(t, m.AddParticipant(Participant{UserID: "user-a", SocketID: "conn-a"}))
	assert.True(t, m.AddParticipant(Participant{UserID: "user-b", SocketID: "conn-b"}))
	require.Len(t, m.Participants, 2)

	assert.True(t, m.RemoveParticipant("conn-a"))
	assert.False(t, m.RemoveParticipant("conn-a"))
	require.Len(t, m.Participants, 1)
	assert.Equal(t, "conn-b", m.Participants[0].SocketID)
}
