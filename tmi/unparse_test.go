package tmi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnparse(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Ping{}, "PING :tmi.twitch.tv"},
		{Pong{}, "PONG :tmi.twitch.tv"},
		{Reconnect{}, "RECONNECT"},
		{CapReq{Req: "twitch.tv/membership"}, "CAP REQ :twitch.tv/membership"},
		{CapAck{Req: "twitch.tv/tags"}, ":tmi.twitch.tv CAP * ACK :twitch.tv/tags"},
		{Pass{Pass: "oauth:hello"}, "PASS oauth:hello"},
		{Nick{Nick: "ronni"}, "NICK ronni"},
		{Join{Channel: "dallas"}, "JOIN #dallas"},
		{Part{Channel: "dallas"}, "PART #dallas"},
		{Privmsg{Channel: "dallas", Text: "Kappa"}, "PRIVMSG #dallas :Kappa"},
		{
			Privmsg{Tags: Tags{{Key: "mod", Value: TagBool(true)}}, Channel: "dallas", Text: "Kappa"},
			"@mod=1 :tmi.twitch.tv PRIVMSG #dallas :Kappa",
		},
		{ClearChat{Channel: "dallas"}, ":tmi.twitch.tv CLEARCHAT #dallas"},
		{ClearChat{Channel: "dallas", User: ptr("ronni")}, ":tmi.twitch.tv CLEARCHAT #dallas :ronni"},
		{
			ClearMsg{Tags: Tags{{Key: "login", Value: TagString("ronni")}}, Channel: "dallas", Text: "HeyGuys"},
			"@login=ronni :tmi.twitch.tv CLEARMSG #dallas :HeyGuys",
		},
		{HostTargetStart{Host: "h", Channel: "dallas"}, ":tmi.twitch.tv HOSTTARGET #h :dallas"},
		{HostTargetStart{Host: "h", Channel: "dallas", Viewers: ptr[uint32](10)}, ":tmi.twitch.tv HOSTTARGET #h :dallas 10"},
		{HostTargetEnd{Host: "h"}, ":tmi.twitch.tv HOSTTARGET #h :-"},
		{HostTargetEnd{Host: "h", Viewers: ptr[uint32](0)}, ":tmi.twitch.tv HOSTTARGET #h :- 0"},
		{Notice{Channel: "dallas", Text: "hi"}, ":tmi.twitch.tv NOTICE #dallas :hi"},
		{RoomState{Channel: "dallas"}, ":tmi.twitch.tv ROOMSTATE #dallas"},
		{
			RoomState{Tags: Tags{{Key: "slow", Value: TagNumber(30)}, {Key: "r9k", Value: TagBool(false)}}, Channel: "dallas"},
			"@slow=30;r9k=0 :tmi.twitch.tv ROOMSTATE #dallas",
		},
		{UserNotice{Channel: "dallas", Text: "gg"}, ":tmi.twitch.tv USERNOTICE #dallas :gg"},
		{UserState{Tags: Tags{{Key: "color", Value: TagColor(0x0D4200)}}, Channel: "dallas"}, "@color=#0D4200 :tmi.twitch.tv USERSTATE #dallas"},
		{GlobalUserState{}, ":tmi.twitch.tv GLOBALUSERSTATE"},
		{GlobalUserState{Tags: Tags{}}, ":tmi.twitch.tv GLOBALUSERSTATE"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Unparse(tt.msg))
	}
}

func TestRoundTrip(t *testing.T) {
	tags := Tags{
		{Key: "badge-info", Value: TagNone{}},
		{Key: "color", Value: TagColor(0x008000)},
		{Key: "display-name", Value: TagString("ronni")},
		{Key: "mod", Value: TagBool(false)},
		{Key: "room-id", Value: TagNumber(1337)},
		{Key: "tmi-sent-ts", Value: TagTimestamp(1507246572675)},
	}

	msgs := []Message{
		Ping{},
		Pong{},
		Reconnect{},
		CapReq{Req: "twitch.tv/membership"},
		CapAck{Req: "twitch.tv/commands"},
		Pass{Pass: "oauth:abc"},
		Pass{Pass: ""},
		Nick{Nick: "justinfan123"},
		Join{Channel: "dallas"},
		Part{Channel: "dallas"},
		Privmsg{Channel: "dallas", Text: "Kappa Keepo Kappa"},
		Privmsg{Tags: tags, Channel: "dallas", Text: "hello :) see tmi.twitch.tv now"},
		ClearChat{Channel: "dallas"},
		ClearChat{Tags: tags, Channel: "dallas", User: ptr("ronni")},
		ClearMsg{Tags: tags, Channel: "dallas", Text: "HeyGuys"},
		HostTargetStart{Host: "h", Channel: "dallas"},
		HostTargetStart{Host: "h", Channel: "dallas", Viewers: ptr[uint32](123456)},
		HostTargetEnd{Host: "h"},
		HostTargetEnd{Host: "h", Viewers: ptr[uint32](1)},
		Notice{Tags: tags, Channel: "dallas", Text: "This room is no longer in slow mode."},
		Notice{Channel: "dallas", Text: "Login unsuccessful"},
		RoomState{Tags: tags, Channel: "dallas"},
		RoomState{Channel: "dallas"},
		UserNotice{Tags: tags, Channel: "dallas", Text: "Great stream -- keep it up!"},
		UserState{Tags: tags, Channel: "dallas"},
		UserState{Channel: "dallas"},
		GlobalUserState{Tags: tags},
		GlobalUserState{},
	}

	for _, msg := range msgs {
		line := Unparse(msg)
		got, err := Parse(line)
		require.NoError(t, err, line)
		if diff := cmp.Diff(msg, got); diff != "" {
			t.Errorf("round trip of %q mismatch (-want +got):\n%s", line, diff)
		}
	}
}

func TestRoundTripKeepsWireBytes(t *testing.T) {
	lines := []string{
		"@badge-info=;badges=global_mod/1,turbo/1;color=#0D4200;display-name=ronni;mod=0;room-id=1337;tmi-sent-ts=1507246572675 :tmi.twitch.tv PRIVMSG #ronni :Kappa Keepo Kappa",
		"@msg-id=slow_off :tmi.twitch.tv NOTICE #dallas :This room is no longer in slow mode.",
		"@emote-only=0;followers-only=-1;r9k=0;slow=0;subs-only=0 :tmi.twitch.tv ROOMSTATE #dallas",
		":tmi.twitch.tv CLEARCHAT #dallas :ronni",
		":tmi.twitch.tv HOSTTARGET #hosting_channel :- 123456",
	}

	for _, line := range lines {
		msg, err := Parse(line)
		require.NoError(t, err)
		assert.Equal(t, line, Unparse(msg))
	}
}
