package tmi

import (
	"strconv"
	"strings"
)

type lineBuilder struct {
	strings.Builder
}

// tags writes the tag block followed by the endpoint source, so the block is
// always terminated by " :" as Parse requires. It reports whether anything
// was written.
func (b *lineBuilder) tags(t Tags) bool {
	if len(t) == 0 {
		return false
	}
	b.WriteByte('@')
	b.WriteString(t.String())
	b.WriteString(" :" + Endpoint + " ")
	return true
}

// source writes the tags, or the endpoint source alone when there are none.
func (b *lineBuilder) source(t Tags) {
	if !b.tags(t) {
		b.WriteString(":" + Endpoint + " ")
	}
}

func (b *lineBuilder) channel(cmd, ch string) {
	b.WriteString(cmd)
	b.WriteString(" #")
	b.WriteString(ch)
}

func (b *lineBuilder) trailing(s string) {
	b.WriteString(" :")
	b.WriteString(s)
}

func (b *lineBuilder) viewers(v *uint32) {
	if v != nil {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(uint64(*v), 10))
	}
}

// Unparse renders m as a single line without CRLF framing.
// Tags are written in the order they appear in the message.
func Unparse(m Message) string {
	var b lineBuilder
	m.appendTo(&b)
	return b.String()
}

func (Ping) appendTo(b *lineBuilder) { b.WriteString("PING :" + Endpoint) }
func (Pong) appendTo(b *lineBuilder) { b.WriteString("PONG :" + Endpoint) }

func (m CapReq) appendTo(b *lineBuilder) {
	b.WriteString("CAP REQ")
	b.trailing(m.Req)
}

func (m CapAck) appendTo(b *lineBuilder) {
	b.WriteString(":" + Endpoint + " CAP * ACK")
	b.trailing(m.Req)
}

func (m Pass) appendTo(b *lineBuilder) { b.WriteString("PASS " + m.Pass) }
func (m Nick) appendTo(b *lineBuilder) { b.WriteString("NICK " + m.Nick) }
func (m Join) appendTo(b *lineBuilder) { b.channel("JOIN", m.Channel) }
func (m Part) appendTo(b *lineBuilder) { b.channel("PART", m.Channel) }

// Privmsg keeps the client form when untagged.
func (m Privmsg) appendTo(b *lineBuilder) {
	b.tags(m.Tags)
	b.channel("PRIVMSG", m.Channel)
	b.trailing(m.Text)
}

func (m ClearChat) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("CLEARCHAT", m.Channel)
	if m.User != nil {
		b.trailing(*m.User)
	}
}

func (m ClearMsg) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("CLEARMSG", m.Channel)
	b.trailing(m.Text)
}

func (m HostTargetStart) appendTo(b *lineBuilder) {
	b.source(nil)
	b.channel("HOSTTARGET", m.Host)
	b.trailing(m.Channel)
	b.viewers(m.Viewers)
}

func (m HostTargetEnd) appendTo(b *lineBuilder) {
	b.source(nil)
	b.channel("HOSTTARGET", m.Host)
	b.trailing("-")
	b.viewers(m.Viewers)
}

func (m Notice) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("NOTICE", m.Channel)
	b.trailing(m.Text)
}

func (Reconnect) appendTo(b *lineBuilder) { b.WriteString("RECONNECT") }

func (m RoomState) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("ROOMSTATE", m.Channel)
}

func (m UserNotice) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("USERNOTICE", m.Channel)
	b.trailing(m.Text)
}

func (m UserState) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.channel("USERSTATE", m.Channel)
}

func (m GlobalUserState) appendTo(b *lineBuilder) {
	b.source(m.Tags)
	b.WriteString("GLOBALUSERSTATE")
}
