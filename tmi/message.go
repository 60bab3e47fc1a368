package tmi

// Message is one parsed TMI line. The concrete types below are the only
// implementations.
//
// Tags are optional on every message, including commands Twitch always sends
// with tags. Checking which tags a command must carry is left to the caller.
type Message interface {
	// Command returns the IRC verb of the message.
	Command() string
	appendTo(b *lineBuilder)
}

// Ping is a keepalive request. `PING :<endpoint>`
type Ping struct{}

// Pong is a keepalive response. `PONG :<endpoint>`
type Pong struct{}

// CapReq requests a capability. `CAP REQ :<capability>`
type CapReq struct {
	Req string
}

// CapAck acknowledges a capability. `:<endpoint> CAP * ACK :<capability>`
type CapAck struct {
	Req string
}

// Pass carries the login password, usually `oauth:<token>`. `PASS <password>`
type Pass struct {
	Pass string
}

// Nick carries the login nickname. `NICK <user>`
type Nick struct {
	Nick string
}

// Join is `JOIN #<channel>`.
type Join struct {
	Channel string
}

// Part is `PART #<channel>`.
type Part struct {
	Channel string
}

// Privmsg is a chat message. `[@<tags>] PRIVMSG #<channel> :<message>`
type Privmsg struct {
	Tags    Tags
	Channel string
	Text    string
}

// ClearChat purges a user's messages or the whole chat.
// `[@<tags>] :<endpoint> CLEARCHAT #<channel> [:<user>]`
type ClearChat struct {
	Tags    Tags
	Channel string
	// User is nil when the whole chat was cleared.
	User *string
}

// ClearMsg removes a single message.
// `[@<tags>] :<endpoint> CLEARMSG #<channel> :<message>`
type ClearMsg struct {
	Tags    Tags
	Channel string
	Text    string
}

// HostTargetStart reports that Host started hosting Channel.
// `:<endpoint> HOSTTARGET #<host> :<channel> [<viewers>]`
type HostTargetStart struct {
	Host    string
	Channel string
	Viewers *uint32
}

// HostTargetEnd reports that Host stopped hosting.
// `:<endpoint> HOSTTARGET #<host> :- [<viewers>]`
type HostTargetEnd struct {
	Host    string
	Viewers *uint32
}

// Notice is `[@<tags>] :<endpoint> NOTICE #<channel> :<message>`.
type Notice struct {
	Tags    Tags
	Channel string
	Text    string
}

// Reconnect asks the client to reconnect. `RECONNECT`
type Reconnect struct{}

// RoomState is `[@<tags>] :<endpoint> ROOMSTATE #<channel>`.
type RoomState struct {
	Tags    Tags
	Channel string
}

// UserNotice is `[@<tags>] :<endpoint> USERNOTICE #<channel> :<message>`.
type UserNotice struct {
	Tags    Tags
	Channel string
	Text    string
}

// UserState is `[@<tags>] :<endpoint> USERSTATE #<channel>`.
type UserState struct {
	Tags    Tags
	Channel string
}

// GlobalUserState is `[@<tags>] :<endpoint> GLOBALUSERSTATE`.
type GlobalUserState struct {
	Tags Tags
}

func (Ping) Command() string            { return "PING" }
func (Pong) Command() string            { return "PONG" }
func (CapReq) Command() string          { return "CAP" }
func (CapAck) Command() string          { return "CAP" }
func (Pass) Command() string            { return "PASS" }
func (Nick) Command() string            { return "NICK" }
func (Join) Command() string            { return "JOIN" }
func (Part) Command() string            { return "PART" }
func (Privmsg) Command() string         { return "PRIVMSG" }
func (ClearChat) Command() string       { return "CLEARCHAT" }
func (ClearMsg) Command() string        { return "CLEARMSG" }
func (HostTargetStart) Command() string { return "HOSTTARGET" }
func (HostTargetEnd) Command() string   { return "HOSTTARGET" }
func (Notice) Command() string          { return "NOTICE" }
func (Reconnect) Command() string       { return "RECONNECT" }
func (RoomState) Command() string       { return "ROOMSTATE" }
func (UserNotice) Command() string      { return "USERNOTICE" }
func (UserState) Command() string       { return "USERSTATE" }
func (GlobalUserState) Command() string { return "GLOBALUSERSTATE" }

// MessageTags returns the tags of m, or nil for commands that never carry any.
func MessageTags(m Message) Tags {
	switch m := m.(type) {
	case Privmsg:
		return m.Tags
	case ClearChat:
		return m.Tags
	case ClearMsg:
		return m.Tags
	case Notice:
		return m.Tags
	case RoomState:
		return m.Tags
	case UserNotice:
		return m.Tags
	case UserState:
		return m.Tags
	case GlobalUserState:
		return m.Tags
	}
	return nil
}
