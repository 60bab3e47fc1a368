package tmi

import (
	"strconv"
	"strings"
)

const (
	// Endpoint is the server name Twitch uses as message source.
	Endpoint = "tmi.twitch.tv"

	minLineLen     = 5
	endpointMarker = Endpoint + " "
)

type extractFunc func(cmd, body string, tags Tags) (Message, error)

var extractors = map[string]extractFunc{
	"PING":            bare(Ping{}),
	"PONG":            bare(Pong{}),
	"RECONNECT":       bare(Reconnect{}),
	"CAP":             parseCap,
	"PASS":            func(_, body string, _ Tags) (Message, error) { return Pass{Pass: body}, nil },
	"NICK":            func(_, body string, _ Tags) (Message, error) { return Nick{Nick: body}, nil },
	"JOIN":            parseMembership,
	"PART":            parseMembership,
	"PRIVMSG":         parseChannelText,
	"CLEARMSG":        parseChannelText,
	"NOTICE":          parseChannelText,
	"USERNOTICE":      parseChannelText,
	"CLEARCHAT":       parseClearChat,
	"HOSTTARGET":      parseHostTarget,
	"ROOMSTATE":       parseState,
	"USERSTATE":       parseState,
	"GLOBALUSERSTATE": func(_, _ string, tags Tags) (Message, error) { return GlobalUserState{Tags: tags}, nil },
}

// Parse parses a single line, with or without trailing CRLF and surrounding
// whitespace. The returned message shares memory with line.
func Parse(line string) (Message, error) {
	tags, cmd, body, err := preprocess(line)
	if err != nil {
		return nil, err
	}

	extract, ok := extractors[cmd]
	if !ok {
		return nil, &CommandError{Command: cmd, Err: ErrUnknownCommand}
	}
	return extract(cmd, body, tags)
}

// preprocess consumes the tag block and the endpoint source, then splits the
// remainder into verb and body.
func preprocess(line string) (Tags, string, string, error) {
	if len(line) < minLineLen {
		return nil, "", "", ErrTooShort
	}

	rest := strings.TrimSpace(line)

	var tags Tags
	if block, ok := strings.CutPrefix(rest, "@"); ok {
		t, off, err := parseTags(block)
		if err != nil {
			return nil, "", "", err
		}
		tags = t
		rest = rest[off:]
	}

	// Only the first token may be the source, so a marker inside a message
	// body is never mistaken for it.
	if off := strings.Index(rest, endpointMarker); off >= 0 && !strings.Contains(rest[:off], " ") {
		rest = rest[off+len(endpointMarker):]
	}

	cmd, body, _ := strings.Cut(rest, " ")
	return tags, cmd, body, nil
}

func bare(m Message) extractFunc {
	return func(string, string, Tags) (Message, error) { return m, nil }
}

// splitTrailing splits "#<channel> :<text>" into channel (without the leading
// byte) and text.
func splitTrailing(body string) (string, string, bool) {
	off := strings.Index(body, " :")
	if off < 1 {
		return "", "", false
	}
	return body[1:off], body[off+2:], true
}

// stripChannel drops the leading '#'-position byte of a bare channel body.
func stripChannel(body string) (string, bool) {
	if body == "" {
		return "", false
	}
	return body[1:], true
}

func parseCap(cmd, body string, _ Tags) (Message, error) {
	sub, req, ok := strings.Cut(body, " :")
	if !ok {
		return nil, malformed(cmd)
	}

	switch sub {
	case "REQ":
		return CapReq{Req: req}, nil
	case "* ACK":
		return CapAck{Req: req}, nil
	}
	return nil, malformed(cmd)
}

func parseMembership(cmd, body string, _ Tags) (Message, error) {
	ch, ok := stripChannel(body)
	if !ok {
		return nil, malformed(cmd)
	}
	if cmd == "PART" {
		return Part{Channel: ch}, nil
	}
	return Join{Channel: ch}, nil
}

func parseChannelText(cmd, body string, tags Tags) (Message, error) {
	ch, text, ok := splitTrailing(body)
	if !ok {
		return nil, malformed(cmd)
	}

	switch cmd {
	case "CLEARMSG":
		return ClearMsg{Tags: tags, Channel: ch, Text: text}, nil
	case "NOTICE":
		return Notice{Tags: tags, Channel: ch, Text: text}, nil
	case "USERNOTICE":
		return UserNotice{Tags: tags, Channel: ch, Text: text}, nil
	}
	return Privmsg{Tags: tags, Channel: ch, Text: text}, nil
}

func parseClearChat(cmd, body string, tags Tags) (Message, error) {
	if ch, usr, ok := splitTrailing(body); ok {
		return ClearChat{Tags: tags, Channel: ch, User: &usr}, nil
	}

	ch, ok := stripChannel(body)
	if !ok {
		return nil, malformed(cmd)
	}
	return ClearChat{Tags: tags, Channel: ch}, nil
}

func parseHostTarget(cmd, body string, _ Tags) (Message, error) {
	if off := strings.Index(body, " :-"); off >= 1 {
		// The count, when present, is separated from '-' by one space.
		rest := body[off+3:]
		count, ok := strings.CutPrefix(rest, " ")
		if !ok && rest != "" {
			return nil, malformed(cmd)
		}
		views, err := parseViewers(count)
		if err != nil {
			return nil, malformed(cmd)
		}
		return HostTargetEnd{Host: body[1:off], Viewers: views}, nil
	}

	host, target, ok := splitTrailing(body)
	if !ok || target == "" {
		return nil, malformed(cmd)
	}

	ch, count, _ := strings.Cut(target, " ")
	if ch == "" {
		return nil, malformed(cmd)
	}
	views, err := parseViewers(count)
	if err != nil {
		return nil, malformed(cmd)
	}
	return HostTargetStart{Host: host, Channel: ch, Viewers: views}, nil
}

func parseViewers(s string) (*uint32, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, err
	}
	v := uint32(n)
	return &v, nil
}

func parseState(cmd, body string, tags Tags) (Message, error) {
	ch, ok := stripChannel(body)
	if !ok {
		return nil, malformed(cmd)
	}
	if cmd == "USERSTATE" {
		return UserState{Tags: tags, Channel: ch}, nil
	}
	return RoomState{Tags: tags, Channel: ch}, nil
}
