// Package tmi parses and serializes lines of the Twitch Messaging Interface,
// the tag-prefixed IRC dialect used by Twitch chat.
package tmi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TagValue is the typed form of a single tag value.
//
// The concrete types are TagNone, TagBool, TagNumber, TagTimestamp, TagColor
// and TagString. Classification is lossy: "0" and "1" always become TagBool,
// so callers must not assume a numeric tag is a TagNumber.
type TagValue interface {
	// String returns the value in wire form.
	String() string
	tagValue()
}

// TagNone is the empty value, as in "badge-info=".
type TagNone struct{}

// TagBool is the literal "0" or "1".
type TagBool bool

// TagNumber is a value that fits an unsigned 32-bit integer. TagNumber(0)
// and TagNumber(1), including those inferred from "00" or "01", print as
// "0" and "1" and so parse back as TagBool.
type TagNumber uint32

// TagTimestamp is a value too large for 32 bits but fitting 64, such as tmi-sent-ts.
type TagTimestamp uint64

// TagColor is a "#RRGGBB" value decoded from hex.
type TagColor uint32

// TagString is any other value, kept verbatim (still IRCv3-escaped).
type TagString string

func (TagNone) tagValue()      {}
func (TagBool) tagValue()      {}
func (TagNumber) tagValue()    {}
func (TagTimestamp) tagValue() {}
func (TagColor) tagValue()     {}
func (TagString) tagValue()    {}

func (TagNone) String() string { return "" }

func (v TagBool) String() string {
	if v {
		return "1"
	}
	return "0"
}

func (v TagNumber) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v TagTimestamp) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v TagColor) String() string     { return fmt.Sprintf("#%06X", uint32(v)) }
func (v TagString) String() string    { return string(v) }

// InferTagValue classifies a raw tag value. It never fails.
func InferTagValue(raw string) TagValue {
	switch raw {
	case "":
		return TagNone{}
	case "0":
		return TagBool(false)
	case "1":
		return TagBool(true)
	}

	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return TagNumber(n)
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return TagTimestamp(n)
	}
	if hex, ok := strings.CutPrefix(raw, "#"); ok && len(hex) == 6 {
		if n, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return TagColor(n)
		}
	}

	return TagString(raw)
}

// Tag is a single key/value pair of a tag block.
type Tag struct {
	Key   string
	Value TagValue
}

// Tags is an insertion-ordered set of tags with unique keys.
// A nil Tags means the message carries no tag block.
type Tags []Tag

// Get returns the value stored under key.
func (t Tags) Get(key string) (TagValue, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return nil, false
}

// Len returns the number of tags.
func (t Tags) Len() int { return len(t) }

// Text returns the wire form of the value under key, or "" if absent.
func (t Tags) Text(key string) string {
	if v, ok := t.Get(key); ok {
		return v.String()
	}
	return ""
}

// Set stores value under key, replacing an existing entry in place.
func (t *Tags) Set(key string, value TagValue) {
	for i := range *t {
		if (*t)[i].Key == key {
			(*t)[i].Value = value
			return
		}
	}
	*t = append(*t, Tag{Key: key, Value: value})
}

// String renders the tag block without the leading '@' or trailing space.
func (t Tags) String() string {
	var b strings.Builder
	for i, tag := range t {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(tag.Key)
		b.WriteByte('=')
		if tag.Value != nil {
			b.WriteString(tag.Value.String())
		}
	}
	return b.String()
}

// MarshalJSON encodes the tags as a JSON object preserving tag order.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val any
		switch v := tag.Value.(type) {
		case TagBool:
			val = bool(v)
		case TagNumber:
			val = uint32(v)
		case TagTimestamp:
			val = uint64(v)
		case TagColor, TagString:
			val = v.String()
		}
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseTags tokenizes the text following '@'. It returns the offset in the
// input line (including the '@') of the first byte after " :".
func parseTags(block string) (Tags, int, error) {
	end := strings.Index(block, " :")
	if end < 0 {
		return nil, 0, ErrMalformedTags
	}

	var tags Tags
	for _, tok := range strings.Split(block[:end], ";") {
		if tok == "" {
			continue
		}
		key, val, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, 0, ErrMalformedTags
		}
		tags.Set(key, InferTagValue(val))
	}

	return tags, end + 3, nil
}

var (
	tagEscaper = strings.NewReplacer(
		`\`, `\\`,
		";", `\:`,
		" ", `\s`,
		"\r", `\r`,
		"\n", `\n`,
	)
	tagUnescaper = strings.NewReplacer(
		`\\`, `\`,
		`\:`, ";",
		`\s`, " ",
		`\r`, "\r",
		`\n`, "\n",
	)
)

// EscapeTagValue applies IRCv3 tag value escaping.
func EscapeTagValue(s string) string { return tagEscaper.Replace(s) }

// UnescapeTagValue reverses IRCv3 tag value escaping, e.g. for system-msg.
func UnescapeTagValue(s string) string { return tagUnescaper.Replace(s) }
