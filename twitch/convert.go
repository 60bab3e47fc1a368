package twitch

import (
	"strconv"
	"strings"
	"time"

	"twitch-tmi/model"
	"twitch-tmi/tmi"
)

func toChatMessage(m tmi.Privmsg, login string, received time.Time) model.ChatMessage {
	badges := parseBadges(m.Tags.Text("badges"))

	return model.ChatMessage{
		ID:           m.Tags.Text("id"),
		Channel:      normalizeChannel(m.Channel),
		UserID:       m.Tags.Text("user-id"),
		Username:     login,
		DisplayName:  tmi.UnescapeTagValue(m.Tags.Text("display-name")),
		Text:         m.Text,
		Badges:       badges,
		Color:        m.Tags.Text("color"),
		IsMod:        tagBool(m.Tags, "mod") || badges["moderator"] > 0 || badges["broadcaster"] > 0,
		IsSubscriber: tagBool(m.Tags, "subscriber") || badges["subscriber"] > 0,
		Bits:         tagInt(m.Tags, "bits"),
		SentAt:       sentAt(m.Tags, received),
	}
}

func noticeFromNotice(m tmi.Notice, received time.Time) model.Notice {
	return model.Notice{
		Kind:     model.NoticeKindNotice,
		Channel:  normalizeChannel(m.Channel),
		ID:       m.Tags.Text("msg-id"),
		Message:  m.Text,
		Tags:     tagMap(m.Tags),
		NoticeAt: sentAt(m.Tags, received),
	}
}

func noticeFromUserNotice(m tmi.UserNotice, received time.Time) model.Notice {
	return model.Notice{
		Kind:      model.NoticeKindUserNotice,
		Channel:   normalizeChannel(m.Channel),
		ID:        m.Tags.Text("msg-id"),
		Login:     m.Tags.Text("login"),
		Message:   m.Text,
		SystemMsg: tmi.UnescapeTagValue(m.Tags.Text("system-msg")),
		Tags:      tagMap(m.Tags),
		NoticeAt:  sentAt(m.Tags, received),
	}
}

func moderationFromClearChat(m tmi.ClearChat, received time.Time) model.Moderation {
	ev := model.Moderation{
		Action:       model.ActionClearChat,
		Channel:      normalizeChannel(m.Channel),
		TargetUserID: m.Tags.Text("target-user-id"),
		At:           sentAt(m.Tags, received),
	}
	if m.User == nil {
		return ev
	}

	ev.TargetLogin = *m.User
	ev.Action = model.ActionBan
	if secs := tagInt(m.Tags, "ban-duration"); secs > 0 {
		ev.Action = model.ActionTimeout
		ev.Duration = time.Duration(secs) * time.Second
	}
	return ev
}

func moderationFromClearMsg(m tmi.ClearMsg, received time.Time) model.Moderation {
	return model.Moderation{
		Action:      model.ActionDelete,
		Channel:     normalizeChannel(m.Channel),
		TargetLogin: m.Tags.Text("login"),
		TargetMsgID: m.Tags.Text("target-msg-id"),
		Message:     m.Text,
		At:          sentAt(m.Tags, received),
	}
}

// parseBadges разбирает "broadcaster/1,subscriber/12" в карту версий.
func parseBadges(raw string) map[string]int {
	badges := make(map[string]int)
	for _, item := range strings.Split(raw, ",") {
		name, version, ok := strings.Cut(item, "/")
		if !ok || name == "" {
			continue
		}
		n, err := strconv.Atoi(version)
		if err != nil {
			n = 1
		}
		badges[name] = n
	}
	return badges
}

func tagBool(tags tmi.Tags, key string) bool {
	v, _ := tags.Get(key)
	b, ok := v.(tmi.TagBool)
	return ok && bool(b)
}

// tagInt читает числовой тег. "1" распознаётся как булево значение, поэтому
// принимаются обе формы.
func tagInt(tags tmi.Tags, key string) int {
	v, _ := tags.Get(key)
	switch v := v.(type) {
	case tmi.TagNumber:
		return int(v)
	case tmi.TagTimestamp:
		return int(v)
	case tmi.TagBool:
		if v {
			return 1
		}
	}
	return 0
}

func tagMap(tags tmi.Tags) map[string]string {
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[tag.Key] = tag.Value.String()
	}
	return out
}

func sentAt(tags tmi.Tags, fallback time.Time) time.Time {
	if v, ok := tags.Get("tmi-sent-ts"); ok {
		if ts, ok := v.(tmi.TagTimestamp); ok {
			return time.UnixMilli(int64(ts)).UTC()
		}
	}
	return fallback.UTC()
}

// senderLogin извлекает <login> из префикса источника ":<login>!<user>@<host>".
func senderLogin(raw string) string {
	line := strings.TrimSpace(raw)
	if strings.HasPrefix(line, "@") {
		_, rest, ok := strings.Cut(line, " :")
		if !ok {
			return ""
		}
		line = rest
	} else if !strings.HasPrefix(line, ":") {
		return ""
	} else {
		line = line[1:]
	}

	source, _, _ := strings.Cut(line, " ")
	login, _, ok := strings.Cut(source, "!")
	if !ok {
		return ""
	}
	return login
}

func normalizeChannel(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}
