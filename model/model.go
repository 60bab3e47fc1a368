package model

import "time"

// ChatMessage — нормализованное сообщение чата (PRIVMSG).
type ChatMessage struct {
	ID           string
	Channel      string
	UserID       string
	Username     string
	DisplayName  string
	Text         string
	Badges       map[string]int
	Color        string
	IsMod        bool
	IsSubscriber bool
	Bits         int
	SentAt       time.Time
}

// NoticeKind отличает NOTICE от USERNOTICE.
type NoticeKind string

const (
	NoticeKindNotice     NoticeKind = "notice"
	NoticeKindUserNotice NoticeKind = "usernotice"
)

// Notice описывает событие NOTICE или USERNOTICE. ID — значение тега msg-id.
type Notice struct {
	EventID   string
	Kind      NoticeKind
	Channel   string
	ID        string
	Login     string
	Message   string
	SystemMsg string
	Tags      map[string]string
	NoticeAt  time.Time
}

// ModerationAction перечисляет исходы CLEARCHAT и CLEARMSG.
type ModerationAction string

const (
	ActionClearChat ModerationAction = "clear_chat"
	ActionTimeout   ModerationAction = "timeout"
	ActionBan       ModerationAction = "ban"
	ActionDelete    ModerationAction = "delete_message"
)

// Moderation описывает событие CLEARCHAT или CLEARMSG.
type Moderation struct {
	EventID      string
	Action       ModerationAction
	Channel      string
	TargetLogin  string
	TargetUserID string
	TargetMsgID  string
	Message      string
	Duration     time.Duration
	At           time.Time
}
