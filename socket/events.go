package socket

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame type discriminators used by the service.
const (
	TypeNotification    = 10   // payload notification
	TypeChannel         = 201  // live channel info
	TypeActionStop      = 303  // outbound: stop an action
	TypeChatActionStart = 304  // chat action started (e.g. typing)
	TypeChatActionEnd   = 306  // chat action ended; also outbound actions
	TypeTopic           = 400  // topic update (online members, typing)
	TypeChatMessage     = 1000 // chat message
	TypeJoinChannel     = 108  // outbound: join a live channel
	TypeJoinThread      = 112  // outbound: join a chat thread
	TypeSubscribeTopic  = 300  // outbound: subscribe to a topic
)

// Chat message types (chatMessage.type).
const (
	ChatText        = 0
	ChatStrike      = 1
	ChatVoice       = 2
	ChatSticker     = 3
	ChatShareURL    = 50
	ChatShareUser   = 51
	ChatDelete      = 100
	ChatMemberJoin  = 101
	ChatMemberLeave = 102
	ChatInvite      = 103
)

// Chat media types (chatMessage.mediaType).
const (
	MediaNone    = 0
	MediaImage   = 100
	MediaYouTube = 103
	MediaVoice   = 110
	MediaSticker = 113
)

// ChatKey builds the "type:mediaType" sub-discriminator used to tell chat
// message variants apart, e.g. "0:100" for an image message.
func ChatKey(msgType, mediaType int) string {
	return fmt.Sprintf("%d:%d", msgType, mediaType)
}

// Author is the sender of a chat message.
type Author struct {
	UserID   string `json:"uid"`
	Nickname string `json:"nickname"`
	Icon     string `json:"icon"`
	Level    int    `json:"level"`
	Role     int    `json:"role"`
}

// ChatMessage is one message in a chat thread.
type ChatMessage struct {
	Type        int    `json:"type"`
	MediaType   int    `json:"mediaType"`
	MessageID   string `json:"messageId"`
	ThreadID    string `json:"threadId"`
	Content     string `json:"content"`
	MediaValue  string `json:"mediaValue"`
	CreatedTime string `json:"createdTime"`
	Author      Author `json:"author"`
}

// Key returns the message's chat sub-discriminator.
func (m ChatMessage) Key() string {
	return ChatKey(m.Type, m.MediaType)
}

// ChatMessagePayload is the payload of a TypeChatMessage frame.
type ChatMessagePayload struct {
	CommunityID int64       `json:"ndcId"`
	ChatMessage ChatMessage `json:"chatMessage"`
	AlertOption int         `json:"alertOption"`
}

// NotificationPayload is the payload of a TypeNotification frame.
type NotificationPayload struct {
	CommunityID int64        `json:"ndcId"`
	Payload     Notification `json:"payload"`
}

// Notification carries the notifType sub-discriminator.
type Notification struct {
	NotifType int    `json:"notifType"`
	ThreadID  string `json:"tid"`
	Message   string `json:"msg"`
}

// TopicPayload is the payload of a TypeTopic frame.
type TopicPayload struct {
	CommunityID  int64             `json:"ndcId"`
	Topic        string            `json:"topic"`
	UserProfiles []json.RawMessage `json:"userProfileList"`
}

// Name extracts the topic name from the wire form
// "ndtopic:x<ndcId>:<name>" (a trailing ":<chatId>" segment may follow).
func (p TopicPayload) Name() string {
	parts := strings.Split(p.Topic, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// ChatActionPayload is the payload of chat action start/end frames.
type ChatActionPayload struct {
	CommunityID int64  `json:"ndcId"`
	Actions     string `json:"actions"`
	Target      string `json:"target"`
	ThreadID    string `json:"threadId"`
}

// DecodeChatMessage parses the frame payload as a chat message. Callers
// should pass only TypeChatMessage frames.
func (f Frame) DecodeChatMessage() (*ChatMessagePayload, error) {
	var p ChatMessagePayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode chat message payload: %w", err)
	}
	return &p, nil
}

// DecodeNotification parses the frame payload as a notification.
func (f Frame) DecodeNotification() (*NotificationPayload, error) {
	var p NotificationPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode notification payload: %w", err)
	}
	return &p, nil
}

// DecodeTopic parses the frame payload as a topic update.
func (f Frame) DecodeTopic() (*TopicPayload, error) {
	var p TopicPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode topic payload: %w", err)
	}
	return &p, nil
}

// DecodeChatAction parses the frame payload as a chat action.
func (f Frame) DecodeChatAction() (*ChatActionPayload, error) {
	var p ChatActionPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode chat action payload: %w", err)
	}
	return &p, nil
}
