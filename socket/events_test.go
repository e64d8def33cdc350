package socket

import (
	"encoding/json"
	"testing"
)

func TestChatKey(t *testing.T) {
	tests := []struct {
		msgType   int
		mediaType int
		want      string
	}{
		{ChatText, MediaNone, "0:0"},
		{ChatText, MediaImage, "0:100"},
		{ChatSticker, MediaSticker, "3:113"},
		{ChatMemberJoin, MediaNone, "101:0"},
	}
	for _, tt := range tests {
		if got := ChatKey(tt.msgType, tt.mediaType); got != tt.want {
			t.Errorf("ChatKey(%d, %d) = %q, want %q", tt.msgType, tt.mediaType, got, tt.want)
		}
	}
}

func TestChatMessage_Key(t *testing.T) {
	msg := ChatMessage{Type: ChatText, MediaType: MediaYouTube}
	if got := msg.Key(); got != "0:103" {
		t.Errorf("Key() = %q, want 0:103", got)
	}
}

func TestFrame_DecodeChatMessage(t *testing.T) {
	raw := []byte(`{"t":1000,"o":{"ndcId":42,"chatMessage":{"messageId":"m-9","threadId":"th-1","content":"hello","type":0,"mediaType":100,"author":{"uid":"u-1","nickname":"ok"}}}}`)
	f, err := decodeFrame(raw)
	if err != nil {
		t.Fatalf("decodeFrame failed: %v", err)
	}
	p, err := f.DecodeChatMessage()
	if err != nil {
		t.Fatalf("DecodeChatMessage failed: %v", err)
	}
	if p.CommunityID != 42 {
		t.Errorf("CommunityID = %d, want 42", p.CommunityID)
	}
	if p.ChatMessage.MessageID != "m-9" || p.ChatMessage.ThreadID != "th-1" {
		t.Errorf("unexpected message: %+v", p.ChatMessage)
	}
	if p.ChatMessage.Author.UserID != "u-1" {
		t.Errorf("author = %+v, want uid u-1", p.ChatMessage.Author)
	}
	if got := p.ChatMessage.Key(); got != "0:100" {
		t.Errorf("Key() = %q, want 0:100", got)
	}
}

func TestFrame_DecodeTopic(t *testing.T) {
	f := Frame{Type: TypeTopic, Payload: json.RawMessage(`{"topic":"ndtopic:x77:online-members","ndcId":77}`)}
	p, err := f.DecodeTopic()
	if err != nil {
		t.Fatalf("DecodeTopic failed: %v", err)
	}
	if got := p.Name(); got != "online-members" {
		t.Errorf("Name() = %q, want online-members", got)
	}
}

func TestTopicPayload_Name_Malformed(t *testing.T) {
	p := TopicPayload{Topic: "garbage"}
	if got := p.Name(); got != "" {
		t.Errorf("Name() = %q, want empty for a malformed topic", got)
	}
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"t":10,"o":{"payload":{}}}`, false},
		{"not json", `{nope`, true},
		{"missing type", `{"o":{}}`, true},
		{"zero type", `{"t":0,"o":{}}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFrame([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeFrame(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
