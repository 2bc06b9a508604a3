package relay_test

import (
	"encoding/json"
	"testing"

	"github.com/Tyrowin/relaychat/internal/relay"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    relay.Event
	}{
		{
			name:    "join with username",
			payload: `{"type":"join","username":"Alice"}`,
			want:    relay.JoinEvent{Username: "Alice"},
		},
		{
			name:    "join without username",
			payload: `{"type":"join"}`,
			want:    relay.JoinEvent{},
		},
		{
			name:    "join with non-string username",
			payload: `{"type":"join","username":42}`,
			want:    relay.JoinEvent{},
		},
		{
			name:    "chat keeps raw message",
			payload: `{"type":"chat","message":"hi"}`,
			want:    relay.ChatEvent{Message: json.RawMessage(`"hi"`)},
		},
		{
			name:    "chat with non-string message",
			payload: `{"type":"chat","message":{"nested":true}}`,
			want:    relay.ChatEvent{Message: json.RawMessage(`{"nested":true}`)},
		},
		{
			name:    "chat without message",
			payload: `{"type":"chat"}`,
			want:    relay.ChatEvent{},
		},
		{
			name:    "typing",
			payload: `{"type":"typing","isTyping":true}`,
			want:    relay.TypingEvent{IsTyping: json.RawMessage(`true`)},
		},
		{
			name:    "unknown type",
			payload: `{"type":"shout"}`,
			want:    relay.UnknownEvent{Kind: "shout"},
		},
		{
			name:    "missing type",
			payload: `{"message":"hi"}`,
			want:    relay.UnknownEvent{},
		},
		{
			name:    "non-string type",
			payload: `{"type":7}`,
			want:    relay.UnknownEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := relay.ParseEvent([]byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseEvent_Unparseable(t *testing.T) {
	for _, payload := range []string{`not json`, `{"type":`, `null`, `[1,2]`, `"join"`, ``, "{\"type\":\"chat\",\"message\":\"bad\xff\xfe\"}"} {
		t.Run(payload, func(t *testing.T) {
			evt, err := relay.ParseEvent([]byte(payload))
			require.ErrorIs(t, err, relay.ErrUnparseable)
			require.Nil(t, evt)
		})
	}
}
