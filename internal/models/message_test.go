package models

import "testing"

func TestConversationID_Includes(t *testing.T) {
	const a, b = "64b7f0c2a1b2c3d4e5f60001", "64b7f0c2a1b2c3d4e5f60002"
	tests := []struct {
		name string
		id   ConversationID
		user string
		want bool
	}{
		{"first participant", NewConversationID(b, a), a, true},
		{"second participant", NewConversationID(a, b), b, true},
		{"outsider", NewConversationID(a, b), "64b7f0c2a1b2c3d4e5f60003", false},
		{"unsorted pair", ConversationID(b + "_" + a), a, false},
		{"single id", ConversationID(a), a, false},
		{"three ids", ConversationID(a + "_" + b + "_x"), a, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Includes(tt.user); got != tt.want {
				t.Errorf("Includes(%q) on %q = %v, want %v", tt.user, tt.id, got, tt.want)
			}
		})
	}
}
