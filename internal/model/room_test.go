package model

import (
	"strings"
	"testing"
)

func TestNewRoomID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRoomID()
		if len(id) != 8 {
			t.Fatalf("Expected 8-char room code, got %q", id)
		}
		if id != strings.ToUpper(id) {
			t.Errorf("Expected uppercase room code, got %q", id)
		}
		if seen[id] {
			t.Errorf("Duplicate room code: %s", id)
		}
		seen[id] = true
	}
}

func TestMovieSource_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		source *MovieSource
		want   bool
	}{
		{"url source", &MovieSource{Type: MovieSourceURL, Value: "https://example.com/a.mp4"}, true},
		{"drive source", &MovieSource{Type: MovieSourceDrive, VideoID: "abc123"}, true},
		{"missing type", &MovieSource{Value: "https://example.com/a.mp4"}, false},
		{"missing location", &MovieSource{Type: MovieSourceURL}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.source.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoom_Membership(t *testing.T) {
	room := &Room{
		HostID:          "host",
		MaxParticipants: 2,
		Participants: []Participant{
			{UserID: "host", IsHost: true},
			{UserID: "guest"},
		},
	}

	if !room.HasParticipant("host") || !room.HasParticipant("guest") {
		t.Error("Expected both members to be participants")
	}
	if room.HasParticipant("stranger") {
		t.Error("Expected stranger not to be a participant")
	}
	if !room.IsHost("host") || room.IsHost("guest") {
		t.Error("Expected only 'host' to be the host")
	}
	if !room.IsFull() {
		t.Error("Expected room at capacity to be full")
	}

	remaining := room.WithoutParticipant("guest")
	if len(remaining) != 1 || remaining[0].UserID != "host" {
		t.Errorf("Unexpected participants after removal: %+v", remaining)
	}
	// Removing a non-member changes nothing
	if got := room.WithoutParticipant("stranger"); len(got) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(got))
	}
}

func TestRoom_PasswordRequired(t *testing.T) {
	if (&Room{}).PasswordRequired() {
		t.Error("Expected open room not to require a password")
	}
	if !(&Room{PasswordHash: "$2a$12$hash"}).PasswordRequired() {
		t.Error("Expected hashed password to require a password")
	}
	if !(&Room{LegacyPassword: "plain"}).PasswordRequired() {
		t.Error("Expected legacy password to require a password")
	}
}
