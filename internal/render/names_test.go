package render

import (
	"testing"
	"time"
)

func TestOutputBaseName(t *testing.T) {
	values := NameValues{
		AudioPath: "/narration/Story 07.mp3",
		Title:     "Why Cats Knock Things Over",
		Index:     3,
		Date:      time.Date(2026, 3, 9, 14, 5, 6, 0, time.UTC),
	}
	tests := []struct {
		template string
		want     string
	}{
		{"", "Story_07"},
		{"$AUDIO", "Story_07"},
		{"$DATE_$SAFE_TITLE", "20260309_why-cats-knock-things-over"},
		{"$INDEX-$SAFE_AUDIO", "03-story-07"},
		{"$AUDIO_final", "Story_07_final"},
		{"cost$$", "cost"},
		{"$UNKNOWN", "Story_07"},
		{"$DATE$TIME", "20260309140506"},
	}
	for _, tt := range tests {
		if got := OutputBaseName(tt.template, values); got != tt.want {
			t.Errorf("OutputBaseName(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestOutputBaseNameWithoutDate(t *testing.T) {
	got := OutputBaseName("$AUDIO-$DATE", NameValues{AudioPath: "a.wav"})
	if got != "a" {
		t.Fatalf("got %q, want a", got)
	}
}
