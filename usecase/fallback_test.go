package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackReply(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"I need HELP", rescueReply},
		{"there is an injured Animal here", rescueReply},
		{"hello, I want to volunteer for animal rescue", rescueReply},
		{"I'd like to volunteer", volunteerReply},
		{"how can I participate?", volunteerReply},
		{"is there an NGO near me", ngoReply},
		{"which organization runs this", ngoReply},
		{"ngo or volunteer?", volunteerReply},
		{"Hey", greetingReply},
		{"Hi there", greetingReply},
		{"what's the weather", defaultReply},
		{"", defaultReply},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackReply(tt.utterance))
		})
	}
}

func TestFallbackReplyIsPure(t *testing.T) {
	for _, u := range []string{"Rescue", "RESCUE", "rescue"} {
		assert.Equal(t, FallbackReply(u), FallbackReply(u))
		assert.Equal(t, rescueReply, FallbackReply(u))
	}
}
