package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		text string
		want Reply
	}{
		{"YES", ReplyYes},
		{"Yes! We will be there", ReplyYes},
		{"✅", ReplyYes},
		{"count us in, coming", ReplyYes},
		{"no", ReplyNo},
		{"Sorry, not coming", ReplyNo},
		{"❌", ReplyNo},
		{"I can't make it unfortunately", ReplyNo},
		{"I don't know yet", ReplyUnknown},
		{"what's the dress code?", ReplyUnknown},
		{"", ReplyUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseReply(tt.text), tt.text)
	}
}

func TestInvitationText(t *testing.T) {
	w := Wedding{Date: "Saturday, March 1", Location: "Lahore", BrideName: "Ayesha", GroomName: "Omar"}

	msg := InvitationText(w, "Bilal", "https://example.com/auth")
	assert.Contains(t, msg, "Dear Bilal")
	assert.Contains(t, msg, "*Ayesha* & *Omar*")
	assert.Contains(t, msg, "https://example.com/auth")

	assert.NotContains(t, InvitationText(w, "Bilal", ""), "RSVP here")
	assert.Contains(t, AccessCodeText(w, "123456"), "*123456*")
}
