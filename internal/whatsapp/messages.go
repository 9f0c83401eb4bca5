package whatsapp

import (
	"fmt"
	"strings"
	"unicode"
)

// Wedding holds the details quoted in outgoing messages
type Wedding struct {
	Date      string
	Location  string
	BrideName string
	GroomName string
}

func InvitationText(w Wedding, name, link string) string {
	msg := fmt.Sprintf(
		"🎉 *Wedding Invitation*\n\n"+
			"Dear %s,\n\n"+
			"You are cordially invited to celebrate the wedding of\n\n"+
			"*%s* & *%s*\n\n"+
			"📅 Date: %s\n"+
			"📍 Location: %s\n\n",
		name, w.BrideName, w.GroomName, w.Date, w.Location,
	)
	if link != "" {
		msg += fmt.Sprintf("See your itinerary and RSVP here: %s\n\n", link)
	}
	return msg + "You can also reply with:\n✅ *YES* to accept\n❌ *NO* to decline"
}

func AccessCodeText(w Wedding, code string) string {
	return fmt.Sprintf(
		"Your access code for the wedding of %s & %s is *%s*.\n\nIt expires in a few minutes. Do not share it.",
		w.BrideName, w.GroomName, code,
	)
}

func AcceptedText(w Wedding) string {
	return fmt.Sprintf(
		"🎉 Wonderful! We're so excited to celebrate with you!\n\n"+
			"We've confirmed your attendance for the wedding of %s & %s on %s.\n\n"+
			"See you there! 💕",
		w.BrideName, w.GroomName, w.Date,
	)
}

func DeclinedText(w Wedding) string {
	return fmt.Sprintf(
		"Thank you for letting us know. We're sorry you won't be able to join us for the wedding of %s & %s.\n\n"+
			"We'll miss you! 💕",
		w.BrideName, w.GroomName,
	)
}

// Reply is the attendance answer found in a free-text message
type Reply int

const (
	ReplyUnknown Reply = iota
	ReplyYes
	ReplyNo
)

var (
	yesWords   = []string{"yes", "yep", "yeah", "accept", "accepting", "attending", "coming"}
	yesPhrases = []string{"will come", "will be there", "✅"}
	noWords    = []string{"no", "nope", "decline", "declining"}
	noPhrases  = []string{"not coming", "can't come", "cant come", "won't come", "can't make it", "❌"}
)

// ParseReply classifies a message. Negative phrases win over positive words
// so that "not coming" is a decline.
func ParseReply(text string) Reply {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	switch {
	case containsAny(text, noPhrases...):
		return ReplyNo
	case containsAny(text, yesPhrases...) || hasWord(words, yesWords...):
		return ReplyYes
	case hasWord(words, noWords...):
		return ReplyNo
	}
	return ReplyUnknown
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func hasWord(words []string, keywords ...string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
