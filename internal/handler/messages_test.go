package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGuest(t, "Ayesha", "0301 2345678")

	require.NoError(t, f.messages.SendInvitation(ctx, g.ID))
	require.Len(t, f.messenger.invitations, 1)
	assert.Equal(t, sentMessage{phone: "+923012345678", text: "Ayesha", link: "https://wedding.example.com/auth"}, f.messenger.invitations[0])
}

func TestHandleReplyRecordsAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGuest(t, "Ayesha", "0301 2345678")
	s := sessionFor(g)

	_, err := f.rsvp.Submit(ctx, s, Submission{
		Attending:     false,
		IncludingTrek: true,
		FamilyMembers: []FamilyMemberInput{{Name: "Sara"}},
	})
	require.NoError(t, err)

	require.NoError(t, f.messages.HandleReply(ctx, "+923012345678", "Yes, we will be there!"))

	view, err := f.rsvp.Load(ctx, s)
	require.NoError(t, err)
	assert.True(t, view.RSVP.Attending)
	assert.True(t, view.RSVP.IncludingTrek)
	require.Len(t, view.FamilyMembers, 1)
	assert.Equal(t, "Sara", view.FamilyMembers[0].Name)

	require.Len(t, f.messenger.messages, 1)
	assert.Equal(t, "+923012345678", f.messenger.messages[0].phone)
	assert.Contains(t, f.messenger.messages[0].text, "Ayesha & Omar")

	require.NoError(t, f.messages.HandleReply(ctx, "+923012345678", "sorry, not coming"))
	view, err = f.rsvp.Load(ctx, s)
	require.NoError(t, err)
	assert.False(t, view.RSVP.Attending)
}

func TestHandleReplyIgnoresUnknownSendersAndText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGuest(t, "Ayesha", "0301 2345678")

	require.NoError(t, f.messages.HandleReply(ctx, "+923009998887", "yes"))
	require.NoError(t, f.messages.HandleReply(ctx, "+923012345678", "what time is the nikah?"))
	require.NoError(t, f.messages.HandleReply(ctx, "garbage", "yes"))

	view, err := f.rsvp.Load(ctx, sessionFor(g))
	require.NoError(t, err)
	assert.Nil(t, view.RSVP)
	assert.Empty(t, f.messenger.messages)
}
