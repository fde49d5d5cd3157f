package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/servana/action-center/models"
)

func TestAddNoteAppends(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueRefunds, "DUPLICATE_CHARGE", nil)

	first, err := svc.AddNote(item.ID, admin, "called the customer")
	require.NoError(t, err)
	assert.Equal(t, item.ID, first.ActionItemID)
	assert.Equal(t, admin.ID, first.AuthorID)
	assert.False(t, first.System)
	assert.False(t, first.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	_, err = svc.AddNote(item.ID, otherAdmin, "refund receipt attached")
	require.NoError(t, err)

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	// Oldest first, and the earlier note is untouched by the later append.
	assert.Equal(t, "called the customer", notes[0].Body)
	assert.Equal(t, "refund receipt attached", notes[1].Body)
	assert.True(t, !notes[1].CreatedAt.Before(notes[0].CreatedAt))
}

func TestAddNoteValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddNote("AC-NONE1", admin, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	item := seedItem(t, svc, model.QueueRefunds, "DUPLICATE_CHARGE", nil)
	_, err = svc.AddNote(item.ID, admin, "")
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestNotesFromOneTransactionKeepInsertionOrder(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "DOC_EXPIRED", nil)

	// Resolve writes its system note and the operator note with the same
	// created_at; the thread must still read back in write order.
	_, err := svc.Resolve(item.ID, admin, "approved", "docs re-checked, all fine")
	require.NoError(t, err)

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "Resolved: approved", notes[0].Body)
	assert.True(t, notes[0].System)
	assert.Equal(t, "docs re-checked, all fine", notes[1].Body)
	assert.False(t, notes[1].System)
	assert.WithinDuration(t, notes[0].CreatedAt, notes[1].CreatedAt, 0)
}

func TestAddNoteBumpsItemClock(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueRefunds, "DUPLICATE_CHARGE", nil)

	time.Sleep(5 * time.Millisecond)
	_, err := svc.AddNote(item.ID, admin, "first look")
	require.NoError(t, err)

	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(item.UpdatedAt))
	// The thread grows; the item itself does not change state.
	assert.Equal(t, model.StatusOpen, got.Status)
}

func TestGetNotesMissingItem(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetNotes("AC-NONE1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimelineInterleavesEvents(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "SELFIE_MISMATCH", nil)

	time.Sleep(5 * time.Millisecond)
	_, err := svc.AddNote(item.ID, admin, "asked for a fresh selfie")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Resolve(item.ID, admin, "approved", "new selfie matches")
	require.NoError(t, err)

	events, err := svc.Timeline(item.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 4)

	// The opened event leads, and timestamps never go backwards.
	assert.Equal(t, "opened", events[0].Type)
	for i := 1; i < len(events); i++ {
		assert.True(t, !events[i].At.Before(events[i-1].At),
			"event %d out of order", i)
	}

	var kinds []string
	var bodies []string
	for _, e := range events {
		kinds = append(kinds, e.Type)
		bodies = append(bodies, e.Body)
	}
	assert.Contains(t, kinds, "note")
	assert.Contains(t, kinds, "system")
	assert.Contains(t, bodies, "asked for a fresh selfie")
	assert.Contains(t, bodies, "Resolved: approved")
	assert.Contains(t, bodies, "new selfie matches")
}
