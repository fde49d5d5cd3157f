package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/servana/action-center/models"
)

func TestResolveRecordsResolutionAndNote(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "ID_MISMATCH", nil)

	resolved, err := svc.Resolve(item.ID, admin, "approved", "looks good")
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, resolved.Status)
	assert.Equal(t, "approved", resolved.Meta["resolution"])
	assert.Equal(t, admin.ID, resolved.Meta["resolvedBy"])
	assert.NotEmpty(t, resolved.Meta["resolvedAt"])

	// Both the operator note and the system resolution note survive;
	// neither overwrites the other.
	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	bodies := make([]string, 0, len(notes))
	for _, n := range notes {
		bodies = append(bodies, n.Body)
	}
	assert.Contains(t, bodies, "looks good")
	assert.Contains(t, bodies, "Resolved: approved")
}

func TestResolvedIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "ID_MISMATCH", nil)

	_, err := svc.Resolve(item.ID, admin, "approved", "")
	require.NoError(t, err)

	// Resolving twice succeeds once and only once.
	_, err = svc.Resolve(item.ID, admin, "approved_again", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Snooze(item.ID, admin, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.PerformAction(item.ID, admin, "approve", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Meta["resolution"])
}

func TestMutationsAgainstMissingItem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve("AC-NONE1", admin, "approved", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Snooze("AC-NONE1", admin, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Assign("AC-NONE1", admin, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.PerformAction("AC-NONE1", admin, "approve", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnoozeOverwritesDeadline(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueBookings, "RESCHEDULE_REQUEST", slaIn(time.Hour))

	until := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	snoozed, err := svc.Snooze(item.ID, admin, until)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSnoozed, snoozed.Status)
	require.NotNil(t, snoozed.SlaAt)
	assert.True(t, snoozed.SlaAt.Equal(until))
	assert.Equal(t, until.Format(time.RFC3339), snoozed.Meta["snoozedUntil"])
	// The urgency clock restarted: three days out is green.
	assert.Equal(t, model.SeverityGreen, snoozed.Severity)

	// Snoozed items can still be resolved.
	resolved, err := svc.Resolve(item.ID, admin, "rescheduled", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, resolved.Status)
}

func TestSnoozedItemWakesAfterDeadline(t *testing.T) {
	svc, _ := newTestService(t)
	due := seedItem(t, svc, model.QueueBookings, "RESCHEDULE_REQUEST", slaIn(time.Hour))
	parked := seedItem(t, svc, model.QueueBookings, "DOUBLE_BOOKING", slaIn(time.Hour))

	_, err := svc.Snooze(due.ID, admin, time.Now().Add(200*time.Millisecond))
	require.NoError(t, err)
	_, err = svc.Snooze(parked.ID, admin, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	summary, err := svc.GetSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.Queues[model.QueueBookings])

	time.Sleep(400 * time.Millisecond)

	// The snooze target passed: the item is back in the active workload.
	woken, err := svc.Get(due.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, woken.Status)

	summary, err = svc.GetSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Queues[model.QueueBookings])
	assert.EqualValues(t, 1, summary.TotalOpen)

	res, err := svc.List(model.QueueBookings, ListFilter{Status: model.StatusOpen}, admin, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, due.ID, res.Items[0].ID)

	// The item snoozed far into the future stays parked.
	still, err := svc.Get(parked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, still.Status)
}

func TestMetaMergePreservesHistory(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueuePayouts, "BANK_REJECTED", nil)

	_, err := svc.Snooze(item.ID, admin, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	updated, err := svc.PerformAction(item.ID, admin, "change_method", map[string]interface{}{
		"newMethod": "upi",
	})
	require.NoError(t, err)

	// A later mutation merges into meta; earlier history keys survive.
	assert.NotEmpty(t, updated.Meta["snoozedUntil"])
	assert.Equal(t, "change_method", updated.Meta["lastAction"])
	assert.Equal(t, "upi", updated.Meta["newMethod"])

	resolved, err := svc.Resolve(item.ID, admin, "payout_fixed", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved.Meta["snoozedUntil"])
	assert.Equal(t, "change_method", resolved.Meta["lastAction"])
	assert.Equal(t, "payout_fixed", resolved.Meta["resolution"])
}

func TestAssignDefaultsToActor(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "ID_MISMATCH", nil)

	assigned, err := svc.AssignToMe(item.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, assigned.AssigneeID)
	assert.Equal(t, admin.Name, assigned.AssigneeName)
	// Assignment is ownership, not a status transition.
	assert.Equal(t, model.StatusOpen, assigned.Status)

	reassigned, err := svc.Assign(item.ID, admin, otherAdmin.ID, otherAdmin.Name)
	require.NoError(t, err)
	assert.Equal(t, otherAdmin.ID, reassigned.AssigneeID)
}

func TestPerformActionValidatesVocabulary(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "ID_MISMATCH", nil)

	_, err := svc.PerformAction(item.ID, admin, "retry", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Rejected before any mutation.
	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Nil(t, got.Meta["lastAction"])

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTerminalActionResolves(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "ID_MISMATCH", nil)

	updated, err := svc.PerformAction(item.ID, admin, "approve", nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, updated.Status)
	assert.Equal(t, "approve", updated.Meta["resolution"])

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	bodies := make([]string, 0, len(notes))
	for _, n := range notes {
		bodies = append(bodies, n.Body)
	}
	assert.Contains(t, bodies, "Action performed: approve")
}

func TestFollowUpActionKeepsItemOpen(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueKYC, "DOC_EXPIRED", nil)

	// Waiting on the user must not make the item vanish from the queue.
	updated, err := svc.PerformAction(item.ID, admin, "request_info", nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, updated.Status)
	assert.Equal(t, true, updated.Meta["awaitingReply"])

	res, err := svc.List(model.QueueKYC, ListFilter{}, admin, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, item.ID, res.Items[0].ID)
}

func TestWebhookRetrySuccessResolves(t *testing.T) {
	svc, relay := newTestService(t)
	item := seedItem(t, svc, model.QueueWebhooks, "TIMEOUT", nil)

	outcome, err := svc.RetryWebhook(item.ID, admin)
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Equal(t, 1, relay.calls)

	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, got.Status)
	assert.Equal(t, "delivered", got.Meta["retryResult"])
}

func TestWebhookRetryFailureLeavesItemUntouched(t *testing.T) {
	svc, relay := newTestService(t)
	relay.err = errors.New("endpoint still down")
	item := seedItem(t, svc, model.QueueWebhooks, "NON_2XX", nil)

	outcome, err := svc.RetryWebhook(item.ID, admin)
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.NotEmpty(t, outcome.Message)

	// A failed redelivery mutates nothing; the same retry can be attempted
	// again.
	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Nil(t, got.Meta["retryResult"])

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	relay.err = nil
	outcome, err = svc.RetryWebhook(item.ID, admin)
	require.NoError(t, err)
	assert.True(t, outcome.OK)
}

func TestRetryWebhookRejectsOtherQueues(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueuePayouts, "BANK_REJECTED", nil)

	_, err := svc.RetryWebhook(item.ID, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConcurrentNotesAreNotLost(t *testing.T) {
	svc, _ := newTestService(t)
	item := seedItem(t, svc, model.QueueContentFlags, "FAKE_REVIEW", nil)

	done := make(chan error, 2)
	go func() {
		_, err := svc.AddNote(item.ID, admin, "checked the review text")
		done <- err
	}()
	go func() {
		_, err := svc.AddNote(item.ID, otherAdmin, "user has prior flags")
		done <- err
	}()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	notes, err := svc.GetNotes(item.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}
