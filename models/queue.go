package models

// Queue identifies one of the Action Center work queues. The queue of an
// item is fixed at creation and determines which reason codes and actions
// apply to it.
type Queue string

const (
	QueueKYC          Queue = "kyc"
	QueueBookings     Queue = "bookings"
	QueueRefunds      Queue = "refunds_disputes"
	QueuePayouts      Queue = "payouts"
	QueueWebhooks     Queue = "webhooks"
	QueueContentFlags Queue = "content_flags"
)

// AllQueues lists every queue in display order.
var AllQueues = []Queue{
	QueueKYC,
	QueueBookings,
	QueueRefunds,
	QueuePayouts,
	QueueWebhooks,
	QueueContentFlags,
}

// IsValidQueue reports whether q names a known queue.
func IsValidQueue(q Queue) bool {
	for _, known := range AllQueues {
		if q == known {
			return true
		}
	}
	return false
}

// reasonCodesByQueue is the closed set of reason codes per queue. A reason
// code outside its queue's set is rejected at creation and in filters.
var reasonCodesByQueue = map[Queue][]string{
	QueueKYC:          {"ID_MISMATCH", "DOC_EXPIRED", "DOC_UNREADABLE", "SELFIE_MISMATCH"},
	QueueBookings:     {"DOUBLE_BOOKING", "PROVIDER_NO_SHOW", "CUSTOMER_NO_SHOW", "RESCHEDULE_REQUEST"},
	QueueRefunds:      {"SERVICE_NOT_RENDERED", "QUALITY_DISPUTE", "DUPLICATE_CHARGE", "CHARGEBACK_OPENED"},
	QueuePayouts:      {"BANK_REJECTED", "ACCOUNT_CLOSED", "KYC_HOLD", "LIMIT_EXCEEDED"},
	QueueWebhooks:     {"TIMEOUT", "NON_2XX", "DNS_FAILURE", "TLS_ERROR"},
	QueueContentFlags: {"ABUSIVE_LANGUAGE", "SPAM", "FAKE_REVIEW", "PII_EXPOSED"},
}

// ReasonCodes returns the allowed reason codes for a queue.
func ReasonCodes(q Queue) []string {
	return reasonCodesByQueue[q]
}

// IsValidReasonCode reports whether code belongs to the queue's allowed set.
func IsValidReasonCode(q Queue, code string) bool {
	for _, known := range reasonCodesByQueue[q] {
		if code == known {
			return true
		}
	}
	return false
}

// QueueAction is one entry in a queue's action vocabulary. Terminal actions
// resolve the item; follow-up actions (request_info, change_method) leave it
// open because the admin is waiting on a response, so the item must not
// vanish from the active queue.
type QueueAction struct {
	Name     string
	Terminal bool
}

var actionsByQueue = map[Queue][]QueueAction{
	QueueKYC: {
		{Name: "approve", Terminal: true},
		{Name: "reject", Terminal: true},
		{Name: "request_info", Terminal: false},
	},
	QueueBookings: {
		{Name: "reschedule", Terminal: true},
		{Name: "reassign_provider", Terminal: true},
		{Name: "cancel_booking", Terminal: true},
		{Name: "request_info", Terminal: false},
	},
	QueueRefunds: {
		{Name: "approve_refund", Terminal: true},
		{Name: "partial_refund", Terminal: true},
		{Name: "reject_refund", Terminal: true},
		{Name: "request_info", Terminal: false},
	},
	QueuePayouts: {
		{Name: "retry", Terminal: true},
		{Name: "change_method", Terminal: false},
		{Name: "request_info", Terminal: false},
	},
	QueueWebhooks: {
		{Name: "retry", Terminal: true},
		{Name: "disable_endpoint", Terminal: true},
	},
	QueueContentFlags: {
		{Name: "remove_content", Terminal: true},
		{Name: "dismiss_flag", Terminal: true},
		{Name: "warn_user", Terminal: true},
	},
}

// LookupAction returns the action definition for name within the queue's
// vocabulary, or false when the queue does not allow it.
func LookupAction(q Queue, name string) (QueueAction, bool) {
	for _, a := range actionsByQueue[q] {
		if a.Name == name {
			return a, true
		}
	}
	return QueueAction{}, false
}

// QueueActions returns the action vocabulary for a queue.
func QueueActions(q Queue) []QueueAction {
	return actionsByQueue[q]
}
