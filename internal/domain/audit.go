package domain

import (
	"sort"
	"time"
)

// BookingHistoryRecord is an append-only audit entry, written exactly once per
// accepted booking transition.
type BookingHistoryRecord struct {
	ID            int64         `json:"id"`
	BookingID     int64         `json:"booking_id"`
	StatusFrom    BookingStatus `json:"status_from"`
	StatusTo      BookingStatus `json:"status_to"`
	ChangedByID   int64         `json:"changed_by_id"`
	ChangedByRole string        `json:"changed_by_role"`
	Reason        string        `json:"reason"`
	CreatedAt     time.Time     `json:"created_at"`
}

type PaymentLogAction string

const (
	PaymentActionRecorded  PaymentLogAction = "recorded"
	PaymentActionConfirmed PaymentLogAction = "confirmed"
	PaymentActionFailed    PaymentLogAction = "failed"
	PaymentActionRefunded  PaymentLogAction = "refunded"
)

// PaymentLogRecord is an append-only audit entry, written exactly once per
// accepted payment operation.
type PaymentLogRecord struct {
	ID              int64            `json:"id"`
	PaymentID       int64            `json:"payment_id"`
	Action          PaymentLogAction `json:"action"`
	StatusFrom      PaymentStatus    `json:"status_from"`
	StatusTo        PaymentStatus    `json:"status_to"`
	ProcessedByID   int64            `json:"processed_by_id"`
	ProcessedByRole string           `json:"processed_by_role"`
	Notes           string           `json:"notes"`
	CreatedAt       time.Time        `json:"created_at"`
}

type TimelineEventType string

const (
	TimelineBookingStatusChange TimelineEventType = "booking_status_change"
	TimelinePaymentEvent        TimelineEventType = "payment_event"
)

// TimelineEvent is one entry in the merged audit view of a booking. Exactly
// one of BookingHistory or PaymentLog is set, matching EventType.
type TimelineEvent struct {
	EventType      TimelineEventType     `json:"event_type"`
	OccurredAt     time.Time             `json:"occurred_at"`
	BookingHistory *BookingHistoryRecord `json:"booking_history,omitempty"`
	PaymentLog     *PaymentLogRecord     `json:"payment_log,omitempty"`
}

// MergeTimeline combines a booking's history with the logs of all its payments
// into one sequence ordered by created_at ascending. Both inputs must already
// be in insertion order; the sort is stable so coinciding timestamps keep that
// order. The tie-break is per stream: on equal timestamps every history entry
// renders before every payment entry, since the two tables draw from separate
// id sequences and cross-table insertion order is not recoverable.
func MergeTimeline(history []BookingHistoryRecord, logs []PaymentLogRecord) []TimelineEvent {
	events := make([]TimelineEvent, 0, len(history)+len(logs))
	for i := range history {
		h := history[i]
		events = append(events, TimelineEvent{
			EventType:      TimelineBookingStatusChange,
			OccurredAt:     h.CreatedAt,
			BookingHistory: &h,
		})
	}
	for i := range logs {
		l := logs[i]
		events = append(events, TimelineEvent{
			EventType:  TimelinePaymentEvent,
			OccurredAt: l.CreatedAt,
			PaymentLog: &l,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events
}
