package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintSubmitted     EventType = "complaint_submitted"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventAdminCodeIssued        EventType = "admin_code_issued"
	EventAdminCodeRedeemed      EventType = "admin_code_redeemed"
	EventUserRegistered         EventType = "user_registered"
)

// Event represents a domain event emitted by services. Subject carries the
// complaint id for complaint events and the username for account events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a fresh id and timestamp.
func NewEvent(eventType EventType, subject, actor string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ComplaintSubmittedPayload payload.
type ComplaintSubmittedPayload struct {
	CustomerID     string                   `json:"customer_id"`
	Category       domain.ComplaintCategory `json:"category"`
	Severity       int                      `json:"severity"`
	SentimentScore float64                  `json:"sentiment_score"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID     int64           `json:"user_id"`
	Role       domain.UserRole `json:"role"`
	Department string          `json:"department,omitempty"`
}
