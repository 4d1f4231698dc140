package models

// CertificateConfig is the per-event, per-recipient-type template an
// administrator sets up before sending certificates. It is read at send time
// and never mutated by the send itself.
type CertificateConfig struct {
	ID            int    `json:"id"`
	EventID       int    `json:"event_id"`
	RecipientType string `json:"recipient_type"` // evaluator or attendee
	Title         string `json:"title"`
	Body          string `json:"body"` // supports {nombre} and {evento}
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func ValidRecipientType(role string) bool {
	return role == RoleEvaluator || role == RoleAttendee
}
