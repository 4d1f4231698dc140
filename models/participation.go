package models

const (
	ParticipationPending   = "pending"
	ParticipationApproved  = "approved"
	ParticipationRejected  = "rejected"
	ParticipationFinalized = "finalized"
)

// Participation links one person, in one role, to one event. At most one
// active record exists per (user, event, role).
type Participation struct {
	ID        int    `json:"id"`
	EventID   int    `json:"event_id"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Confirmed bool   `json:"confirmed"`
	Document  string `json:"document,omitempty"`
	CreatedAt string `json:"created_at"`

	// Enrichment fields filled by joined queries
	UserFirstName string `json:"user_first_name,omitempty"`
	UserLastName  string `json:"user_last_name,omitempty"`
	UserEmail     string `json:"user_email,omitempty"`
	EventName     string `json:"event_name,omitempty"`
}

func ValidParticipationStatus(status string) bool {
	switch status {
	case ParticipationPending, ParticipationApproved, ParticipationRejected, ParticipationFinalized:
		return true
	}
	return false
}

// DisplayName mirrors User.DisplayName for joined rows.
func (p Participation) DisplayName() string {
	name := p.UserFirstName
	if p.UserLastName != "" {
		if name != "" {
			name += " "
		}
		name += p.UserLastName
	}
	if name == "" {
		return p.UserEmail
	}
	return name
}
