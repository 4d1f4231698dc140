package models

const (
	RoleAdmin     = "admin"
	RoleEvaluator = "evaluator"
	RoleAttendee  = "attendee"
)

type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Document  string `json:"document,omitempty"`
	Role      string `json:"role,omitempty"`
}

// DisplayName is what notification templates substitute for {nombre}.
// Falls back to the account email when the person never filled their name in.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
