package models

const (
	EventStatusPending   = "pending"
	EventStatusApproved  = "approved"
	EventStatusFinalized = "finalized"
	EventStatusRejected  = "rejected"
)

type Event struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	EventName   string `json:"event_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	Capacity    int    `json:"capacity"`
	HasCost     bool   `json:"has_cost"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	// Document slots. Each holds the blob-store URL of the current file,
	// empty when nothing has been uploaded.
	Programacion       string `json:"programacion,omitempty"`
	InformacionTecnica string `json:"informacion_tecnica,omitempty"`
	Memorias           string `json:"memorias,omitempty"`
	CertificadoFirma   string `json:"certificado_firma,omitempty"`
	CertificadoLogo    string `json:"certificado_logo,omitempty"`
}

func ValidEventStatus(status string) bool {
	switch status {
	case EventStatusPending, EventStatusApproved, EventStatusFinalized, EventStatusRejected:
		return true
	}
	return false
}
