package models

import (
	"database/sql"
)

// Typed query helpers shared by the controllers. All of them take the open
// *sql.DB so handlers stay plain closures.

func GetUserByID(db *sql.DB, userID int) (User, error) {
	var user User
	var email, firstName, lastName, document sql.NullString

	query := "SELECT id, email, first_name, last_name, document, role FROM users WHERE id = ?"
	err := db.QueryRow(query, userID).Scan(&user.ID, &email, &firstName, &lastName, &document, &user.Role)
	if err != nil {
		return user, err
	}
	if email.Valid {
		user.Email = email.String
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	if lastName.Valid {
		user.LastName = lastName.String
	}
	if document.Valid {
		user.Document = document.String
	}
	return user, nil
}

func GetUserByEmail(db *sql.DB, email string) (User, error) {
	var user User
	var firstName, lastName, document sql.NullString

	query := "SELECT id, email, password, first_name, last_name, document, role FROM users WHERE email = ?"
	err := db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &firstName, &lastName, &document, &user.Role)
	if err != nil {
		return user, err
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	if lastName.Valid {
		user.LastName = lastName.String
	}
	if document.Valid {
		user.Document = document.String
	}
	return user, nil
}

func scanEvent(row *sql.Row) (Event, error) {
	var event Event
	var description, location, createdBy sql.NullString
	var programacion, informacionTecnica, memorias, certificadoFirma, certificadoLogo sql.NullString

	err := row.Scan(
		&event.ID, &event.UserID, &event.EventName, &description,
		&event.StartDate, &event.EndDate, &location,
		&event.Status, &event.Capacity, &event.HasCost,
		&programacion, &informacionTecnica, &memorias,
		&certificadoFirma, &certificadoLogo,
		&event.CreatedAt, &event.UpdatedAt, &createdBy,
	)
	if err != nil {
		return event, err
	}
	if description.Valid {
		event.Description = description.String
	}
	if location.Valid {
		event.Location = location.String
	}
	if createdBy.Valid {
		event.CreatedBy = createdBy.String
	}
	if programacion.Valid {
		event.Programacion = programacion.String
	}
	if informacionTecnica.Valid {
		event.InformacionTecnica = informacionTecnica.String
	}
	if memorias.Valid {
		event.Memorias = memorias.String
	}
	if certificadoFirma.Valid {
		event.CertificadoFirma = certificadoFirma.String
	}
	if certificadoLogo.Valid {
		event.CertificadoLogo = certificadoLogo.String
	}
	return event, nil
}

const eventColumns = `id, user_id, event_name, description,
        start_date, end_date, location,
        status, capacity, has_cost,
        programacion, informacion_tecnica, memorias,
        certificado_firma, certificado_logo,
        created_at, updated_at, created_by`

func GetEventByID(db *sql.DB, eventID int) (Event, error) {
	row := db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", eventID)
	return scanEvent(row)
}

// UpdateEventSlot overwrites a single document-slot column. Callers validate
// the slot name first; the switch keeps the column name out of user input.
func UpdateEventSlot(db *sql.DB, eventID int, slot DocumentSlot, ref string) error {
	var column string
	switch slot {
	case SlotProgramacion:
		column = "programacion"
	case SlotInformacionTecnica:
		column = "informacion_tecnica"
	case SlotMemorias:
		column = "memorias"
	case SlotCertificadoFirma:
		column = "certificado_firma"
	case SlotCertificadoLogo:
		column = "certificado_logo"
	default:
		return sql.ErrNoRows
	}
	_, err := db.Exec("UPDATE events SET "+column+" = ?, updated_at = NOW() WHERE id = ?", ref, eventID)
	return err
}

// FindParticipation returns the active record linking a user to an event in
// any role, or nil when the user has no relationship to the event.
func FindParticipation(db *sql.DB, userID, eventID int) (*Participation, error) {
	var p Participation
	var document sql.NullString

	query := `SELECT id, event_id, user_id, role, status, confirmed, document, created_at
        FROM participations WHERE user_id = ? AND event_id = ?`
	err := db.QueryRow(query, userID, eventID).Scan(
		&p.ID, &p.EventID, &p.UserID, &p.Role, &p.Status, &p.Confirmed, &document, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if document.Valid {
		p.Document = document.String
	}
	return &p, nil
}

// FindApprovedParticipants returns every approved participation for the
// event, joined with the user's name and email for notification templates.
// Pass an empty role to get both evaluators and attendees.
func FindApprovedParticipants(db *sql.DB, eventID int, role string) ([]Participation, error) {
	query := `SELECT p.id, p.event_id, p.user_id, p.role, p.status, p.confirmed, p.created_at,
        u.first_name, u.last_name, u.email, e.event_name
        FROM participations p
        JOIN users u ON p.user_id = u.id
        JOIN events e ON p.event_id = e.id
        WHERE p.event_id = ? AND p.status = ?`
	args := []interface{}{eventID, ParticipationApproved}
	if role != "" {
		query += " AND p.role = ?"
		args = append(args, role)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participation
	for rows.Next() {
		var p Participation
		var firstName, lastName sql.NullString
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Role, &p.Status, &p.Confirmed, &p.CreatedAt,
			&firstName, &lastName, &p.UserEmail, &p.EventName); err != nil {
			return nil, err
		}
		if firstName.Valid {
			p.UserFirstName = firstName.String
		}
		if lastName.Valid {
			p.UserLastName = lastName.String
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func CountApprovedAttendees(db *sql.DB, eventID int) (int, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM participations WHERE event_id = ? AND role = ? AND status = ?",
		eventID, RoleAttendee, ParticipationApproved,
	).Scan(&count)
	return count, err
}

func GetCertificateConfig(db *sql.DB, eventID int, recipientType string) (CertificateConfig, error) {
	var cfg CertificateConfig
	query := `SELECT id, event_id, recipient_type, title, body, created_at, updated_at
        FROM certificate_configs WHERE event_id = ? AND recipient_type = ?`
	err := db.QueryRow(query, eventID, recipientType).Scan(
		&cfg.ID, &cfg.EventID, &cfg.RecipientType, &cfg.Title, &cfg.Body, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	return cfg, err
}
