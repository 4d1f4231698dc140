package controllers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/storage"
	"eventsoft/utils"

	"github.com/gorilla/mux"
)

type ParticipationController struct {
	Store storage.FileStore
	Mail  *mailer.Dispatcher
}

// Apply registers the acting user for an event in their account role.
// Evaluators may attach a CV as multipart field "cv".
func (pc *ParticipationController) Apply(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}
		user, err := models.GetUserByID(db, userID)
		if err != nil {
			log.Println("Error retrieving user details:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error retrieving user information"})
			return
		}
		if user.Role != models.RoleEvaluator && user.Role != models.RoleAttendee {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only evaluators and attendees can apply to events"})
			return
		}

		eventID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid event ID format"})
			return
		}
		event, err := models.GetEventByID(db, eventID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Event not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
			return
		}
		if event.Status != models.EventStatusApproved {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Event is not open for registration"})
			return
		}

		existing, err := models.FindParticipation(db, userID, eventID)
		if err != nil {
			log.Println("Error checking existing participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		if existing != nil {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "You already have a registration for this event"})
			return
		}

		// Optional evaluator CV upload.
		var cvURL string
		if user.Role == models.RoleEvaluator {
			if err := r.ParseMultipartForm(10 << 20); err == nil {
				file, handler, err := r.FormFile("cv")
				if err != nil && err != http.ErrMissingFile {
					log.Println("Error retrieving cv file:", err)
					utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Error processing cv upload"})
					return
				}
				if file != nil {
					defer file.Close()
					key := fmt.Sprintf("events/%d/cv/%d%s", eventID, userID, filepath.Ext(handler.Filename))
					cvURL, err = pc.Store.Save(key, file)
					if err != nil {
						log.Println("Error uploading cv:", err)
						utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error saving cv to storage"})
						return
					}
				}
			}
		}

		result, err := db.Exec(
			`INSERT INTO participations (event_id, user_id, role, status, confirmed, document, created_at)
             VALUES (?, ?, ?, ?, false, ?, NOW())`,
			eventID, userID, user.Role, models.ParticipationPending, cvURL,
		)
		if err != nil {
			log.Println("Error inserting participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to register for event"})
			return
		}
		participationID, _ := result.LastInsertId()

		utils.ResponseJSON(w, map[string]interface{}{
			"message":          "Registration submitted",
			"participation_id": participationID,
			"status":           models.ParticipationPending,
		})
	}
}

// UpdateStatus lets the event administrator approve or reject an
// application. The applicant is notified by email; a mail failure does not
// undo the status change.
func (pc *ParticipationController) UpdateStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}

		participationID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid participation ID format"})
			return
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if !models.ValidParticipationStatus(body.Status) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid status. Allowed values are: pending, approved, rejected, finalized"})
			return
		}

		var p models.Participation
		err = db.QueryRow(
			"SELECT id, event_id, user_id, role, status, confirmed, created_at FROM participations WHERE id = ?",
			participationID,
		).Scan(&p.ID, &p.EventID, &p.UserID, &p.Role, &p.Status, &p.Confirmed, &p.CreatedAt)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Participation not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		event, err := models.GetEventByID(db, p.EventID)
		if err != nil {
			log.Println("Error fetching event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
			return
		}
		if event.UserID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can update registrations"})
			return
		}

		// Capacity check when approving an attendee.
		if body.Status == models.ParticipationApproved && p.Role == models.RoleAttendee && event.Capacity > 0 {
			approved, err := models.CountApprovedAttendees(db, p.EventID)
			if err != nil {
				log.Println("Error counting attendees:", err)
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
				return
			}
			if approved >= event.Capacity {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Event has reached its capacity"})
				return
			}
		}

		tx, err := db.Begin()
		if err != nil {
			log.Println("Error starting transaction:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		if _, err := tx.Exec("UPDATE participations SET status = ? WHERE id = ?", body.Status, participationID); err != nil {
			tx.Rollback()
			log.Println("Error updating participation status:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update registration"})
			return
		}
		if err := tx.Commit(); err != nil {
			log.Println("Error committing transaction:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update registration"})
			return
		}

		applicant, err := models.GetUserByID(db, p.UserID)
		if err != nil {
			log.Println("Error fetching applicant for notification:", err)
		} else {
			recipients := []mailer.Recipient{{Name: applicant.DisplayName(), Email: applicant.Email}}
			_, failures := pc.Mail.Notify(event.EventName, recipients,
				"Su registro en {evento}",
				"Hola {nombre}, su registro en el evento {evento} ahora tiene estado: "+body.Status+".", nil)
			if len(failures) > 0 {
				log.Printf("Status notification failed for participation %d: %v", participationID, failures)
			}
		}

		utils.ResponseJSON(w, map[string]string{"message": "Registration status updated successfully"})
	}
}

// Confirm marks an approved participation as confirmed by the participant.
func (pc *ParticipationController) Confirm(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}

		eventID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid event ID format"})
			return
		}

		p, err := models.FindParticipation(db, userID, eventID)
		if err != nil {
			log.Println("Error fetching participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		if p == nil {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "You have no registration for this event"})
			return
		}
		if p.Status != models.ParticipationApproved {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Only approved registrations can be confirmed"})
			return
		}

		if _, err := db.Exec("UPDATE participations SET confirmed = true WHERE id = ?", p.ID); err != nil {
			log.Println("Error confirming participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to confirm registration"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Registration confirmed"})
	}
}

// ListByEvent returns the registrations of an event for its administrator,
// optionally filtered by status and role.
func (pc *ParticipationController) ListByEvent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}

		eventID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid event ID format"})
			return
		}
		event, err := models.GetEventByID(db, eventID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Event not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
			return
		}
		if event.UserID != userID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can list registrations"})
			return
		}

		query := `SELECT p.id, p.event_id, p.user_id, p.role, p.status, p.confirmed, p.document, p.created_at,
            u.first_name, u.last_name, u.email
            FROM participations p
            JOIN users u ON p.user_id = u.id
            WHERE p.event_id = ?`
		args := []interface{}{eventID}

		if status := r.URL.Query().Get("status"); status != "" {
			if !models.ValidParticipationStatus(status) {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid status filter"})
				return
			}
			query += " AND p.status = ?"
			args = append(args, status)
		}
		if role := r.URL.Query().Get("role"); role != "" {
			query += " AND p.role = ?"
			args = append(args, role)
		}

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Println("Error fetching registrations:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching registrations"})
			return
		}
		defer rows.Close()

		participations := []models.Participation{}
		for rows.Next() {
			var p models.Participation
			var document, firstName, lastName sql.NullString
			if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Role, &p.Status, &p.Confirmed, &document, &p.CreatedAt,
				&firstName, &lastName, &p.UserEmail); err != nil {
				log.Println("Error scanning registration row:", err)
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error reading registrations"})
				return
			}
			if document.Valid {
				p.Document = document.String
			}
			if firstName.Valid {
				p.UserFirstName = firstName.String
			}
			if lastName.Valid {
				p.UserLastName = lastName.String
			}
			participations = append(participations, p)
		}

		utils.ResponseJSON(w, map[string]interface{}{"participations": participations})
	}
}
