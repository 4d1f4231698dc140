package controllers

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"

	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/policy"
	"eventsoft/storage"
	"eventsoft/utils"

	"github.com/gorilla/mux"
)

// EventSource is what the document endpoints read and write. The production
// implementation wraps *sql.DB; tests use a fake.
type EventSource interface {
	EventByID(id int) (models.Event, error)
	UserByID(id int) (models.User, error)
	ParticipationFor(userID, eventID int) (*models.Participation, error)
	ApprovedParticipants(eventID int) ([]models.Participation, error)
	SetSlot(eventID int, slot models.DocumentSlot, ref string) error
}

type sqlEventSource struct {
	db *sql.DB
}

func NewSQLEventSource(db *sql.DB) EventSource {
	return &sqlEventSource{db: db}
}

func (s *sqlEventSource) EventByID(id int) (models.Event, error) {
	return models.GetEventByID(s.db, id)
}

func (s *sqlEventSource) UserByID(id int) (models.User, error) {
	return models.GetUserByID(s.db, id)
}

func (s *sqlEventSource) ParticipationFor(userID, eventID int) (*models.Participation, error) {
	return models.FindParticipation(s.db, userID, eventID)
}

func (s *sqlEventSource) ApprovedParticipants(eventID int) ([]models.Participation, error) {
	return models.FindApprovedParticipants(s.db, eventID, "")
}

func (s *sqlEventSource) SetSlot(eventID int, slot models.DocumentSlot, ref string) error {
	return models.UpdateEventSlot(s.db, eventID, slot, ref)
}

type DocumentController struct {
	Source EventSource
	Store  storage.FileStore
	Mail   *mailer.Dispatcher
}

// notifiedSlots are the slots whose replacement alerts approved participants.
var notifiedSlots = map[models.DocumentSlot]string{
	models.SlotProgramacion:       "la programación",
	models.SlotInformacionTecnica: "la información técnica",
}

// Upload replaces the file in one of the event's document slots. Only the
// owning administrator may do this; the previous file is deleted, not kept.
func (dc *DocumentController) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}

		vars := mux.Vars(r)
		eventID, err := strconv.Atoi(vars["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid event ID format"})
			return
		}
		slotName := vars["slot"]
		if !models.ValidDocumentSlot(slotName) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{
				Message: "Invalid document slot. Allowed values are: programacion, informacion_tecnica, memorias, certificado_firma, certificado_logo",
			})
			return
		}
		slot := models.DocumentSlot(slotName)

		event, err := dc.Source.EventByID(eventID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Event not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
			return
		}

		user, err := dc.Source.UserByID(userID)
		if err != nil {
			log.Println("Error retrieving user details:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error retrieving user information"})
			return
		}
		if !policy.CanReplace(user, event, slot) {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can upload documents"})
			return
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid form data"})
			return
		}
		file, handler, err := r.FormFile("file")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Missing file field"})
			return
		}
		defer file.Close()

		key := fmt.Sprintf("events/%d/%s/%s", eventID, slot, filepath.Base(handler.Filename))
		fileURL, err := dc.Store.Save(key, file)
		if err != nil {
			log.Println("Error uploading document:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error saving document to storage"})
			return
		}

		// Replace in place: drop the previous object once the new one is up.
		if old := event.SlotRef(slot); old != "" && old != fileURL {
			if err := dc.Store.Delete(old); err != nil {
				log.Printf("Error deleting previous %s file for event %d: %v", slot, eventID, err)
			}
		}

		if err := dc.Source.SetSlot(eventID, slot, fileURL); err != nil {
			log.Println("Error updating document slot:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update document"})
			return
		}

		response := map[string]interface{}{
			"message": "Document updated successfully",
			"slot":    string(slot),
			"url":     fileURL,
		}

		if label, ok := notifiedSlots[slot]; ok {
			participants, err := dc.Source.ApprovedParticipants(eventID)
			if err != nil {
				log.Println("Error fetching participants for notification:", err)
			} else if len(participants) > 0 {
				recipients := make([]mailer.Recipient, 0, len(participants))
				for _, p := range participants {
					recipients = append(recipients, mailer.Recipient{Name: p.DisplayName(), Email: p.UserEmail})
				}
				sent, failures := dc.Mail.Notify(event.EventName, recipients,
					"Actualización del evento {evento}",
					"Hola {nombre}, "+label+" del evento {evento} fue actualizada. Ya puede descargar el nuevo documento.", nil)
				response["notified"] = sent
				if len(failures) > 0 {
					response["notification_failures"] = failures
				}
			}
		}

		utils.ResponseJSON(w, response)
	}
}

// Download streams a gated document slot to an entitled requester. The
// access check runs before any file I/O; a missing file is a 404, never a 403.
func (dc *DocumentController) Download(slot models.DocumentSlot) http.HandlerFunc {
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

		event, err := dc.Source.EventByID(eventID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Event not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
			return
		}

		user, err := dc.Source.UserByID(userID)
		if err != nil {
			log.Println("Error retrieving user details:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error retrieving user information"})
			return
		}

		participation, err := dc.Source.ParticipationFor(userID, eventID)
		if err != nil {
			log.Println("Error fetching participation:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		if !policy.CanAccess(user, event, participation, slot) {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You do not have access to this document"})
			return
		}

		ref := event.SlotRef(slot)
		if ref == "" {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Document not available"})
			return
		}

		rc, err := dc.Store.Open(ref)
		if err != nil {
			log.Println("Error opening document:", err)
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Document not available"})
			return
		}
		defer rc.Close()

		filename := path.Base(ref)
		if unescaped, err := url.PathUnescape(filename); err == nil {
			filename = unescaped
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if _, err := io.Copy(w, rc); err != nil {
			log.Println("Error streaming document:", err)
		}
	}
}
