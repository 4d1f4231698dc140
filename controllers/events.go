package controllers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventsoft/models"
	"eventsoft/storage"
	"eventsoft/utils"

	"github.com/gorilla/mux"
)

type EventController struct {
	Store storage.FileStore
}

type eventRequest struct {
	EventName   string `json:"event_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Capacity    int    `json:"capacity"`
	HasCost     bool   `json:"has_cost"`
}

func parseEventDates(startDate, endDate string) bool {
	dateFormats := []string{"2006-01-02", "2006-01-02 15:04:05"}
	startValid, endValid := false, false
	for _, format := range dateFormats {
		if _, err := time.Parse(format, startDate); err == nil {
			startValid = true
		}
		if _, err := time.Parse(format, endDate); err == nil {
			endValid = true
		}
	}
	return startValid && endValid
}

func (ec *EventController) CreateEvent(db *sql.DB) http.HandlerFunc {
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
		if user.Role != models.RoleAdmin {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only administrators can create events"})
			return
		}

		var body eventRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}

		body.EventName = strings.TrimSpace(body.EventName)
		if body.EventName == "" || body.Location == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Missing required fields: event_name and location are required"})
			return
		}
		if body.StartDate == "" || body.EndDate == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Missing required date fields: start_date and end_date are required"})
			return
		}
		if !parseEventDates(body.StartDate, body.EndDate) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid date format. Use YYYY-MM-DD or YYYY-MM-DD HH:MM:SS"})
			return
		}
		if body.Capacity < 0 {
			body.Capacity = 0
		}

		result, err := db.Exec(
			`INSERT INTO events (
                user_id, event_name, description, start_date, end_date, location,
                status, capacity, has_cost, created_at, updated_at, created_by
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW(), ?)`,
			userID, body.EventName, body.Description, body.StartDate, body.EndDate, body.Location,
			models.EventStatusPending, body.Capacity, body.HasCost, user.Email,
		)
		if err != nil {
			log.Println("Error inserting event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create event"})
			return
		}

		eventID, err := result.LastInsertId()
		if err != nil {
			log.Println("Error getting last insert ID:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Event created but failed to retrieve ID"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"message":  "Event created successfully",
			"event_id": eventID,
		})
	}
}

func (ec *EventController) GetEvents(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if eventID := query.Get("id"); eventID != "" {
			id, err := strconv.Atoi(eventID)
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid event ID format"})
				return
			}
			event, err := models.GetEventByID(db, id)
			if err == sql.ErrNoRows {
				utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Event not found"})
				return
			}
			if err != nil {
				log.Println("Error fetching event by ID:", err)
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching event"})
				return
			}
			utils.ResponseJSON(w, map[string]interface{}{"event": event})
			return
		}

		queryBuilder := strings.Builder{}
		queryBuilder.WriteString(`
            SELECT e.id, e.user_id, e.event_name, e.description,
            e.start_date, e.end_date, e.location,
            e.status, e.capacity, e.has_cost,
            e.created_at, e.updated_at, e.created_by
            FROM events e
            WHERE 1=1
        `)
		var args []interface{}

		if status := query.Get("status"); status != "" {
			if !models.ValidEventStatus(status) {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid status. Allowed values are: pending, approved, finalized, rejected"})
				return
			}
			queryBuilder.WriteString(" AND e.status = ?")
			args = append(args, status)
		}
		if location := query.Get("location"); location != "" {
			queryBuilder.WriteString(" AND e.location LIKE ?")
			args = append(args, "%"+location+"%")
		}
		if dateFrom := query.Get("date_from"); dateFrom != "" {
			queryBuilder.WriteString(" AND e.start_date >= ?")
			args = append(args, dateFrom)
		}
		if dateTo := query.Get("date_to"); dateTo != "" {
			queryBuilder.WriteString(" AND e.end_date <= ?")
			args = append(args, dateTo)
		}

		queryBuilder.WriteString(" ORDER BY e.start_date")

		if limit := query.Get("limit"); limit != "" {
			limitInt, err := strconv.Atoi(limit)
			if err != nil || limitInt < 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid limit format"})
				return
			}
			queryBuilder.WriteString(" LIMIT ?")
			args = append(args, limitInt)

			if offset := query.Get("offset"); offset != "" {
				offsetInt, err := strconv.Atoi(offset)
				if err != nil || offsetInt < 0 {
					utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid offset format"})
					return
				}
				queryBuilder.WriteString(" OFFSET ?")
				args = append(args, offsetInt)
			}
		}

		rows, err := db.Query(queryBuilder.String(), args...)
		if err != nil {
			log.Println("Error fetching events:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching events"})
			return
		}
		defer rows.Close()

		events := []models.Event{}
		for rows.Next() {
			var event models.Event
			var description, location, createdBy sql.NullString
			if err := rows.Scan(
				&event.ID, &event.UserID, &event.EventName, &description,
				&event.StartDate, &event.EndDate, &location,
				&event.Status, &event.Capacity, &event.HasCost,
				&event.CreatedAt, &event.UpdatedAt, &createdBy,
			); err != nil {
				log.Println("Error scanning event row:", err)
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error reading events"})
				return
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
			events = append(events, event)
		}

		utils.ResponseJSON(w, map[string]interface{}{"events": events})
	}
}

func (ec *EventController) UpdateEvent(db *sql.DB) http.HandlerFunc {
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can modify this event"})
			return
		}

		var body eventRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if body.EventName != "" {
			event.EventName = strings.TrimSpace(body.EventName)
		}
		if body.Description != "" {
			event.Description = body.Description
		}
		if body.Location != "" {
			event.Location = body.Location
		}
		if body.StartDate != "" {
			event.StartDate = body.StartDate
		}
		if body.EndDate != "" {
			event.EndDate = body.EndDate
		}
		if !parseEventDates(event.StartDate, event.EndDate) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid date format. Use YYYY-MM-DD or YYYY-MM-DD HH:MM:SS"})
			return
		}
		if body.Capacity > 0 {
			event.Capacity = body.Capacity
		}

		_, err = db.Exec(
			`UPDATE events SET event_name = ?, description = ?, location = ?,
             start_date = ?, end_date = ?, capacity = ?, has_cost = ?, updated_at = NOW()
             WHERE id = ?`,
			event.EventName, event.Description, event.Location,
			event.StartDate, event.EndDate, event.Capacity, body.HasCost, eventID,
		)
		if err != nil {
			log.Println("Error updating event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update event"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Event updated successfully"})
	}
}

func (ec *EventController) UpdateEventStatus(db *sql.DB) http.HandlerFunc {
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

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if !models.ValidEventStatus(body.Status) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid status. Allowed values are: pending, approved, finalized, rejected"})
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can modify this event"})
			return
		}

		if _, err := db.Exec("UPDATE events SET status = ?, updated_at = NOW() WHERE id = ?", body.Status, eventID); err != nil {
			log.Println("Error updating event status:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to update event status"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Event status updated successfully"})
	}
}

func (ec *EventController) DeleteEvent(db *sql.DB) http.HandlerFunc {
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can delete this event"})
			return
		}

		// Remove stored documents first; a failed object delete is logged but
		// does not keep the event row around.
		for _, slot := range []models.DocumentSlot{
			models.SlotProgramacion, models.SlotInformacionTecnica, models.SlotMemorias,
			models.SlotCertificadoFirma, models.SlotCertificadoLogo,
		} {
			if ref := event.SlotRef(slot); ref != "" {
				if err := ec.Store.Delete(ref); err != nil {
					log.Printf("Error deleting %s file for event %d: %v", slot, eventID, err)
				}
			}
		}

		if _, err := db.Exec("DELETE FROM participations WHERE event_id = ?", eventID); err != nil {
			log.Println("Error deleting participations:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete event"})
			return
		}
		if _, err := db.Exec("DELETE FROM events WHERE id = ?", eventID); err != nil {
			log.Println("Error deleting event:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to delete event"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Event deleted successfully"})
	}
}
