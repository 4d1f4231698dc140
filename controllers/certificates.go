package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/utils"

	"github.com/gorilla/mux"
)

type CertificateController struct {
	Mail *mailer.Dispatcher
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="text-align:center;font-family:serif">
{{if .LogoURL}}<img src="{{.LogoURL}}" alt="logo" style="max-height:120px"><br>{{end}}
<h1>{{.Title}}</h1>
<h2>{{.Name}}</h2>
<p>{{.Body}}</p>
<p><em>{{.EventName}}</em></p>
{{if .SignatureURL}}<img src="{{.SignatureURL}}" alt="firma" style="max-height:80px">{{end}}
</body>
</html>
`))

// RenderCertificate produces the HTML certificate attached to the email. The
// body template's {nombre} and {evento} placeholders are substituted before
// rendering; signature and logo come from the event's certificate asset slots.
func RenderCertificate(cfg models.CertificateConfig, event models.Event, name string) ([]byte, error) {
	replacer := strings.NewReplacer("{nombre}", name, "{evento}", event.EventName)
	data := struct {
		Title, Body, Name, EventName string
		SignatureURL, LogoURL        string
	}{
		Title:        replacer.Replace(cfg.Title),
		Body:         replacer.Replace(cfg.Body),
		Name:         name,
		EventName:    event.EventName,
		SignatureURL: event.CertificadoFirma,
		LogoURL:      event.CertificadoLogo,
	}
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (cc *CertificateController) SetConfig(db *sql.DB) http.HandlerFunc {
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
			RecipientType string `json:"recipient_type"`
			Title         string `json:"title"`
			Body          string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if !models.ValidRecipientType(body.RecipientType) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid recipient_type. Allowed values are: evaluator, attendee"})
			return
		}
		if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Body) == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Title and body are required"})
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can configure certificates"})
			return
		}

		_, err = db.Exec(
			`INSERT INTO certificate_configs (event_id, recipient_type, title, body, created_at, updated_at)
             VALUES (?, ?, ?, ?, NOW(), NOW())
             ON DUPLICATE KEY UPDATE title = VALUES(title), body = VALUES(body), updated_at = NOW()`,
			eventID, body.RecipientType, body.Title, body.Body,
		)
		if err != nil {
			log.Println("Error saving certificate config:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to save certificate configuration"})
			return
		}

		utils.ResponseJSON(w, map[string]string{"message": "Certificate configuration saved"})
	}
}

func (cc *CertificateController) GetConfig(db *sql.DB) http.HandlerFunc {
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
		recipientType := r.URL.Query().Get("recipient_type")
		if !models.ValidRecipientType(recipientType) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid recipient_type. Allowed values are: evaluator, attendee"})
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can view certificate configuration"})
			return
		}

		cfg, err := models.GetCertificateConfig(db, eventID, recipientType)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Certificate configuration not found"})
			return
		}
		if err != nil {
			log.Println("Error fetching certificate config:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching certificate configuration"})
			return
		}

		utils.ResponseJSON(w, cfg)
	}
}

// Send emails a rendered certificate to every approved and confirmed
// participant of the requested type. Each recipient is an independent send;
// failures are reported back without aborting the batch.
func (cc *CertificateController) Send(db *sql.DB) http.HandlerFunc {
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
			RecipientType string `json:"recipient_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if !models.ValidRecipientType(body.RecipientType) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid recipient_type. Allowed values are: evaluator, attendee"})
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
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Only the event administrator can send certificates"})
			return
		}

		cfg, err := models.GetCertificateConfig(db, eventID, body.RecipientType)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "No certificate configuration for this recipient type"})
			return
		}
		if err != nil {
			log.Println("Error fetching certificate config:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching certificate configuration"})
			return
		}

		participants, err := models.FindApprovedParticipants(db, eventID, body.RecipientType)
		if err != nil {
			log.Println("Error fetching participants:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching participants"})
			return
		}

		sent := 0
		var failures []mailer.SendFailure
		for _, p := range participants {
			if !p.Confirmed {
				continue
			}
			name := p.DisplayName()
			certificate, err := RenderCertificate(cfg, event, name)
			if err != nil {
				log.Printf("Error rendering certificate for %s: %v", p.UserEmail, err)
				failures = append(failures, mailer.SendFailure{Email: p.UserEmail, Error: err.Error()})
				continue
			}
			attachment := &mailer.Attachment{
				Filename: "certificado.html",
				MIMEType: "text/html",
				Data:     certificate,
			}
			n, fails := cc.Mail.Notify(event.EventName,
				[]mailer.Recipient{{Name: name, Email: p.UserEmail}},
				"Certificado de {evento}",
				"Hola {nombre}, adjunto encontrará su certificado del evento {evento}.",
				attachment)
			sent += n
			failures = append(failures, fails...)
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"message":  "Certificate dispatch finished",
			"sent":     sent,
			"failures": failures,
		})
	}
}
