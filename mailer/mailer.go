// Package mailer composes and sends the per-recipient notification emails:
// document-change alerts, participation status updates and certificates with
// attachments.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"strings"
)

// Attachment is a single named binary part carried by a message.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Recipient is one notification target. Name may be empty, in which case the
// email address stands in for {nombre}.
type Recipient struct {
	Name  string
	Email string
}

// Sender is the mail transport. The production implementation is SMTPSender;
// tests swap in a fake.
type Sender interface {
	Send(to string, msg []byte) error
}

type SMTPSender struct {
	Host     string
	Port     string
	From     string
	Password string
}

func NewSMTPSenderFromEnv() *SMTPSender {
	return &SMTPSender{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		From:     os.Getenv("SMTP_FROM"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

func (s *SMTPSender) Send(to string, msg []byte) error {
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, msg)
}

// SendFailure records one recipient the transport rejected.
type SendFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type Dispatcher struct {
	Sender Sender
	From   string
}

func NewDispatcher(sender Sender, from string) *Dispatcher {
	return &Dispatcher{Sender: sender, From: from}
}

// Notify sends one message per recipient, substituting {nombre} and {evento}
// in both subject and body. A transport failure on one recipient never stops
// the rest; failures are collected and returned alongside the sent count.
// Already-sent messages are not rolled back.
func (d *Dispatcher) Notify(eventName string, recipients []Recipient, subjectTmpl, bodyTmpl string, attachment *Attachment) (int, []SendFailure) {
	sent := 0
	var failures []SendFailure

	for _, r := range recipients {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = r.Email
		}
		replacer := strings.NewReplacer("{nombre}", name, "{evento}", eventName)
		subject := replacer.Replace(subjectTmpl)
		body := replacer.Replace(bodyTmpl)

		msg := BuildMessage(d.From, r.Email, subject, body, attachment)
		if err := d.Sender.Send(r.Email, msg); err != nil {
			log.Printf("Error sending email to %s: %v", r.Email, err)
			failures = append(failures, SendFailure{Email: r.Email, Error: err.Error()})
			continue
		}
		sent++
	}
	return sent, failures
}

// BuildMessage assembles the raw RFC 822 message. Without an attachment it is
// a plain text message; with one it becomes multipart/mixed with the
// attachment base64-encoded as its own named part.
func BuildMessage(from, to, subject, body string, attachment *Attachment) []byte {
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")

	if attachment == nil {
		buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
		buf.WriteString("\r\n" + body + "\r\n")
		return buf.Bytes()
	}

	var payload bytes.Buffer
	mw := multipart.NewWriter(&payload)

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=\"utf-8\"")
	textPart, _ := mw.CreatePart(textHeader)
	fmt.Fprint(textPart, body)

	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", attachment.MIMEType)
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	attPart, _ := mw.CreatePart(attHeader)
	writeBase64(attPart, attachment.Data)

	mw.Close()

	buf.WriteString("Content-Type: multipart/mixed; boundary=" + mw.Boundary() + "\r\n")
	buf.WriteString("\r\n")
	buf.Write(payload.Bytes())
	return buf.Bytes()
}

// writeBase64 encodes data wrapped at 76 columns as SMTP expects.
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		io.WriteString(w, encoded[:76]+"\r\n")
		encoded = encoded[76:]
	}
	io.WriteString(w, encoded+"\r\n")
}
