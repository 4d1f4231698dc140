package controllers

import (
	"strings"
	"testing"

	"eventsoft/models"
)

func TestRenderCertificateSubstitutesPlaceholders(t *testing.T) {
	cfg := models.CertificateConfig{
		EventID:       7,
		RecipientType: models.RoleEvaluator,
		Title:         "Certificado de Evaluación",
		Body:          "Se certifica que {nombre} participó como evaluador en {evento}.",
	}
	event := models.Event{
		ID: 7, EventName: "Congreso de Sistemas",
		CertificadoFirma: "https://bucket.s3.us-east-1.amazonaws.com/events/7/certificado_firma/firma.png",
		CertificadoLogo:  "https://bucket.s3.us-east-1.amazonaws.com/events/7/certificado_logo/logo.png",
	}

	out, err := RenderCertificate(cfg, event, "Eva Luna")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"Se certifica que Eva Luna participó como evaluador en Congreso de Sistemas.",
		"Certificado de Evaluación",
		"firma.png",
		"logo.png",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("certificate missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "{nombre}") || strings.Contains(html, "{evento}") {
		t.Error("placeholders left unsubstituted")
	}
}

func TestRenderCertificateWithoutAssets(t *testing.T) {
	cfg := models.CertificateConfig{Title: "Certificado", Body: "Participó en {evento}."}
	event := models.Event{ID: 7, EventName: "Congreso"}

	out, err := RenderCertificate(cfg, event, "Eva")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(string(out), "<img") {
		t.Error("no image tags expected when the event has no certificate assets")
	}
}
