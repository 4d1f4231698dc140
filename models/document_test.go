package models

import "testing"

func TestValidDocumentSlot(t *testing.T) {
	for _, name := range []string{"programacion", "informacion_tecnica", "memorias", "certificado_firma", "certificado_logo"} {
		if !ValidDocumentSlot(name) {
			t.Errorf("%s should be a recognized slot", name)
		}
	}
	for _, name := range []string{"", "fotos", "PROGRAMACION", "schedule"} {
		if ValidDocumentSlot(name) {
			t.Errorf("%q should not be a recognized slot", name)
		}
	}
}

func TestSlotRefRoundTrip(t *testing.T) {
	var e Event
	e.SetSlotRef(SlotMemorias, "https://bucket/events/1/memorias/m.pdf")
	if e.Memorias != "https://bucket/events/1/memorias/m.pdf" {
		t.Error("SetSlotRef did not write the memorias column")
	}
	if got := e.SlotRef(SlotMemorias); got != e.Memorias {
		t.Errorf("SlotRef returned %q", got)
	}
	if got := e.SlotRef(SlotProgramacion); got != "" {
		t.Errorf("empty slot should read as empty, got %q", got)
	}

	// Replacing overwrites, never appends.
	e.SetSlotRef(SlotMemorias, "https://bucket/events/1/memorias/m2.pdf")
	if got := e.SlotRef(SlotMemorias); got != "https://bucket/events/1/memorias/m2.pdf" {
		t.Errorf("replacement not visible, got %q", got)
	}
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	u := User{Email: "solo@example.com"}
	if u.DisplayName() != "solo@example.com" {
		t.Errorf("got %q", u.DisplayName())
	}
	u.FirstName = "Ana"
	u.LastName = "Ruiz"
	if u.DisplayName() != "Ana Ruiz" {
		t.Errorf("got %q", u.DisplayName())
	}
}
