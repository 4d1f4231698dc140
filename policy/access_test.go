package policy

import (
	"testing"

	"eventsoft/models"
)

func testEvent() models.Event {
	return models.Event{ID: 7, UserID: 1, EventName: "Congreso de Sistemas", Status: models.EventStatusApproved}
}

func TestNoParticipationDeniesEverySlot(t *testing.T) {
	event := testEvent()
	stranger := models.User{ID: 99, Email: "stranger@example.com"}

	slots := []models.DocumentSlot{
		models.SlotProgramacion,
		models.SlotInformacionTecnica,
		models.SlotMemorias,
		models.SlotCertificadoFirma,
		models.SlotCertificadoLogo,
	}
	for _, slot := range slots {
		if CanAccess(stranger, event, nil, slot) {
			t.Errorf("expected deny for %s with no participation record", slot)
		}
	}
}

func TestOwnerAccessesEverySlot(t *testing.T) {
	event := testEvent()
	owner := models.User{ID: 1, Role: models.RoleAdmin}

	for _, slot := range []models.DocumentSlot{
		models.SlotProgramacion,
		models.SlotInformacionTecnica,
		models.SlotMemorias,
		models.SlotCertificadoFirma,
		models.SlotCertificadoLogo,
	} {
		if !CanAccess(owner, event, nil, slot) {
			t.Errorf("expected owner access to %s", slot)
		}
	}
}

func TestApprovedEvaluatorEntitlements(t *testing.T) {
	event := testEvent()
	evaluator := models.User{ID: 5, Role: models.RoleEvaluator}
	part := &models.Participation{
		ID: 10, EventID: event.ID, UserID: evaluator.ID,
		Role: models.RoleEvaluator, Status: models.ParticipationApproved,
	}

	if !CanAccess(evaluator, event, part, models.SlotProgramacion) {
		t.Error("approved evaluator should read programacion")
	}
	if !CanAccess(evaluator, event, part, models.SlotInformacionTecnica) {
		t.Error("approved evaluator should read informacion_tecnica")
	}
	if CanAccess(evaluator, event, part, models.SlotMemorias) {
		t.Error("unconfirmed evaluator should not read memorias")
	}
	part.Confirmed = true
	if !CanAccess(evaluator, event, part, models.SlotMemorias) {
		t.Error("confirmed evaluator should read memorias")
	}
	if CanAccess(evaluator, event, part, models.SlotCertificadoFirma) {
		t.Error("certificate assets are owner-only")
	}
}

func TestAttendeeNeverReadsTechnicalInfo(t *testing.T) {
	event := testEvent()
	attendee := models.User{ID: 6, Role: models.RoleAttendee}
	part := &models.Participation{
		ID: 11, EventID: event.ID, UserID: attendee.ID,
		Role: models.RoleAttendee, Status: models.ParticipationApproved, Confirmed: true,
	}

	if !CanAccess(attendee, event, part, models.SlotProgramacion) {
		t.Error("approved attendee should read programacion")
	}
	if !CanAccess(attendee, event, part, models.SlotMemorias) {
		t.Error("confirmed attendee should read memorias")
	}
	if CanAccess(attendee, event, part, models.SlotInformacionTecnica) {
		t.Error("attendee must never read informacion_tecnica")
	}
}

func TestPendingAndRejectedAreDenied(t *testing.T) {
	event := testEvent()
	user := models.User{ID: 5, Role: models.RoleEvaluator}

	for _, status := range []string{models.ParticipationPending, models.ParticipationRejected, models.ParticipationFinalized} {
		part := &models.Participation{
			EventID: event.ID, UserID: user.ID,
			Role: models.RoleEvaluator, Status: status, Confirmed: true,
		}
		if CanAccess(user, event, part, models.SlotProgramacion) {
			t.Errorf("status %s should deny access", status)
		}
	}
}

func TestEventStatusDoesNotGateAccess(t *testing.T) {
	evaluator := models.User{ID: 5, Role: models.RoleEvaluator}

	for _, status := range []string{models.EventStatusPending, models.EventStatusApproved, models.EventStatusFinalized} {
		event := testEvent()
		event.Status = status
		part := &models.Participation{
			EventID: event.ID, UserID: evaluator.ID,
			Role: models.RoleEvaluator, Status: models.ParticipationApproved,
		}
		if !CanAccess(evaluator, event, part, models.SlotInformacionTecnica) {
			t.Errorf("event status %s should not gate an approved evaluator", status)
		}
	}
}

func TestMismatchedRecordIsDenied(t *testing.T) {
	event := testEvent()
	user := models.User{ID: 5}
	// Record for a different event entirely.
	part := &models.Participation{
		EventID: 42, UserID: user.ID,
		Role: models.RoleEvaluator, Status: models.ParticipationApproved,
	}
	if CanAccess(user, event, part, models.SlotProgramacion) {
		t.Error("participation for another event must not grant access")
	}
}

func TestReplaceIsOwnerOnly(t *testing.T) {
	event := testEvent()
	owner := models.User{ID: 1, Role: models.RoleAdmin}
	evaluator := models.User{ID: 5, Role: models.RoleEvaluator}

	if !CanReplace(owner, event, models.SlotProgramacion) {
		t.Error("owner should replace programacion")
	}
	if CanReplace(evaluator, event, models.SlotInformacionTecnica) {
		t.Error("evaluator must never replace a slot")
	}
	if CanReplace(owner, event, models.DocumentSlot("fotos")) {
		t.Error("unknown slot name must be rejected")
	}
}
