// Package policy decides who may read or replace an event's document slots.
// It is a pure predicate over data already loaded by the caller; it never
// touches the database or the blob store.
package policy

import (
	"eventsoft/models"
)

// CanAccess reports whether user may read the given document slot of event.
// participation is the user's record for the event, nil when they have none.
//
// The event's own lifecycle status never factors in: eligibility comes from
// the participation record alone.
func CanAccess(user models.User, event models.Event, participation *models.Participation, slot models.DocumentSlot) bool {
	if user.ID == event.UserID {
		return true
	}
	if participation == nil {
		return false
	}
	if participation.EventID != event.ID || participation.UserID != user.ID {
		return false
	}
	if participation.Status != models.ParticipationApproved {
		return false
	}

	switch slot {
	case models.SlotProgramacion:
		return true
	case models.SlotInformacionTecnica:
		return participation.Role == models.RoleEvaluator
	case models.SlotMemorias:
		return participation.Confirmed
	case models.SlotCertificadoFirma, models.SlotCertificadoLogo:
		// Certificate assets are consumed at render time, owner only.
		return false
	}
	return false
}

// CanReplace reports whether user may overwrite a document slot. Only the
// owning administrator writes; participants never do, whatever their status.
func CanReplace(user models.User, event models.Event, slot models.DocumentSlot) bool {
	if !models.ValidDocumentSlot(string(slot)) {
		return false
	}
	return user.ID == event.UserID
}
