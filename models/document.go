package models

// DocumentSlot names one of the file attachments an event carries.
type DocumentSlot string

const (
	SlotProgramacion       DocumentSlot = "programacion"
	SlotInformacionTecnica DocumentSlot = "informacion_tecnica"
	SlotMemorias           DocumentSlot = "memorias"
	SlotCertificadoFirma   DocumentSlot = "certificado_firma"
	SlotCertificadoLogo    DocumentSlot = "certificado_logo"
)

var documentSlots = []DocumentSlot{
	SlotProgramacion,
	SlotInformacionTecnica,
	SlotMemorias,
	SlotCertificadoFirma,
	SlotCertificadoLogo,
}

func ValidDocumentSlot(name string) bool {
	for _, s := range documentSlots {
		if DocumentSlot(name) == s {
			return true
		}
	}
	return false
}

// SlotRef returns the stored file reference for the given slot, empty when
// the slot has no file.
func (e *Event) SlotRef(slot DocumentSlot) string {
	switch slot {
	case SlotProgramacion:
		return e.Programacion
	case SlotInformacionTecnica:
		return e.InformacionTecnica
	case SlotMemorias:
		return e.Memorias
	case SlotCertificadoFirma:
		return e.CertificadoFirma
	case SlotCertificadoLogo:
		return e.CertificadoLogo
	}
	return ""
}

// SetSlotRef overwrites the stored reference for the given slot. The old
// reference is discarded, there is no versioning.
func (e *Event) SetSlotRef(slot DocumentSlot, ref string) {
	switch slot {
	case SlotProgramacion:
		e.Programacion = ref
	case SlotInformacionTecnica:
		e.InformacionTecnica = ref
	case SlotMemorias:
		e.Memorias = ref
	case SlotCertificadoFirma:
		e.CertificadoFirma = ref
	case SlotCertificadoLogo:
		e.CertificadoLogo = ref
	}
}
