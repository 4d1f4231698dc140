package controllers

import (
	"bytes"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/storage"
	"eventsoft/utils"

	"github.com/gorilla/mux"
)

type fakeSource struct {
	event        models.Event
	users        map[int]models.User
	parts        map[int]*models.Participation // keyed by user id
	participants []models.Participation
}

func (f *fakeSource) EventByID(id int) (models.Event, error) {
	if id != f.event.ID {
		return models.Event{}, sql.ErrNoRows
	}
	return f.event, nil
}

func (f *fakeSource) UserByID(id int) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeSource) ParticipationFor(userID, eventID int) (*models.Participation, error) {
	p, ok := f.parts[userID]
	if !ok || p.EventID != eventID {
		return nil, nil
	}
	return p, nil
}

func (f *fakeSource) ApprovedParticipants(eventID int) ([]models.Participation, error) {
	return f.participants, nil
}

func (f *fakeSource) SetSlot(eventID int, slot models.DocumentSlot, ref string) error {
	f.event.SetSlotRef(slot, ref)
	return nil
}

type recordingSender struct {
	sent []string
	to   []string
}

func (r *recordingSender) Send(to string, msg []byte) error {
	r.to = append(r.to, to)
	r.sent = append(r.sent, string(msg))
	return nil
}

// countingStore wraps a FileStore and counts Open calls, so tests can assert
// the deny path never touches file I/O.
type countingStore struct {
	storage.FileStore
	opens int
}

func (c *countingStore) Open(fileURL string) (io.ReadCloser, error) {
	c.opens++
	return c.FileStore.Open(fileURL)
}

func bearerFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("could not mint token: %v", err)
	}
	return "Bearer " + token
}

func newDocumentFixture(t *testing.T) (*DocumentController, *fakeSource, *storage.MemoryStore, *recordingSender) {
	t.Helper()
	t.Setenv("SECRET", "test-secret")

	source := &fakeSource{
		event: models.Event{ID: 7, UserID: 1, EventName: "Congreso de Sistemas", Status: models.EventStatusApproved},
		users: map[int]models.User{
			1: {ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
			5: {ID: 5, Email: "eva@example.com", FirstName: "Eva", LastName: "Luna", Role: models.RoleEvaluator},
			9: {ID: 9, Email: "stranger@example.com", Role: models.RoleAttendee},
		},
		parts: map[int]*models.Participation{
			5: {ID: 10, EventID: 7, UserID: 5, Role: models.RoleEvaluator, Status: models.ParticipationApproved, Confirmed: true},
		},
		participants: []models.Participation{
			{ID: 10, EventID: 7, UserID: 5, Role: models.RoleEvaluator, Status: models.ParticipationApproved,
				UserFirstName: "Eva", UserLastName: "Luna", UserEmail: "eva@example.com", EventName: "Congreso de Sistemas"},
		},
	}
	store := storage.NewMemoryStore()
	sender := &recordingSender{}
	dc := &DocumentController{
		Source: source,
		Store:  store,
		Mail:   mailer.NewDispatcher(sender, "eventos@eventsoft.co"),
	}
	return dc, source, store, sender
}

func uploadRequest(t *testing.T, auth, slot, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/events/7/documents/"+slot, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", auth)
	return mux.SetURLVars(req, map[string]string{"id": "7", "slot": slot})
}

func TestUploadReplacesSlotInPlace(t *testing.T) {
	dc, source, store, _ := newDocumentFixture(t)
	admin := bearerFor(t, source.users[1])

	rec := httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, admin, "programacion", "programa_v1.pdf", []byte("first")))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload failed: %d %s", rec.Code, rec.Body.String())
	}
	firstRef := source.event.Programacion
	if firstRef == "" {
		t.Fatal("slot reference not set after first upload")
	}

	rec = httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, admin, "programacion", "programa_v2.pdf", []byte("second")))
	if rec.Code != http.StatusOK {
		t.Fatalf("second upload failed: %d %s", rec.Code, rec.Body.String())
	}

	secondRef := source.event.Programacion
	if secondRef == firstRef {
		t.Fatal("slot reference should point at the replacement file")
	}
	if exists, _ := store.Exists(firstRef); exists {
		t.Error("previous file should be deleted after replacement")
	}
	rc, err := store.Open(secondRef)
	if err != nil {
		t.Fatalf("replacement file missing: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "second" {
		t.Errorf("slot holds %q, want the replacement content", data)
	}
}

func TestUploadNotifiesApprovedParticipants(t *testing.T) {
	dc, source, _, sender := newDocumentFixture(t)
	admin := bearerFor(t, source.users[1])

	rec := httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, admin, "informacion_tecnica", "info.pdf", []byte("detalles tecnicos")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sender.sent))
	}
	if sender.to[0] != "eva@example.com" {
		t.Errorf("notified %s, want the approved evaluator", sender.to[0])
	}
	if !strings.Contains(sender.sent[0], "Congreso de Sistemas") {
		t.Error("notification missing the event name")
	}
	if !strings.Contains(sender.sent[0], "Eva Luna") {
		t.Error("notification missing the recipient's display name")
	}
}

func TestUploadCertificateAssetSendsNoNotification(t *testing.T) {
	dc, source, _, sender := newDocumentFixture(t)
	admin := bearerFor(t, source.users[1])

	rec := httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, admin, "certificado_logo", "logo.png", []byte{0x89, 0x50}))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 0 {
		t.Errorf("certificate asset replacement should not notify, sent %d", len(sender.sent))
	}
}

func TestUploadRejectsUnknownSlot(t *testing.T) {
	dc, source, _, _ := newDocumentFixture(t)
	admin := bearerFor(t, source.users[1])

	rec := httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, admin, "fotos", "foto.jpg", []byte("x")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown slot should be rejected with 400, got %d", rec.Code)
	}
}

func TestUploadForbiddenForNonOwner(t *testing.T) {
	dc, source, _, _ := newDocumentFixture(t)
	evaluator := bearerFor(t, source.users[5])

	rec := httptest.NewRecorder()
	dc.Upload()(rec, uploadRequest(t, evaluator, "programacion", "programa.pdf", []byte("x")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner upload should be 403, got %d", rec.Code)
	}
}

func downloadRequest(t *testing.T, auth, slot string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("GET", "/events/7/documents/"+slot, nil)
	req.Header.Set("Authorization", auth)
	return mux.SetURLVars(req, map[string]string{"id": "7"})
}

func TestDownloadReturnsStoredBytes(t *testing.T) {
	dc, source, store, _ := newDocumentFixture(t)
	content := []byte("memorias del congreso 2026")
	ref, err := store.Save("events/7/memorias/memorias_2026.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	source.event.Memorias = ref

	rec := httptest.NewRecorder()
	dc.Download(models.SlotMemorias)(rec, downloadRequest(t, bearerFor(t, source.users[5]), "memorias"))

	if rec.Code != http.StatusOK {
		t.Fatalf("download failed: %d %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Error("downloaded bytes differ from stored content")
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "memorias_2026.pdf") {
		t.Errorf("Content-Disposition missing the original filename: %q", disposition)
	}
}

func TestDownloadDeniedBeforeFileIO(t *testing.T) {
	dc, source, store, _ := newDocumentFixture(t)
	ref, _ := store.Save("events/7/memorias/memorias.pdf", bytes.NewReader([]byte("secret")))
	source.event.Memorias = ref

	counting := &countingStore{FileStore: store}
	dc.Store = counting

	rec := httptest.NewRecorder()
	dc.Download(models.SlotMemorias)(rec, downloadRequest(t, bearerFor(t, source.users[9]), "memorias"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger download should be 403, got %d", rec.Code)
	}
	if counting.opens != 0 {
		t.Error("deny path must not open the stored file")
	}
}

func TestDownloadMissingFileIsNotFoundNotForbidden(t *testing.T) {
	dc, source, _, _ := newDocumentFixture(t)
	// Entitled evaluator, but nothing uploaded yet.
	rec := httptest.NewRecorder()
	dc.Download(models.SlotInformacionTecnica)(rec, downloadRequest(t, bearerFor(t, source.users[5]), "informacion_tecnica"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("missing document should be 404, got %d", rec.Code)
	}
}

func TestDownloadRequiresAuthentication(t *testing.T) {
	dc, _, _, _ := newDocumentFixture(t)
	req := httptest.NewRequest("GET", "/events/7/documents/memorias", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})

	rec := httptest.NewRecorder()
	dc.Download(models.SlotMemorias)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token should be 401, got %d", rec.Code)
	}
}
