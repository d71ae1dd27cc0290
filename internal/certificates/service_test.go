package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventia/backend/internal/models"
)

type fakeEventStore struct {
	event *models.Event
	err   error
}

func (f *fakeEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return f.event, f.err
}

type fakeRegStore struct {
	operational *models.EventRegistration
	primary     *models.Registration
	eligible    []models.EventRegistration
	opErr       error
}

func (f *fakeRegStore) GetOperationalForEvent(ctx context.Context, id, eventID int64) (*models.EventRegistration, error) {
	if f.opErr != nil {
		return nil, f.opErr
	}
	return f.operational, nil
}

func (f *fakeRegStore) GetPrimaryByID(ctx context.Context, id int64) (*models.Registration, error) {
	return f.primary, nil
}

func (f *fakeRegStore) ListEligibleForCertificate(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	return f.eligible, nil
}

type fakeTemplateStore struct {
	tmpl *models.CertificateTemplate
}

func (f *fakeTemplateStore) GetActiveTemplate(ctx context.Context) (*models.CertificateTemplate, error) {
	return f.tmpl, nil
}

type fakeCertStore struct {
	got  *models.Certificate
	err  error
	hits int
}

func (f *fakeCertStore) Upsert(ctx context.Context, cert *models.Certificate) error {
	f.got = cert
	f.hits++
	cert.ID = 99
	return f.err
}

type fakeEnsurer struct {
	id   int64
	err  error
	hits int
}

func (f *fakeEnsurer) Ensure(ctx context.Context, userID, eventID, primaryRegistrationID int64) (int64, error) {
	f.hits++
	return f.id, f.err
}

func certEvent() *models.Event {
	return &models.Event{
		ID:             7,
		Title:          "Seminar Nasional",
		City:           "Bandung",
		OrganizerName:  "Himpunan Mahasiswa",
		EventDate:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		HasCertificate: true,
	}
}

func certRegistration() *models.EventRegistration {
	return &models.EventRegistration{
		ID:             11,
		RegistrationID: 21,
		UserID:         3,
		EventID:        7,
		Status:         models.RegistrationStatusAttended,
	}
}

func certPrimary() *models.Registration {
	return &models.Registration{
		ID:       21,
		UserID:   3,
		EventID:  7,
		FullName: "Budi Santoso",
		Email:    "budi@example.com",
	}
}

func newTestCertService(events EventStore, regs RegistrationStore, templates TemplateStore, store Store, ensurer AttendanceEnsurer) *Service {
	s := NewService(events, regs, templates, store, ensurer, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestGenerateEventGuards(t *testing.T) {
	svc := newTestCertService(&fakeEventStore{err: errors.New("no rows")}, &fakeRegStore{},
		&fakeTemplateStore{}, &fakeCertStore{}, &fakeEnsurer{})
	if _, err := svc.Generate(context.Background(), 7, 11); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("Generate() error = %v, want ErrEventNotFound", err)
	}

	noCert := certEvent()
	noCert.HasCertificate = false
	svc = newTestCertService(&fakeEventStore{event: noCert}, &fakeRegStore{},
		&fakeTemplateStore{}, &fakeCertStore{}, &fakeEnsurer{})
	if _, err := svc.Generate(context.Background(), 7, 11); !errors.Is(err, ErrNoCertificate) {
		t.Fatalf("Generate() error = %v, want ErrNoCertificate", err)
	}

	svc = newTestCertService(&fakeEventStore{event: certEvent()}, &fakeRegStore{opErr: errors.New("no rows")},
		&fakeTemplateStore{}, &fakeCertStore{}, &fakeEnsurer{})
	if _, err := svc.Generate(context.Background(), 7, 11); !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("Generate() error = %v, want ErrRegistrationNotFound", err)
	}
}

func TestGenerate(t *testing.T) {
	regs := &fakeRegStore{operational: certRegistration(), primary: certPrimary()}
	store := &fakeCertStore{}
	ensurer := &fakeEnsurer{id: 55}
	svc := newTestCertService(&fakeEventStore{event: certEvent()}, regs, &fakeTemplateStore{}, store, ensurer)

	res, err := svc.Generate(context.Background(), 7, 11)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ensurer.hits != 1 {
		t.Errorf("Ensure called %d times, want 1", ensurer.hits)
	}
	if store.got.AttendanceRecordID != 55 {
		t.Errorf("attendance_record_id = %d, want 55", store.got.AttendanceRecordID)
	}
	if !strings.HasPrefix(store.got.CertificateNumber, "EVT-0007-0003-") {
		t.Errorf("certificate number = %q", store.got.CertificateNumber)
	}
	if res.Placeholders[PlaceholderParticipantName] != "Budi Santoso" {
		t.Errorf("participant name placeholder = %q", res.Placeholders[PlaceholderParticipantName])
	}
	if res.Placeholders[PlaceholderEventDate] != "10 March 2026" {
		t.Errorf("event date placeholder = %q", res.Placeholders[PlaceholderEventDate])
	}
	if res.Placeholders[PlaceholderIssueDate] != "15 March 2026" {
		t.Errorf("issue date placeholder = %q", res.Placeholders[PlaceholderIssueDate])
	}

	// default template kicks in when none is active
	if !strings.Contains(res.Rendered.Content, "Budi Santoso") || !strings.Contains(res.Rendered.Content, "Seminar Nasional") {
		t.Errorf("rendered content = %q", res.Rendered.Content)
	}

	var snapshot struct {
		Rendered     Rendered          `json:"rendered"`
		Placeholders map[string]string `json:"placeholders"`
	}
	if err := json.Unmarshal(store.got.TemplateData, &snapshot); err != nil {
		t.Fatalf("template_data not valid JSON: %v", err)
	}
	if snapshot.Placeholders[PlaceholderNumber] != store.got.CertificateNumber {
		t.Errorf("snapshot number = %q, want %q", snapshot.Placeholders[PlaceholderNumber], store.got.CertificateNumber)
	}
}

func TestGenerateCustomTemplate(t *testing.T) {
	regs := &fakeRegStore{operational: certRegistration(), primary: certPrimary()}
	tmpl := &models.CertificateTemplate{Content: "Kepada [NAMA_PESERTA] dari [PENYELENGGARA]"}
	svc := newTestCertService(&fakeEventStore{event: certEvent()}, regs,
		&fakeTemplateStore{tmpl: tmpl}, &fakeCertStore{}, &fakeEnsurer{id: 55})

	res, err := svc.Generate(context.Background(), 7, 11)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Rendered.Content != "Kepada Budi Santoso dari Himpunan Mahasiswa" {
		t.Errorf("rendered content = %q", res.Rendered.Content)
	}
}

func TestGenerateBulkCollectsFailures(t *testing.T) {
	regs := &fakeRegStore{
		operational: certRegistration(),
		primary:     certPrimary(),
		eligible: []models.EventRegistration{
			{ID: 11, UserID: 3},
			{ID: 12, UserID: 4},
		},
	}
	ensurer := &fakeEnsurer{err: errors.New("db down")}
	svc := newTestCertService(&fakeEventStore{event: certEvent()}, regs,
		&fakeTemplateStore{}, &fakeCertStore{}, ensurer)

	items, err := svc.GenerateBulk(context.Background(), 7)
	if err != nil {
		t.Fatalf("GenerateBulk() error = %v, per-item failures must not abort", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Error == "" {
			t.Errorf("item %d missing error", item.RegistrationID)
		}
	}
}
