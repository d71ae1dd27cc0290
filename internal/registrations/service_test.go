package registrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/internal/tokens"
)

type fakeEventStore struct {
	event *models.Event
	err   error
}

func (f *fakeEventStore) GetActive(ctx context.Context, id int64) (*models.Event, error) {
	return f.event, f.err
}

type fakeStore struct {
	er   *models.EventRegistration
	err  error
	got  CreateParams
	hits int
}

func (f *fakeStore) CreatePair(ctx context.Context, p CreateParams) (*models.EventRegistration, error) {
	f.got = p
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	if f.er != nil {
		return f.er, nil
	}
	return &models.EventRegistration{
		ID:             11,
		RegistrationID: 21,
		UserID:         p.UserID,
		EventID:        p.EventID,
		Status:         p.Status,
		PaymentStatus:  p.PaymentStatus,
		PaymentAmount:  p.PaymentAmount,
		PaymentMethod:  p.PaymentMethod,
	}, nil
}

type fakeIssuer struct {
	tok  *models.AttendanceToken
	err  error
	got  tokens.IssueParams
	hits int
}

func (f *fakeIssuer) Issue(ctx context.Context, p tokens.IssueParams) (*models.AttendanceToken, error) {
	f.got = p
	f.hits++
	return f.tok, f.err
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func freeEvent() *models.Event {
	return &models.Event{
		ID:        7,
		Title:     "Seminar Nasional",
		EventDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EventTime: "09:00:00",
		IsFree:    true,
		IsActive:  true,
		Status:    models.EventStatusPublished,
	}
}

func paidEvent() *models.Event {
	e := freeEvent()
	e.IsFree = false
	e.Price = 150000
	return e
}

func newTestService(events EventStore, store Store, issuer TokenIssuer) *Service {
	s := NewService(events, store, issuer, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func validInput() RegisterInput {
	return RegisterInput{
		UserID:   3,
		EventID:  7,
		FullName: "Budi Santoso",
		Email:    "budi@example.com",
	}
}

func TestRegisterEventNotFound(t *testing.T) {
	svc := newTestService(&fakeEventStore{err: errors.New("no rows")}, &fakeStore{}, &fakeIssuer{})
	if _, err := svc.Register(context.Background(), validInput()); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("Register() error = %v, want ErrEventNotFound", err)
	}
}

func TestRegisterClosedWindow(t *testing.T) {
	event := freeEvent()
	event.EventDate = testNow.Truncate(24 * time.Hour)
	event.EventTime = "12:30:00" // starts in 30 minutes

	svc := newTestService(&fakeEventStore{event: event}, &fakeStore{}, &fakeIssuer{})
	if _, err := svc.Register(context.Background(), validInput()); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("Register() error = %v, want ErrRegistrationClosed", err)
	}
}

func TestRegisterDateOverride(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeEventStore{event: freeEvent()}, store, &fakeIssuer{tok: &models.AttendanceToken{Token: "ABCDEFGH"}})

	in := validInput()
	in.EventDate = "not-a-date"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("Register() error = %v, want ErrInvalidDate", err)
	}

	// override moves the start inside the closing window
	in.EventDate = testNow.Format("2006-01-02")
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("Register() error = %v, want ErrRegistrationClosed", err)
	}
	if store.hits != 0 {
		t.Errorf("CreatePair called %d times before validation passed", store.hits)
	}
}

func TestRegisterFreeValidation(t *testing.T) {
	svc := newTestService(&fakeEventStore{event: freeEvent()}, &fakeStore{}, &fakeIssuer{})

	in := validInput()
	in.FullName = " a "
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Register() error = %v, want ErrInvalidName", err)
	}

	in = validInput()
	in.Email = "not-an-email"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("Register() error = %v, want ErrInvalidEmail", err)
	}
}

func TestRegisterFreeDerivation(t *testing.T) {
	store := &fakeStore{}
	expires := testNow.Add(48 * time.Hour)
	issuer := &fakeIssuer{tok: &models.AttendanceToken{Token: "QWERTY23", ExpiresAt: expires}}
	svc := newTestService(&fakeEventStore{event: freeEvent()}, store, issuer)

	er, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if store.got.Status != models.RegistrationStatusApproved {
		t.Errorf("status = %q, want approved", store.got.Status)
	}
	if store.got.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("payment status = %q, want paid", store.got.PaymentStatus)
	}
	if store.got.PaymentMethod != "cash" {
		t.Errorf("payment method = %q, want cash", store.got.PaymentMethod)
	}
	if store.got.PaymentAmount != 0 {
		t.Errorf("amount = %d, want 0", store.got.PaymentAmount)
	}
	if !store.got.AttendanceRequired {
		t.Error("attendance_required not set")
	}
	if issuer.hits != 1 {
		t.Fatalf("token issued %d times, want 1", issuer.hits)
	}
	if issuer.got.RegistrationID != 21 {
		t.Errorf("token issued for primary id %d, want 21", issuer.got.RegistrationID)
	}
	if er.Token == nil || *er.Token != "QWERTY23" {
		t.Errorf("token not attached to response: %v", er.Token)
	}
	if er.TokenExpiresAt == nil || !er.TokenExpiresAt.Equal(expires) {
		t.Errorf("token expiry not attached: %v", er.TokenExpiresAt)
	}
}

func TestRegisterPaidDerivation(t *testing.T) {
	store := &fakeStore{}
	issuer := &fakeIssuer{}
	svc := newTestService(&fakeEventStore{event: paidEvent()}, store, issuer)

	in := validInput()
	in.PaymentMethod = ""
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if store.got.Status != models.RegistrationStatusPending {
		t.Errorf("status = %q, want pending", store.got.Status)
	}
	if store.got.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("payment status = %q, want pending", store.got.PaymentStatus)
	}
	if store.got.PaymentMethod != "midtrans" {
		t.Errorf("payment method = %q, want midtrans default", store.got.PaymentMethod)
	}
	if store.got.PaymentAmount != 150000 {
		t.Errorf("amount = %d, want event price", store.got.PaymentAmount)
	}
	if issuer.hits != 0 {
		t.Errorf("token issued %d times for pending registration, want 0", issuer.hits)
	}
}

func TestRegisterStoreErrors(t *testing.T) {
	for _, sentinel := range []error{ErrAlreadyRegistered, ErrEventFull} {
		svc := newTestService(&fakeEventStore{event: freeEvent()}, &fakeStore{err: sentinel}, &fakeIssuer{})
		if _, err := svc.Register(context.Background(), validInput()); !errors.Is(err, sentinel) {
			t.Errorf("Register() error = %v, want %v", err, sentinel)
		}
	}
}

func TestRegisterTokenFailureNotFatal(t *testing.T) {
	issuer := &fakeIssuer{err: errors.New("redis down")}
	svc := newTestService(&fakeEventStore{event: freeEvent()}, &fakeStore{}, issuer)

	er, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v, registration must survive token failure", err)
	}
	if er.Token != nil {
		t.Error("token attached despite issue failure")
	}
}
