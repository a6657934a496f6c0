package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/db/dbtest"
	"github.com/Skotchmaster/stayfinder/internal/events"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

var testSecret = []byte("test-session-secret")

type testEnv struct {
	DB     *gorm.DB
	Repo   *repo.GormRepo
	Events *events.Recorder
	Mail   *fakeMailer
	Now    time.Time
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)
	return &testEnv{
		DB:     gdb,
		Repo:   &repo.GormRepo{DB: gdb},
		Events: &events.Recorder{},
		Mail:   &fakeMailer{},
		Now:    time.Now().UTC(),
	}
}

func (e *testEnv) clock() Clock { return func() time.Time { return e.Now } }

func (e *testEnv) day(offset int) string {
	return e.Now.AddDate(0, 0, offset).Format(time.DateOnly)
}

func (e *testEnv) bookings() *BookingService {
	return &BookingService{Repo: e.Repo, Events: e.Events, Mailer: e.Mail, Clock: e.clock()}
}

func (e *testEnv) auth() *AuthService {
	return &AuthService{Repo: e.Repo, Secret: testSecret, Events: e.Events, Clock: e.clock()}
}

func (e *testEnv) listings(index ListingIndex) *ListingService {
	return &ListingService{Repo: e.Repo, Index: index, Events: e.Events}
}

func (e *testEnv) bookingRequest(listingID uint, in, out int, status string) transport.CreateBookingRequest {
	return transport.CreateBookingRequest{
		ListingID:     listingID,
		CheckInDate:   e.day(in),
		CheckOutDate:  e.day(out),
		PaymentMethod: models.PaymentCredit,
		Payment: &transport.PaymentDetails{
			CardNumber:     "4242 4242 4242 4242",
			ExpiryDate:     "12/29",
			CVV:            "123",
			CardholderName: "Ann Lee",
		},
		Status: status,
	}
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
	assert.Equal(t, code, Code(err))
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to *models.User, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to.Email, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}
