package jobs

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stayfinder/internal/config"
	"github.com/Skotchmaster/stayfinder/internal/db/dbtest"
	"github.com/Skotchmaster/stayfinder/internal/events"
	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/service"
)

var now = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

func TestPurgeExpiredSessions(t *testing.T) {
	gdb := dbtest.New(t)
	u := dbtest.SeedUser(t, gdb, "ann@example.com", models.RoleRenter)

	oldRevoke := now.Add(-48 * time.Hour)
	freshRevoke := now.Add(-time.Hour)
	sessions := []models.Session{
		{UserID: u.ID, TokenHash: "a", JTI: "a", ExpiresAt: now.Add(-time.Minute)},
		{UserID: u.ID, TokenHash: "b", JTI: "b", ExpiresAt: now.Add(time.Hour), Revoked: true, RevokedAt: &oldRevoke},
		{UserID: u.ID, TokenHash: "c", JTI: "c", ExpiresAt: now.Add(time.Hour), Revoked: true, RevokedAt: &freshRevoke},
		{UserID: u.ID, TokenHash: "d", JTI: "d", ExpiresAt: now.Add(time.Hour)},
	}
	require.NoError(t, gdb.Create(&sessions).Error)

	var buf bytes.Buffer
	jr := NewJobRunner(&repo.GormRepo{DB: gdb}, nil, logging.NewWithWriter(&buf, "info", "json"), func() time.Time { return now })
	jr.PurgeExpiredSessions()

	var left []string
	require.NoError(t, gdb.Model(&models.Session{}).Order("jti").Pluck("jti", &left).Error)
	assert.Equal(t, []string{"c", "d"}, left)
	assert.Contains(t, buf.String(), `"job":"purge_expired_sessions"`)
	assert.Contains(t, buf.String(), `"count":2`)
}

func TestReleaseFinishedStays(t *testing.T) {
	gdb := dbtest.New(t)
	u := dbtest.SeedUser(t, gdb, "ann@example.com", models.RoleRenter)
	done := dbtest.SeedListing(t, gdb, u.ID, "Finished stay cabin", 10000)
	ongoing := dbtest.SeedListing(t, gdb, u.ID, "Ongoing stay cabin", 10000)
	require.NoError(t, gdb.Model(&models.Listing{}).Where("id IN ?", []uint{done.ID, ongoing.ID}).
		Update("status", models.ListingBooked).Error)

	bookings := []models.Booking{
		{ListingID: done.ID, UserID: u.ID, CheckInDate: now.AddDate(0, 0, -5), CheckOutDate: now.AddDate(0, 0, -1),
			NumNights: 4, Status: models.BookingConfirmed, PaymentMethod: models.PaymentCredit},
		{ListingID: ongoing.ID, UserID: u.ID, CheckInDate: now.AddDate(0, 0, -1), CheckOutDate: now.AddDate(0, 0, 2),
			NumNights: 3, Status: models.BookingConfirmed, PaymentMethod: models.PaymentCredit},
	}
	require.NoError(t, gdb.Omit("Listing").Create(&bookings).Error)

	store := &repo.GormRepo{DB: gdb}
	rec := &events.Recorder{}
	listings := &service.ListingService{Repo: store, Events: rec}

	var buf bytes.Buffer
	jr := NewJobRunner(store, listings, logging.NewWithWriter(&buf, "info", "json"), func() time.Time { return now })
	jr.ReleaseFinishedStays()

	var got models.Listing
	require.NoError(t, gdb.First(&got, done.ID).Error)
	assert.Equal(t, models.ListingAvailable, got.Status)
	require.NoError(t, gdb.First(&got, ongoing.ID).Error)
	assert.Equal(t, models.ListingBooked, got.Status)
	assert.Contains(t, buf.String(), `"count":1`)

	published := rec.Events(service.TopicListings)
	require.Len(t, published, 1)
	assert.Equal(t, "listing_status_changed", published[0].Event["type"])
	assert.EqualValues(t, done.ID, published[0].Event["listingID"])
	assert.Equal(t, models.ListingAvailable, published[0].Event["status"])
}

func TestRunWithRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	jr := NewJobRunner(nil, nil, logging.NewWithWriter(&buf, "info", "json"), nil)

	assert.NotPanics(t, func() { jr.PurgeExpiredSessions() })
	assert.Contains(t, buf.String(), "job_panicked")
}

func TestNewScheduler(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "info", "json")
	jr := NewJobRunner(nil, nil, log, nil)

	s, err := NewScheduler(config.Default().Scheduler, jr, log)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	s, err = NewScheduler(config.SchedulerConfig{PurgeSessions: "0 0 * * * *"}, jr, log)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	_, err = NewScheduler(config.SchedulerConfig{PurgeSessions: "not a cron"}, jr, log)
	assert.Error(t, err)
}
