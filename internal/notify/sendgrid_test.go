package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stayfinder/internal/config"
	"github.com/Skotchmaster/stayfinder/internal/models"
)

func TestSendGridMailer_Send(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		payload map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer(config.MailConfig{SendGridAPIKey: "SG.test", From: "no-reply@stayfinder.test", FromName: "StayFinder"}, srv.URL)
	u := &models.User{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"}

	require.NoError(t, m.Send(context.Background(), u, "Your booking is confirmed", "Booking #1 is confirmed."))
	assert.Equal(t, "/v3/mail/send", gotPath)
	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, "Your booking is confirmed", payload["subject"])
}

func TestSendGridMailer_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	m := NewSendGridMailer(config.MailConfig{SendGridAPIKey: "SG.bad", From: "no-reply@stayfinder.test"}, srv.URL)
	err := m.Send(context.Background(), &models.User{Email: "ann@example.com"}, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLogMailer(t *testing.T) {
	t.Parallel()
	assert.NoError(t, LogMailer{}.Send(context.Background(), &models.User{Email: "a@b.c"}, "s", "b"))
}
