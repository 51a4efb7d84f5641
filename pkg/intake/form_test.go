package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeren/signal-waitlist/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillValid(t *testing.T, f *Form) {
	t.Helper()
	require.NoError(t, f.Set(schema.FieldName, "Al"))
	require.NoError(t, f.Set(schema.FieldEmail, "a@b.com"))
	require.NoError(t, f.Set(schema.FieldCity, "NYC"))
	require.NoError(t, f.Set(schema.FieldPlatform, schema.PlatformIOS))
}

func respondWith(status int, body string, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm("http://localhost/api/waitlist")

	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, schema.PlatformBoth, f.Values().Platform)
	assert.Empty(t, f.Values().Name)
	assert.Empty(t, f.Errors())
}

func TestForm_SetMovesToEditing(t *testing.T) {
	f := NewForm("http://localhost/api/waitlist")

	require.NoError(t, f.Set(schema.FieldName, "A"))
	assert.Equal(t, StateEditing, f.State())

	err := f.Set("nickname", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestForm_BlurRecordsAndClearsFieldErrors(t *testing.T) {
	f := NewForm("http://localhost/api/waitlist")

	require.NoError(t, f.Set(schema.FieldEmail, "nope"))
	assert.Error(t, f.Blur(schema.FieldEmail))
	assert.Equal(t, "Please enter a valid email address", f.Errors()[schema.FieldEmail])

	require.NoError(t, f.Set(schema.FieldEmail, "a@b.com"))
	assert.NotContains(t, f.Errors(), schema.FieldEmail)
	assert.NoError(t, f.Blur(schema.FieldEmail))

	assert.NoError(t, f.Blur(schema.FieldUniversityCompany))
}

func TestForm_SubmitInvalidNeverCallsServer(t *testing.T) {
	var hits int32
	srv := respondWith(http.StatusOK, `{}`, &hits)
	defer srv.Close()

	f := NewForm(srv.URL)
	require.NoError(t, f.Set(schema.FieldName, "A"))

	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, StateEditing, f.State())
	assert.Contains(t, f.Errors(), schema.FieldName)
	assert.Contains(t, f.Errors(), schema.FieldEmail)
	assert.Contains(t, f.Errors(), schema.FieldCity)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestForm_FilledHoneypotReportsOnEmail(t *testing.T) {
	var hits int32
	srv := respondWith(http.StatusOK, `{}`, &hits)
	defer srv.Close()

	f := NewForm(srv.URL)
	fillValid(t, f)
	require.NoError(t, f.Set(schema.FieldHoneypot, "http://spam.example"))
	assert.NoError(t, f.Blur(schema.FieldHoneypot))
	assert.Empty(t, f.Errors())

	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, map[string]string{schema.FieldEmail: MessageCheckInput}, f.Errors())
	assert.Equal(t, StateEditing, f.State())
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestForm_SubmitSuccessThenReset(t *testing.T) {
	var received schema.WaitlistSubmission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"success":true,"message":"Successfully joined waitlist","id":"abc-123"}`))
	}))
	defer srv.Close()

	resetDone := make(chan struct{})
	f := NewForm(srv.URL, WithResetDelay(20*time.Millisecond), WithOnReset(func() { close(resetDone) }))
	defer f.Close()
	fillValid(t, f)

	id, err := f.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "abc-123", f.EntryID())
	assert.Equal(t, StateSuccess, f.State())
	assert.Equal(t, "Al", received.Name)
	assert.Equal(t, "", received.Honeypot)

	select {
	case <-resetDone:
	case <-time.After(2 * time.Second):
		t.Fatal("form was not reset after the delay")
	}

	assert.Equal(t, StateIdle, f.State())
	values := f.Values()
	assert.Empty(t, values.Name)
	assert.Empty(t, values.Email)
	assert.Empty(t, values.City)
	assert.Equal(t, schema.PlatformBoth, values.Platform)
}

func TestForm_SubmitRejectedAsInvalidData(t *testing.T) {
	srv := respondWith(http.StatusBadRequest, `{"error":"Invalid data","details":"email: Invalid email format"}`, nil)
	defer srv.Close()

	f := NewForm(srv.URL)
	fillValid(t, f)

	_, err := f.Submit(context.Background())

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, http.StatusBadRequest, submitErr.StatusCode)
	assert.Equal(t, StateError, f.State())
	assert.Equal(t, MessageCheckInput, f.Errors()[schema.FieldEmail])

	require.NoError(t, f.Set(schema.FieldName, "Alan"))
	assert.Equal(t, StateEditing, f.State())
}

func TestForm_SubmitServerError(t *testing.T) {
	srv := respondWith(http.StatusInternalServerError, `{"error":"Internal server error"}`, nil)
	defer srv.Close()

	f := NewForm(srv.URL)
	fillValid(t, f)

	_, err := f.Submit(context.Background())

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, "Internal server error", submitErr.Reason)
	assert.Equal(t, MessageGeneric, f.Errors()[schema.FieldEmail])
}

func TestForm_SubmitNetworkFailure(t *testing.T) {
	srv := respondWith(http.StatusOK, `{}`, nil)
	url := srv.URL
	srv.Close()

	f := NewForm(url)
	fillValid(t, f)

	_, err := f.Submit(context.Background())

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, 0, submitErr.StatusCode)
	assert.Equal(t, StateError, f.State())
	assert.Equal(t, MessageGeneric, f.Errors()[schema.FieldEmail])
}

func TestForm_SubmitWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		close(arrived)
		<-release
		_, _ = w.Write([]byte(`{"success":true,"message":"Successfully joined waitlist","id":"only-one"}`))
	}))
	defer srv.Close()

	f := NewForm(srv.URL, WithResetDelay(time.Hour))
	defer f.Close()
	fillValid(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	<-arrived
	assert.Equal(t, StateSubmitting, f.State())

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, f.Set(schema.FieldName, "Bob"), ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestForm_EditingAfterSuccessCancelsReset(t *testing.T) {
	srv := respondWith(http.StatusOK, `{"success":true,"message":"Successfully joined waitlist","id":"x"}`, nil)
	defer srv.Close()

	f := NewForm(srv.URL, WithResetDelay(time.Hour))
	defer f.Close()
	fillValid(t, f)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.Set(schema.FieldName, "Next"))
	assert.Equal(t, StateEditing, f.State())
	assert.Equal(t, "Next", f.Values().Name)
	assert.Empty(t, f.Values().Email)
}
