// Package intake models the waitlist sign-up form on the client side: field
// values, field and form validation, the submit round trip and the timed reset
// that follows a successful submission.
//
// A Form moves through five states:
//
//	idle -> editing -> submitting -> success -> (reset delay) -> idle
//	                             \-> error -> editing
//
// Validation uses the same rules as the server, from package schema.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/schema"
)

type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateError      State = "error"
)

const DefaultResetDelay = 3 * time.Second

const (
	MessageCheckInput = "Please check your input and try again."
	MessageGeneric    = "Something went wrong. Please try again."
)

var (
	ErrInvalidForm      = errors.New("intake: form has invalid fields")
	ErrSubmitInProgress = errors.New("intake: a submission is already in progress")
	ErrUnknownField     = errors.New("intake: unknown field")
)

// SubmitError is returned when the endpoint could not be reached or answered with a non-2xx status.
// StatusCode is 0 for transport failures.
type SubmitError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("intake: submit failed: %v", e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("intake: submit rejected with status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("intake: submit rejected with status %d", e.StatusCode)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

type Option func(*Form)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Form) {
		if client != nil {
			f.client = client
		}
	}
}

func WithResetDelay(d time.Duration) Option {
	return func(f *Form) {
		if d >= 0 {
			f.resetDelay = d
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOnReset registers a callback run after the post-success reset. It is called without the form lock held.
func WithOnReset(fn func()) Option {
	return func(f *Form) {
		f.onReset = fn
	}
}

type Form struct {
	endpoint   string
	client     *http.Client
	resetDelay time.Duration
	logger     *log.Logger
	onReset    func()

	mu         sync.Mutex
	state      State
	values     schema.WaitlistSubmission
	errors     map[string]string
	entryID    string
	resetTimer *time.Timer
}

func NewForm(endpoint string, opts ...Option) *Form {
	f := &Form{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 15 * time.Second},
		resetDelay: DefaultResetDelay,
		logger:     log.NewLoggerWithWriter(io.Discard),
		state:      StateIdle,
		values:     schema.WaitlistSubmission{Platform: schema.DefaultPlatform},
		errors:     make(map[string]string),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Set updates one field and clears its error. Editing after success cancels the pending reset.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateSubmitting:
		return ErrSubmitInProgress
	case StateSuccess:
		f.resetLocked()
	}

	if err := f.assignLocked(field, value); err != nil {
		return err
	}

	delete(f.errors, field)
	if f.state == StateIdle || f.state == StateError {
		f.state = StateEditing
	}

	return nil
}

// Blur validates a single field, as when it loses focus, and records the outcome.
// The hidden honeypot field is never validated on its own.
func (f *Form) Blur(field string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, err := f.valueLocked(field)
	if err != nil || field == schema.FieldHoneypot {
		return err
	}

	if verr := schema.ValidateField(field, value); verr != nil {
		f.errors[field] = schema.MessageFor(field)
		return verr
	}

	delete(f.errors, field)
	return nil
}

// Submit validates the whole form and posts it once. It returns the id assigned by the server.
func (f *Form) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()

	if f.state == StateSubmitting {
		f.mu.Unlock()
		return "", ErrSubmitInProgress
	}

	submission := f.values
	if err := schema.Validate(&submission); err != nil {
		f.errors = schema.FieldMessages(err)
		if _, caught := f.errors[schema.FieldHoneypot]; caught {
			// The hidden field is never named to whoever filled it.
			delete(f.errors, schema.FieldHoneypot)
			f.errors[schema.FieldEmail] = MessageCheckInput
		}
		f.state = StateEditing
		f.mu.Unlock()
		return "", ErrInvalidForm
	}

	f.errors = make(map[string]string)
	f.state = StateSubmitting
	f.mu.Unlock()

	id, err := f.post(ctx, &submission)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = StateError
		f.errors[schema.FieldEmail] = userMessage(err)
		f.logger.Warn("Waitlist submission failed", "error", err)
		return "", err
	}

	f.state = StateSuccess
	f.entryID = id
	f.scheduleResetLocked()
	f.logger.Info("Joined waitlist", "id", id)

	return id, nil
}

type joinResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (f *Form) post(ctx context.Context, submission *schema.WaitlistSubmission) (string, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return "", &SubmitError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &SubmitError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &SubmitError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &SubmitError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rejected errorResponse
		_ = json.Unmarshal(raw, &rejected)
		return "", &SubmitError{StatusCode: resp.StatusCode, Reason: rejected.Error}
	}

	var accepted joinResponse
	if err := json.Unmarshal(raw, &accepted); err != nil {
		return "", &SubmitError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return accepted.ID, nil
}

func userMessage(err error) string {
	var submitErr *SubmitError
	if errors.As(err, &submitErr) && submitErr.StatusCode == http.StatusBadRequest && submitErr.Reason == "Invalid data" {
		return MessageCheckInput
	}
	return MessageGeneric
}

func (f *Form) scheduleResetLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
	}
	f.resetTimer = time.AfterFunc(f.resetDelay, f.reset)
}

func (f *Form) reset() {
	f.mu.Lock()
	if f.state != StateSuccess {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	onReset := f.onReset
	f.mu.Unlock()

	if onReset != nil {
		onReset()
	}
}

// resetLocked clears every field except platform, which returns to its default.
func (f *Form) resetLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
	f.values = schema.WaitlistSubmission{Platform: schema.DefaultPlatform}
	f.errors = make(map[string]string)
	f.state = StateIdle
}

func (f *Form) assignLocked(field, value string) error {
	switch field {
	case schema.FieldName:
		f.values.Name = value
	case schema.FieldEmail:
		f.values.Email = value
	case schema.FieldCity:
		f.values.City = value
	case schema.FieldUniversityCompany:
		f.values.UniversityCompany = value
	case schema.FieldPlatform:
		f.values.Platform = value
	case schema.FieldHoneypot:
		f.values.Honeypot = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (f *Form) valueLocked(field string) (string, error) {
	switch field {
	case schema.FieldName:
		return f.values.Name, nil
	case schema.FieldEmail:
		return f.values.Email, nil
	case schema.FieldCity:
		return f.values.City, nil
	case schema.FieldUniversityCompany:
		return f.values.UniversityCompany, nil
	case schema.FieldPlatform:
		return f.values.Platform, nil
	case schema.FieldHoneypot:
		return f.values.Honeypot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Values() schema.WaitlistSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current per-field messages.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// EntryID is the id from the last successful submission.
func (f *Form) EntryID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entryID
}

// Close stops a pending reset.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}
