package hostedfields

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/railgate/railgate/internal/rail"
)

// State tracks the adapter lifecycle for one checkout session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateSubmitting    State = "submitting"
	StateTokenized     State = "tokenized"
	StateFieldError    State = "field_error"
	StateAuthFailed    State = "auth_failed"
)

var (
	// ErrNoFormToken indicates Initialize was called without a pre-fetched
	// form token.
	ErrNoFormToken = errors.New("form token is required")
	// ErrNotInitialized indicates a submit before the fields were mounted.
	ErrNotInitialized = errors.New("hosted fields are not initialized")
	// ErrAuthenticationFailed indicates 3DS was required but the challenge did
	// not succeed; the token must not be used.
	ErrAuthenticationFailed = errors.New("strong authentication did not succeed")
)

// ValidationError carries one or more field-level issues from a submit. No
// network call was made.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s - %s", issue.Field, issue.Code, issue.Description))
	}
	return "field validation failed: " + strings.Join(parts, "; ")
}

// FieldStatus is the per-field visual validity feedback the event stream
// maintains for the presentation layer.
type FieldStatus string

const (
	FieldNeutral FieldStatus = "neutral"
	FieldFocused FieldStatus = "focused"
	FieldValid   FieldStatus = "valid"
	FieldInvalid FieldStatus = "invalid"
)

// FieldState is what the UI reads back for one field.
type FieldState struct {
	Status  FieldStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Billing is the cardholder name submitted with tokenization.
type Billing struct {
	FirstName string
	LastName  string
}

// Adapter bridges the hosted-fields SDK's field-level event model to a single
// tokenize-and-submit operation. One adapter serves one capture attempt.
type Adapter struct {
	client     Client
	require3DS bool
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	fields    map[FieldID]FieldState
	brand     string
	formToken string
}

// New constructs an adapter over the injected SDK client. require3DS comes
// from the session configuration and is enforced strictly at submit time.
func New(client Client, require3DS bool, logger *slog.Logger) *Adapter {
	return &Adapter{
		client:     client,
		require3DS: require3DS,
		logger:     logger,
		state:      StateUninitialized,
		fields:     make(map[FieldID]FieldState),
	}
}

// Initialize mounts the hosted fields against the pre-fetched form token and
// wires the field event stream. Calling it without a token is an error.
func (a *Adapter) Initialize(ctx context.Context, formToken string) error {
	if formToken == "" {
		return ErrNoFormToken
	}

	a.mu.Lock()
	if a.state != StateUninitialized {
		a.mu.Unlock()
		return fmt.Errorf("initialize in state %s", a.state)
	}
	a.state = StateInitializing
	a.formToken = formToken
	a.mu.Unlock()

	err := a.client.Create(ctx, CreateOptions{
		FormToken:    formToken,
		Require3DS:   a.require3DS,
		OnFieldEvent: a.onFieldEvent,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateUninitialized
		return fmt.Errorf("mount hosted fields: %w", err)
	}
	a.state = StateReady
	return nil
}

// onFieldEvent folds the SDK's callback stream into per-field state. Error
// messages are keyed by field id and applying the same event twice is a no-op.
func (a *Adapter) onFieldEvent(ev FieldEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Kind {
	case EventFocus:
		a.fields[ev.Field] = FieldState{Status: FieldFocused}
	case EventBlur:
		st := a.fields[ev.Field]
		if st.Status == FieldFocused {
			st.Status = FieldNeutral
		}
		a.fields[ev.Field] = st
	case EventError:
		a.fields[ev.Field] = FieldState{
			Status:  FieldInvalid,
			Message: fmt.Sprintf("%s - %s - %s", ev.Code, ev.Description, ev.Origin),
		}
	case EventValid:
		a.fields[ev.Field] = FieldState{Status: FieldValid}
	case EventType:
		if _, known := brandLogos[ev.Brand]; known {
			a.brand = ev.Brand
			st := a.fields[ev.Field]
			st.Message = ""
			a.fields[ev.Field] = st
		}
	}
}

// FieldStates returns a copy of the per-field feedback for the UI.
func (a *Adapter) FieldStates() map[FieldID]FieldState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[FieldID]FieldState, len(a.fields))
	for id, st := range a.fields {
		out[id] = st
	}
	return out
}

// Brand returns the card brand detected from the event stream, if any.
func (a *Adapter) Brand() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.brand
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SubmitAndTokenize runs the SDK's single tokenize callback and returns a
// usable card token. Field issues abort before any network call; when 3DS is
// required the auth result is checked before the token is considered usable.
func (a *Adapter) SubmitAndTokenize(ctx context.Context, billing Billing, amount float64, currency string) (rail.CardToken, error) {
	a.mu.Lock()
	if a.state != StateReady {
		a.mu.Unlock()
		return rail.CardToken{}, ErrNotInitialized
	}
	a.state = StateSubmitting
	formToken := a.formToken
	a.mu.Unlock()

	res, err := a.client.SubmitData(ctx, SubmitRequest{
		Amount:           amount,
		Currency:         currency,
		BillingFirstName: billing.FirstName,
		BillingLastName:  billing.LastName,
	})
	if err != nil {
		a.setState(StateReady)
		return rail.CardToken{}, fmt.Errorf("submit hosted fields: %w", err)
	}

	if len(res.Issues) > 0 {
		a.mu.Lock()
		for _, issue := range res.Issues {
			a.fields[issue.Field] = FieldState{
				Status:  FieldInvalid,
				Message: fmt.Sprintf("%s - %s", issue.Code, issue.Description),
			}
		}
		a.state = StateFieldError
		a.mu.Unlock()
		return rail.CardToken{}, &ValidationError{Issues: res.Issues}
	}

	if a.require3DS {
		if res.ThreeDS == nil || res.ThreeDS.AuthResult != rail.AuthSucceeded {
			a.setState(StateAuthFailed)
			return rail.CardToken{}, ErrAuthenticationFailed
		}
	}

	a.setState(StateTokenized)
	return rail.CardToken{
		Brand:     a.Brand(),
		FormToken: formToken,
		ThreeDS:   res.ThreeDS,
	}, nil
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}
