package hostedfields

import (
	"context"

	"github.com/railgate/railgate/internal/rail"
)

// FieldID identifies one hosted input field.
type FieldID string

const (
	FieldCardNumber FieldID = "ccn"
	FieldCVV        FieldID = "cvv"
	FieldExpiry     FieldID = "exp"
)

// EventKind enumerates the field-level callbacks the SDK delivers.
type EventKind string

const (
	EventFocus EventKind = "focus"
	EventBlur  EventKind = "blur"
	EventError EventKind = "error"
	EventType  EventKind = "type"
	EventValid EventKind = "valid"
)

// FieldEvent is one field-level SDK callback, normalized.
type FieldEvent struct {
	Kind        EventKind
	Field       FieldID
	Brand       string // set on EventType when the SDK detected a card brand
	Code        string // set on EventError
	Description string // set on EventError
	Origin      string // set on EventError
}

// FieldIssue is one field-level validation failure reported at submit time.
type FieldIssue struct {
	Field       FieldID `json:"field"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
}

// SubmitRequest carries the billing identity and charge context the SDK needs
// when it runs tokenization (and the 3DS challenge, when enabled).
type SubmitRequest struct {
	Amount           float64
	Currency         string
	BillingFirstName string
	BillingLastName  string
}

// CallbackResult is the single atomic callback the SDK delivers for one submit:
// either field issues, or a usable tokenization with an optional 3DS result.
type CallbackResult struct {
	Issues  []FieldIssue
	ThreeDS *rail.ThreeDSResult
}

// Client is the injected hosted-fields SDK capability. Create mounts the fields
// against a form token and wires the field event stream; SubmitData runs
// tokenization plus 3DS as one callback. Implementations bridge a real browser
// SDK or replay recorded results in tests and server-side flows.
type Client interface {
	Create(ctx context.Context, opts CreateOptions) error
	SubmitData(ctx context.Context, req SubmitRequest) (CallbackResult, error)
}

// CreateOptions configures field mounting.
type CreateOptions struct {
	FormToken    string
	Require3DS   bool
	OnFieldEvent func(FieldEvent)
}

// StaticClient replays a recorded SDK interaction: the field events on Create
// and a fixed callback result on SubmitData. This is how the checkout endpoint
// feeds a browser-side SDK run through the adapter, and how tests substitute
// the SDK entirely.
type StaticClient struct {
	Events    []FieldEvent
	Result    CallbackResult
	SubmitErr error
}

func (c *StaticClient) Create(_ context.Context, opts CreateOptions) error {
	for _, ev := range c.Events {
		opts.OnFieldEvent(ev)
	}
	return nil
}

func (c *StaticClient) SubmitData(_ context.Context, _ SubmitRequest) (CallbackResult, error) {
	if c.SubmitErr != nil {
		return CallbackResult{}, c.SubmitErr
	}
	return c.Result, nil
}
