package applepay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/railgate/railgate/internal/gateway"
	"github.com/railgate/railgate/internal/rail"
)

// Session is the injected wallet session capability. The methods mirror the
// platform SDK's fire-and-forget surface.
type Session interface {
	CompleteMerchantValidation(merchantSession json.RawMessage)
	CompletePayment(success bool)
	Abort()
}

// EventKind enumerates the session callbacks the platform delivers.
type EventKind string

const (
	// EventValidateMerchant asks us to run the mandatory merchant-validation
	// round trip against the gateway.
	EventValidateMerchant EventKind = "validate_merchant"
	// EventPaymentAuthorized delivers the raw payment payload after the
	// platform-level user authorization completed.
	EventPaymentAuthorized EventKind = "payment_authorized"
)

// Event is one session callback, normalized into the adapter's event stream.
type Event struct {
	Kind          EventKind
	ValidationURL string
	Payment       json.RawMessage
}

// Validator is the slice of the gateway client the session protocol needs.
type Validator interface {
	ValidateAppleMerchant(ctx context.Context, req gateway.MerchantValidationRequest) (json.RawMessage, error)
}

// CaptureFunc hands the produced wallet token to the capture orchestrator and
// reports its outcome back so the session can be completed accordingly.
type CaptureFunc func(ctx context.Context, token rail.WalletToken) rail.Outcome

// Adapter drives one wallet session. Merchant validation must complete before
// any payment data is accepted; any failure aborts the session rather than
// leaving it pending.
type Adapter struct {
	validator   Validator
	domain      string
	displayName string
	logger      *slog.Logger
}

// NewAdapter constructs the wallet-session adapter. Domain and display name go
// into the merchant-validation request.
func NewAdapter(validator Validator, domain, displayName string, logger *slog.Logger) *Adapter {
	return &Adapter{validator: validator, domain: domain, displayName: displayName, logger: logger}
}

// Run consumes the session's event stream until a terminal outcome. Exactly one
// capture is attempted per authorized payment, and the session is always
// completed or aborted before returning.
func (a *Adapter) Run(ctx context.Context, session Session, events <-chan Event, capture CaptureFunc) rail.Outcome {
	validated := false

	for {
		select {
		case <-ctx.Done():
			session.Abort()
			return rail.Failure(rail.ErrorGatewayUnreachable, ctx.Err().Error())
		case ev, ok := <-events:
			if !ok {
				session.Abort()
				return rail.Failure(rail.ErrorGatewayDeclined, "wallet session ended before payment authorization")
			}

			switch ev.Kind {
			case EventValidateMerchant:
				merchantSession, err := a.validator.ValidateAppleMerchant(ctx, gateway.MerchantValidationRequest{
					ValidationURL: ev.ValidationURL,
					DomainName:    a.domain,
					DisplayName:   a.displayName,
				})
				if err != nil {
					a.logger.Error("merchant validation", "error", err)
					session.Abort()
					return rail.Failure(validationErrorKind(err), err.Error())
				}
				session.CompleteMerchantValidation(merchantSession)
				validated = true

			case EventPaymentAuthorized:
				if !validated {
					session.Abort()
					return rail.Failure(rail.ErrorGatewayDeclined, "payment authorized before merchant validation completed")
				}
				if !json.Valid(ev.Payment) {
					session.CompletePayment(false)
					return rail.Failure(rail.ErrorEncoding, "payment payload is not valid JSON")
				}

				token := rail.WalletToken{
					Wallet: rail.KindApplePay,
					Blob:   base64.StdEncoding.EncodeToString(ev.Payment),
				}
				outcome := capture(ctx, token)
				session.CompletePayment(outcome.Success)
				return outcome
			}
		}
	}
}

func validationErrorKind(err error) rail.ErrorKind {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return rail.ErrorGatewayDeclined
	}
	return rail.ErrorGatewayUnreachable
}
