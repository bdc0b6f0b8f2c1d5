package capture

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/railgate/railgate/internal/cart"
	"github.com/railgate/railgate/internal/gateway"
	"github.com/railgate/railgate/internal/rail"
	"github.com/railgate/railgate/internal/vault"
)

// Gateway is the slice of the gateway client the orchestrator drives. One
// capture attempt makes exactly one capture call; retries are the gateway's
// problem, not ours.
type Gateway interface {
	FormToken(ctx context.Context) (string, error)
	CaptureCard(ctx context.Context, req gateway.CardCaptureRequest) (gateway.Response, error)
	CaptureVaultedCard(ctx context.Context, req gateway.VaultedCaptureRequest) (gateway.Response, error)
	CaptureApple(ctx context.Context, req gateway.AppleCaptureRequest) (gateway.Response, error)
	CaptureGoogle(ctx context.Context, req gateway.GoogleCaptureRequest) (gateway.Response, error)
}

// ConfigSource answers the security-relevant configuration questions with
// fail-safe defaults when configuration is absent.
type ConfigSource interface {
	Require3DS(ctx context.Context) bool
}

// CartSource serves the session's charge snapshot.
type CartSource interface {
	Load(ctx context.Context) (cart.Snapshot, error)
}

// Options steer one capture attempt.
type Options struct {
	SaveCard       bool
	UseVaultedCard bool
	ShopperKey     string
	FirstName      string
	LastName       string
}

// Orchestrator consumes a rail token, enforces the authentication branch,
// calls the gateway, classifies the result and persists the vault reference.
// Stages run strictly in sequence; nothing is retried.
type Orchestrator struct {
	gw     Gateway
	cfg    ConfigSource
	cart   CartSource
	vault  vault.Store
	logger *slog.Logger
}

// New constructs the orchestrator.
func New(gw Gateway, cfg ConfigSource, cartSource CartSource, store vault.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, cfg: cfg, cart: cartSource, vault: store, logger: logger}
}

// Capture drives one attempt for the given rail token and returns the
// normalized outcome. Every failure path terminates here; nothing is silently
// swallowed.
func (o *Orchestrator) Capture(ctx context.Context, token rail.Token, opts Options) rail.Outcome {
	if opts.UseVaultedCard {
		return o.captureVaulted(ctx, opts)
	}

	switch t := token.(type) {
	case rail.CardToken:
		return o.captureCard(ctx, t, opts)
	case rail.WalletToken:
		return o.captureWallet(ctx, t)
	default:
		return rail.Failure(rail.ErrorEncoding, "unsupported rail token")
	}
}

// chargeAmount resolves the session amount as the gateway's decimal string. A
// zero cart refuses the capture before any gateway call.
func (o *Orchestrator) chargeAmount(ctx context.Context) (string, *rail.Outcome) {
	snap, err := o.cart.Load(ctx)
	if err != nil || snap.Zero() {
		out := rail.Failure(rail.ErrorConfigUnavailable, "cart total is unavailable")
		return "", &out
	}
	return strconv.FormatFloat(snap.Amount, 'f', 2, 64), nil
}

func (o *Orchestrator) captureVaulted(ctx context.Context, opts Options) rail.Outcome {
	// Vault read comes first: a missing reference fails fast with zero
	// network calls.
	ref, err := o.vault.Get(ctx, opts.ShopperKey)
	if err != nil {
		if errors.Is(err, vault.ErrNoVaultedCard) {
			return rail.Failure(rail.ErrorNoVaultedCard, "no saved card for this shopper")
		}
		return rail.Failure(rail.ErrorGatewayUnreachable, err.Error())
	}

	amount, fail := o.chargeAmount(ctx)
	if fail != nil {
		return *fail
	}

	formToken, err := o.gw.FormToken(ctx)
	if err != nil {
		return o.failure(err)
	}

	resp, err := o.gw.CaptureVaultedCard(ctx, gateway.VaultedCaptureRequest{
		FormToken:        formToken,
		VaultedShopperID: ref.VaultedShopperID,
		Amount:           amount,
	})
	if err != nil {
		return o.failure(err)
	}
	if !resp.Success {
		return rail.Failure(rail.ErrorGatewayDeclined, ClassifyMessage(resp.Message))
	}

	return rail.Outcome{
		Success:          true,
		TransactionID:    extractTransactionID(resp.Message),
		VaultedShopperID: ref.VaultedShopperID,
	}
}

func (o *Orchestrator) captureCard(ctx context.Context, token rail.CardToken, opts Options) rail.Outcome {
	// The authentication branch is evaluated strictly before any gateway
	// call: with 3DS required, a token without a succeeded challenge never
	// reaches capture.
	if o.cfg.Require3DS(ctx) {
		if token.ThreeDS == nil || token.ThreeDS.AuthResult != rail.AuthSucceeded {
			return rail.Failure(rail.ErrorAuthenticationFailed, "strong authentication did not succeed")
		}
	}

	amount, fail := o.chargeAmount(ctx)
	if fail != nil {
		return *fail
	}

	req := gateway.CardCaptureRequest{
		FormToken: token.FormToken,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		SaveCard:  opts.SaveCard,
		Amount:    amount,
		CardBrand: token.Brand,
	}
	if token.ThreeDS != nil {
		req.ThreeDSReferenceID = token.ThreeDS.ReferenceID
		req.AuthResult = string(token.ThreeDS.AuthResult)
	}

	resp, err := o.gw.CaptureCard(ctx, req)
	if err != nil {
		return o.failure(err)
	}
	if !resp.Success {
		return rail.Failure(rail.ErrorGatewayDeclined, ClassifyMessage(resp.Message))
	}

	out := rail.Outcome{
		Success:       true,
		TransactionID: extractTransactionID(resp.Message),
	}

	if opts.SaveCard {
		vaultedID := extractVaultedShopperID(resp.Message)
		if vaultedID == "" {
			// The charge already succeeded; a missing vault id is not a
			// capture failure. The prior reference stays untouched.
			o.logger.Warn("no vaulted shopper id in capture response", "shopper_key", opts.ShopperKey)
		} else if err := o.vault.Put(ctx, opts.ShopperKey, vault.Ref{VaultedShopperID: vaultedID}); err != nil {
			o.logger.Error("persist vaulted card", "error", err)
		} else {
			out.VaultedShopperID = vaultedID
		}
	}

	return out
}

func (o *Orchestrator) captureWallet(ctx context.Context, token rail.WalletToken) rail.Outcome {
	amount, fail := o.chargeAmount(ctx)
	if fail != nil {
		return *fail
	}

	var (
		resp gateway.Response
		err  error
	)
	switch token.Wallet {
	case rail.KindApplePay:
		resp, err = o.gw.CaptureApple(ctx, gateway.AppleCaptureRequest{AppleToken: token.Blob, Amount: amount})
	case rail.KindGooglePay:
		resp, err = o.gw.CaptureGoogle(ctx, gateway.GoogleCaptureRequest{GoogleToken: token.Blob, Amount: amount})
	default:
		return rail.Failure(rail.ErrorEncoding, "unsupported wallet rail")
	}
	if err != nil {
		return o.failure(err)
	}
	if !resp.Success {
		return rail.Failure(rail.ErrorGatewayDeclined, ClassifyMessage(resp.Message))
	}

	return rail.Outcome{
		Success:       true,
		TransactionID: extractTransactionID(resp.Message),
	}
}

// failure maps a gateway client error to a terminal outcome. A non-2xx reply
// is a decline carrying a classifiable body; anything else never reached the
// gateway at all.
func (o *Orchestrator) failure(err error) rail.Outcome {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return rail.Failure(rail.ErrorGatewayDeclined, ClassifyMessage(gatewayMessage(gwErr.Body)))
	}
	return rail.Failure(rail.ErrorGatewayUnreachable, err.Error())
}
