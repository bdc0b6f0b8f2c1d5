package capture

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/railgate/railgate/internal/applepay"
	"github.com/railgate/railgate/internal/cart"
	"github.com/railgate/railgate/internal/gateway"
	"github.com/railgate/railgate/internal/googlepay"
	"github.com/railgate/railgate/internal/hostedfields"
	"github.com/railgate/railgate/internal/rail"
	"github.com/railgate/railgate/internal/shopconfig"
	"github.com/railgate/railgate/internal/vault"
)

const shopperKeyHeader = "Shopper-Key"

// GatewayAPI is everything the checkout endpoints need from the gateway client
// beyond the orchestrator's own slice.
type GatewayAPI interface {
	Gateway
	ValidateAppleMerchant(ctx context.Context, req gateway.MerchantValidationRequest) (json.RawMessage, error)
	VaultedShopper(ctx context.Context, id string) (gateway.Response, error)
}

// Handler exposes the checkout capture endpoints. The browser runs the rail
// SDKs and relays their callbacks; the handlers replay those through the rail
// adapters so the full tokenize/authenticate/capture lifecycle runs here.
type Handler struct {
	orch        *Orchestrator
	gw          GatewayAPI
	cfg         *shopconfig.Cache
	cart        *cart.Loader
	vault       vault.Store
	domain      string
	displayName string
	logger      *slog.Logger
}

// NewHandler constructs the checkout handler.
func NewHandler(orch *Orchestrator, gw GatewayAPI, cfg *shopconfig.Cache, cartLoader *cart.Loader, store vault.Store, domain, displayName string, logger *slog.Logger) *Handler {
	return &Handler{
		orch:        orch,
		gw:          gw,
		cfg:         cfg,
		cart:        cartLoader,
		vault:       store,
		domain:      domain,
		displayName: displayName,
		logger:      logger,
	}
}

// shopperKey returns the browser-identity key for this request, minting one
// when the storefront did not send one.
func (h *Handler) shopperKey(c *fiber.Ctx) string {
	key := c.Get(shopperKeyHeader)
	if key == "" {
		key = uuid.NewString()
	}
	c.Set(shopperKeyHeader, key)
	return key
}

func statusForOutcome(out rail.Outcome) int {
	if out.Success {
		return http.StatusOK
	}
	switch out.ErrorKind {
	case rail.ErrorFieldValidation, rail.ErrorEncoding:
		return http.StatusUnprocessableEntity
	case rail.ErrorAuthenticationFailed, rail.ErrorGatewayDeclined:
		return http.StatusPaymentRequired
	case rail.ErrorNoVaultedCard:
		return http.StatusNotFound
	case rail.ErrorConfigUnavailable, rail.ErrorCardNotAvailable:
		return http.StatusServiceUnavailable
	case rail.ErrorGatewayUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondOutcome(c *fiber.Ctx, out rail.Outcome) error {
	return c.Status(statusForOutcome(out)).JSON(out)
}

type threeDSPayload struct {
	ReferenceID string `json:"reference_id"`
	AuthResult  string `json:"auth_result"`
}

type cardCaptureRequest struct {
	FirstName   string                    `json:"first_name"`
	LastName    string                    `json:"last_name"`
	SaveCard    bool                      `json:"save_card"`
	CardBrand   string                    `json:"card_brand"`
	FieldIssues []hostedfields.FieldIssue `json:"field_issues"`
	ThreeDS     *threeDSPayload           `json:"three_ds"`
}

// CaptureCard runs the hosted-fields rail end to end: mount against a fresh
// form token, replay the SDK callback, enforce the 3DS gate, capture and vault.
func (h *Handler) CaptureCard(c *fiber.Ctx) error {
	var req cardCaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()
	shopperKey := h.shopperKey(c)

	snap, err := h.cart.Load(ctx)
	if err != nil || snap.Zero() {
		return respondOutcome(c, rail.Failure(rail.ErrorConfigUnavailable, "cart total is unavailable"))
	}

	formToken, err := h.gw.FormToken(ctx)
	if err != nil {
		return respondOutcome(c, rail.Failure(rail.ErrorGatewayUnreachable, err.Error()))
	}

	result := hostedfields.CallbackResult{Issues: req.FieldIssues}
	if req.ThreeDS != nil {
		result.ThreeDS = &rail.ThreeDSResult{
			ReferenceID: req.ThreeDS.ReferenceID,
			AuthResult:  rail.AuthResult(req.ThreeDS.AuthResult),
		}
	}
	client := &hostedfields.StaticClient{Result: result}
	if req.CardBrand != "" {
		client.Events = []hostedfields.FieldEvent{
			{Kind: hostedfields.EventType, Field: hostedfields.FieldCardNumber, Brand: req.CardBrand},
		}
	}

	adapter := hostedfields.New(client, h.cfg.Require3DS(ctx), h.logger)
	if err := adapter.Initialize(ctx, formToken); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	billing := hostedfields.Billing{FirstName: req.FirstName, LastName: req.LastName}
	token, err := adapter.SubmitAndTokenize(ctx, billing, snap.Amount, snap.Currency)
	if err != nil {
		var validation *hostedfields.ValidationError
		switch {
		case errors.As(err, &validation):
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"success":      false,
				"error_kind":   rail.ErrorFieldValidation,
				"field_issues": validation.Issues,
			})
		case errors.Is(err, hostedfields.ErrAuthenticationFailed):
			return respondOutcome(c, rail.Failure(rail.ErrorAuthenticationFailed, err.Error()))
		default:
			return respondOutcome(c, rail.Failure(rail.ErrorGatewayUnreachable, err.Error()))
		}
	}

	return respondOutcome(c, h.orch.Capture(ctx, token, Options{
		SaveCard:   req.SaveCard,
		ShopperKey: shopperKey,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	}))
}

// CaptureVaulted charges the shopper's saved card.
func (h *Handler) CaptureVaulted(c *fiber.Ctx) error {
	shopperKey := h.shopperKey(c)
	return respondOutcome(c, h.orch.Capture(c.UserContext(), nil, Options{
		UseVaultedCard: true,
		ShopperKey:     shopperKey,
	}))
}

type applePayRequest struct {
	ValidationURL string          `json:"validation_url"`
	Payment       json.RawMessage `json:"payment"`
}

// CaptureApplePay replays the wallet session callbacks through the session
// adapter: merchant validation first, then the authorized payment.
func (h *Handler) CaptureApplePay(c *fiber.Ctx) error {
	var req applePayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()

	if !h.cfg.WalletsAvailable(ctx) {
		return respondOutcome(c, rail.Failure(rail.ErrorConfigUnavailable, "merchant configuration is unavailable"))
	}

	events := make(chan applepay.Event, 2)
	if req.ValidationURL != "" {
		events <- applepay.Event{Kind: applepay.EventValidateMerchant, ValidationURL: req.ValidationURL}
	}
	if len(req.Payment) > 0 {
		events <- applepay.Event{Kind: applepay.EventPaymentAuthorized, Payment: req.Payment}
	}
	close(events)

	session := &applepay.RecordingSession{}
	adapter := applepay.NewAdapter(h.gw, h.domain, h.displayName, h.logger)
	outcome := adapter.Run(ctx, session, events, func(ctx context.Context, token rail.WalletToken) rail.Outcome {
		return h.orch.Capture(ctx, token, Options{})
	})
	return respondOutcome(c, outcome)
}

type googlePayRequest struct {
	Payment json.RawMessage `json:"payment"`
}

// CaptureGooglePay replays the wallet SDK flow: readiness probe, prefetch,
// load of the authorized payment data, encoding and capture.
func (h *Handler) CaptureGooglePay(c *fiber.Ctx) error {
	var req googlePayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()

	cfg, err := h.cfg.Load(ctx)
	if err != nil {
		return respondOutcome(c, rail.Failure(rail.ErrorConfigUnavailable, "merchant configuration is unavailable"))
	}
	snap, err := h.cart.Load(ctx)
	if err != nil || snap.Zero() {
		return respondOutcome(c, rail.Failure(rail.ErrorConfigUnavailable, "cart total is unavailable"))
	}

	client := &googlepay.StaticClient{Ready: true, PaymentData: req.Payment}
	adapter := googlepay.New(client, googlepay.Config{
		MerchantID:       cfg.MerchantID,
		MerchantGoogleID: cfg.MerchantGoogleID,
		MerchantName:     h.displayName,
		Currency:         snap.Currency,
		CountryCode:      snap.CountryCode,
		Amount:           snap.Amount,
	}, h.logger)

	ready, err := adapter.Setup(ctx)
	if err != nil {
		return respondOutcome(c, rail.Failure(rail.ErrorGatewayUnreachable, err.Error()))
	}
	if !ready {
		return respondOutcome(c, rail.Failure(rail.ErrorCardNotAvailable, "wallet rail is unavailable"))
	}

	token, err := adapter.LoadAndTokenize(ctx)
	if err != nil {
		return respondOutcome(c, rail.Failure(rail.ErrorEncoding, err.Error()))
	}

	return respondOutcome(c, h.orch.Capture(ctx, token, Options{}))
}

// Availability reports the wallet rails' availability for this client. The
// platform capabilities arrive as relayed query parameters plus the browser's
// user agent.
func (h *Handler) Availability(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cfg, err := h.cfg.Load(ctx)
	if err != nil {
		// Fail-safe: without configuration the wallet rails stay off.
		return c.JSON(fiber.Map{
			"apple_pay":  applepay.Availability{Reason: applepay.ReasonPlatformAbsent},
			"google_pay": fiber.Map{"available": false},
		})
	}

	var platform applepay.Platform
	if c.Query("platform") != "" {
		platform = &applepay.StaticPlatform{
			Payments:   c.QueryBool("can_make_payments"),
			ActiveCard: c.QueryBool("active_card"),
			UA:         c.Get(fiber.HeaderUserAgent),
		}
	}

	return c.JSON(fiber.Map{
		"apple_pay":  applepay.CheckAvailability(ctx, platform, cfg.MerchantID, h.domain),
		"google_pay": fiber.Map{"available": cfg.MerchantGoogleID != ""},
	})
}

// VaultedCard returns the saved-card display summary for the shopper.
func (h *Handler) VaultedCard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	shopperKey := h.shopperKey(c)

	ref, err := h.vault.Get(ctx, shopperKey)
	if err != nil {
		if errors.Is(err, vault.ErrNoVaultedCard) {
			return fiber.NewError(http.StatusNotFound, "no saved card")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp, err := h.gw.VaultedShopper(ctx, ref.VaultedShopperID)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	if !resp.Success {
		return fiber.NewError(http.StatusNotFound, "vaulted shopper not found")
	}

	summary, err := ParseShopperSummary(resp.Message)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(summary)
}
