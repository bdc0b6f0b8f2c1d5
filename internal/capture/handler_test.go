package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgate/railgate/internal/cart"
	"github.com/railgate/railgate/internal/gateway"
	"github.com/railgate/railgate/internal/logging"
	"github.com/railgate/railgate/internal/rail"
	"github.com/railgate/railgate/internal/shopconfig"
	"github.com/railgate/railgate/internal/vault"
)

// fakeAPI extends the orchestrator fake with the handler-only gateway surface.
type fakeAPI struct {
	*fakeGateway

	configPayload gateway.ConfigPayload
	cartPayload   gateway.CartPayload
	merchantBlob  json.RawMessage
	validateErr   error
	shopperResp   gateway.Response
	shopperErr    error
}

func (a *fakeAPI) Config(_ context.Context) (gateway.ConfigPayload, error) {
	return a.configPayload, nil
}

func (a *fakeAPI) Cart(_ context.Context) (gateway.CartPayload, error) {
	return a.cartPayload, nil
}

func (a *fakeAPI) ValidateAppleMerchant(_ context.Context, _ gateway.MerchantValidationRequest) (json.RawMessage, error) {
	return a.merchantBlob, a.validateErr
}

func (a *fakeAPI) VaultedShopper(_ context.Context, _ string) (gateway.Response, error) {
	return a.shopperResp, a.shopperErr
}

func defaultFakeAPI() *fakeAPI {
	return &fakeAPI{
		fakeGateway: &fakeGateway{formToken: "pf-token"},
		configPayload: gateway.ConfigPayload{
			Mode:             "sandbox",
			MerchantID:       "merchant-1",
			MerchantGoogleID: "google-1",
			Require3DS:       true,
		},
		cartPayload:  gateway.CartPayload{TotalPrice: 42.5, ISOCountryCode: "DE"},
		merchantBlob: json.RawMessage(`{"merchantSessionIdentifier":"apple-session"}`),
	}
}

func newCheckoutApp(t *testing.T, api *fakeAPI, store vault.Store) *fiber.App {
	t.Helper()

	logger := logging.Discard()
	shopCfg := shopconfig.NewCache(api, logger)
	cartLoader := cart.NewLoader(api, "EUR", logger)
	orch := New(api, shopCfg, cartLoader, store, logger)
	h := NewHandler(orch, api, shopCfg, cartLoader, store, "shop.example", "Example Shop", logger)

	app := fiber.New()
	app.Get("/checkout/availability", h.Availability)
	app.Get("/checkout/vaulted-card", h.VaultedCard)
	app.Post("/checkout/card", h.CaptureCard)
	app.Post("/checkout/vaulted", h.CaptureVaulted)
	app.Post("/checkout/apple-pay", h.CaptureApplePay)
	app.Post("/checkout/google-pay", h.CaptureGooglePay)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestCaptureCardEndpointSuccess(t *testing.T) {
	api := defaultFakeAPI()
	api.cardResp = gateway.Response{Success: true, Message: `{"transactionId":"tx-1","vaultedShopperId":777}`}
	store := vault.NewMemory()
	app := newCheckoutApp(t, api, store)

	resp, body := postJSON(t, app, "/checkout/card", fiber.Map{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"save_card":  true,
		"card_brand": "VISA",
		"three_ds": fiber.Map{
			"reference_id": "3ds-ref",
			"auth_result":  string(rail.AuthSucceeded),
		},
	}, map[string]string{"Shopper-Key": "browser-1"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "tx-1", body["transaction_id"])

	require.Len(t, api.cardReqs, 1)
	assert.Equal(t, "42.50", api.cardReqs[0].Amount)
	assert.Equal(t, "VISA", api.cardReqs[0].CardBrand)

	ref, err := store.Get(context.Background(), "browser-1")
	require.NoError(t, err)
	assert.Equal(t, "777", ref.VaultedShopperID)
}

func TestCaptureCardEndpointBlocksWithout3DS(t *testing.T) {
	api := defaultFakeAPI()
	app := newCheckoutApp(t, api, vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/card", fiber.Map{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}, nil)

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, string(rail.ErrorAuthenticationFailed), body["error_kind"])
	assert.Empty(t, api.cardReqs, "the gateway must not see an unauthenticated card")
}

func TestCaptureCardEndpointFieldIssues(t *testing.T) {
	api := defaultFakeAPI()
	app := newCheckoutApp(t, api, vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/card", fiber.Map{
		"field_issues": []fiber.Map{
			{"field": "cvv", "code": "22013", "description": "CVV is invalid"},
		},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, string(rail.ErrorFieldValidation), body["error_kind"])
	issues, ok := body["field_issues"].([]any)
	require.True(t, ok)
	assert.Len(t, issues, 1)
}

func TestCaptureVaultedEndpointNotFound(t *testing.T) {
	app := newCheckoutApp(t, defaultFakeAPI(), vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/vaulted", fiber.Map{}, map[string]string{"Shopper-Key": "browser-1"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(rail.ErrorNoVaultedCard), body["error_kind"])
}

func TestCaptureVaultedEndpointSuccess(t *testing.T) {
	api := defaultFakeAPI()
	api.vaultedResp = gateway.Response{Success: true, Message: `{"transactionId":"tx-2"}`}
	store := vault.NewMemory()
	require.NoError(t, store.Put(context.Background(), "browser-1", vault.Ref{VaultedShopperID: "555"}))
	app := newCheckoutApp(t, api, store)

	resp, body := postJSON(t, app, "/checkout/vaulted", fiber.Map{}, map[string]string{"Shopper-Key": "browser-1"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "555", body["vaulted_shopper_id"])
}

func TestCaptureApplePayEndpoint(t *testing.T) {
	api := defaultFakeAPI()
	api.appleResp = gateway.Response{Success: true, Message: `{"transactionId":"tx-3"}`}
	app := newCheckoutApp(t, api, vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/apple-pay", fiber.Map{
		"validation_url": "https://apple.example/validate",
		"payment":        fiber.Map{"token": "opaque"},
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	require.Len(t, api.appleReqs, 1)
	assert.NotEmpty(t, api.appleReqs[0].AppleToken)
}

func TestCaptureApplePayWithoutValidation(t *testing.T) {
	api := defaultFakeAPI()
	app := newCheckoutApp(t, api, vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/apple-pay", fiber.Map{
		"payment": fiber.Map{"token": "opaque"},
	}, nil)

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Empty(t, api.appleReqs, "capture must be unreachable without merchant validation")
}

func TestCaptureGooglePayEndpoint(t *testing.T) {
	api := defaultFakeAPI()
	api.googleResp = gateway.Response{Success: true, Message: `{"transactionId":"tx-4"}`}
	app := newCheckoutApp(t, api, vault.NewMemory())

	resp, body := postJSON(t, app, "/checkout/google-pay", fiber.Map{
		"payment": fiber.Map{"paymentMethodData": fiber.Map{}},
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	require.Len(t, api.googleReqs, 1)
	assert.NotEmpty(t, api.googleReqs[0].GoogleToken)
}

func TestAvailabilityEndpoint(t *testing.T) {
	app := newCheckoutApp(t, defaultFakeAPI(), vault.NewMemory())

	req := httptest.NewRequest(fiber.MethodGet, "/checkout/availability?platform=apple&can_make_payments=true&active_card=true", nil)
	req.Header.Set(fiber.HeaderUserAgent, "Mozilla/5.0 (iPhone; CPU iPhone OS 18_1 like Mac OS X)")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		ApplePay struct {
			Available bool `json:"available"`
		} `json:"apple_pay"`
		GooglePay struct {
			Available bool `json:"available"`
		} `json:"google_pay"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.True(t, body.ApplePay.Available)
	assert.True(t, body.GooglePay.Available)
}

func TestAvailabilityEndpointWithoutPlatform(t *testing.T) {
	app := newCheckoutApp(t, defaultFakeAPI(), vault.NewMemory())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/checkout/availability", nil))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		ApplePay struct {
			Available bool   `json:"available"`
			Reason    string `json:"reason"`
		} `json:"apple_pay"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.ApplePay.Available)
	assert.Equal(t, "platform_absent", body.ApplePay.Reason)
}

func TestVaultedCardEndpoint(t *testing.T) {
	api := defaultFakeAPI()
	api.shopperResp = gateway.Response{
		Success: true,
		Message: `{
			"firstName": "Ada",
			"lastName": "Lovelace",
			"paymentSources": {"creditCardInfo": [{
				"creditCard": {"cardType": "VISA", "cardLastFourDigits": "4242"},
				"billingContactInfo": {"firstName": "Ada", "lastName": "Lovelace"}
			}]},
			"lastPaymentInfo": {"creditCard": {"cardType": "VISA", "cardLastFourDigits": "4242"}}
		}`,
	}
	store := vault.NewMemory()
	require.NoError(t, store.Put(context.Background(), "browser-1", vault.Ref{VaultedShopperID: "555"}))
	app := newCheckoutApp(t, api, store)

	req := httptest.NewRequest(fiber.MethodGet, "/checkout/vaulted-card", nil)
	req.Header.Set("Shopper-Key", "browser-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var summary ShopperSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, "VISA", summary.CardType)
	assert.Equal(t, "4242", summary.LastFourDigits)
	assert.Equal(t, "Ada Lovelace", summary.CardHolder)
}

func TestVaultedCardEndpointWithoutRef(t *testing.T) {
	app := newCheckoutApp(t, defaultFakeAPI(), vault.NewMemory())

	req := httptest.NewRequest(fiber.MethodGet, "/checkout/vaulted-card", nil)
	req.Header.Set("Shopper-Key", "browser-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusForOutcome(t *testing.T) {
	cases := map[rail.ErrorKind]int{
		rail.ErrorFieldValidation:      http.StatusUnprocessableEntity,
		rail.ErrorEncoding:             http.StatusUnprocessableEntity,
		rail.ErrorAuthenticationFailed: http.StatusPaymentRequired,
		rail.ErrorGatewayDeclined:      http.StatusPaymentRequired,
		rail.ErrorNoVaultedCard:        http.StatusNotFound,
		rail.ErrorConfigUnavailable:    http.StatusServiceUnavailable,
		rail.ErrorCardNotAvailable:     http.StatusServiceUnavailable,
		rail.ErrorGatewayUnreachable:   http.StatusBadGateway,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusForOutcome(rail.Outcome{ErrorKind: kind}), string(kind))
	}
	assert.Equal(t, http.StatusOK, statusForOutcome(rail.Outcome{Success: true}))
}
