package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	accessKeyHeader    = "Shop-Access-Key"
	contextTokenHeader = "Shop-Context-Token"
)

// Credentials are the shop-identity header values attached to every gateway
// request. Producing them is the storefront platform's job, not ours.
type Credentials struct {
	AccessKey    string
	ContextToken string
}

// Error is a gateway response with a non-2xx status. The raw body is preserved
// so the orchestrator can classify it.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.Status, e.Body)
}

// Response is the common success/message envelope most capture endpoints reply
// with. Message frequently embeds further JSON (vaulted shopper ids,
// transaction ids, merchant session blobs).
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client is the typed boundary to the remote payment gateway backend. It never
// retries; idempotency across attempts is the gateway's concern.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
}

// New constructs a gateway client. A nil httpClient falls back to
// http.DefaultClient; timeouts are whatever that client enforces.
func New(baseURL string, creds Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(accessKeyHeader, c.creds.AccessKey)
	if c.creds.ContextToken != "" {
		req.Header.Set(contextTokenHeader, c.creds.ContextToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// ConfigPayload is the merchant configuration document served by the gateway.
type ConfigPayload struct {
	Mode             string `json:"mode"`
	MerchantID       string `json:"merchantId"`
	MerchantGoogleID string `json:"merchantGoogleId,omitempty"`
	Require3DS       bool   `json:"3D"`
}

type configEnvelope struct {
	Success bool          `json:"success"`
	Message ConfigPayload `json:"message"`
}

// Config fetches the merchant configuration for this session.
func (c *Client) Config(ctx context.Context) (ConfigPayload, error) {
	var env configEnvelope
	if err := c.do(ctx, http.MethodGet, "payment/config", nil, &env); err != nil {
		return ConfigPayload{}, err
	}
	if !env.Success {
		return ConfigPayload{}, fmt.Errorf("gateway reported config fetch failure")
	}
	return env.Message, nil
}

// CartPayload carries the charge total and delivery country for the session.
type CartPayload struct {
	TotalPrice     float64
	ISOCountryCode string
}

type cartEnvelope struct {
	Price struct {
		TotalPrice float64 `json:"totalPrice"`
	} `json:"price"`
	Deliveries []struct {
		Location struct {
			Country struct {
				ISO string `json:"iso"`
			} `json:"country"`
		} `json:"location"`
	} `json:"deliveries"`
}

// Cart fetches the current cart total and delivery country. Absent fields
// decode to zero values; callers must refuse to charge a zero total.
func (c *Client) Cart(ctx context.Context) (CartPayload, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodGet, "checkout/cart", nil, &env); err != nil {
		return CartPayload{}, err
	}
	out := CartPayload{TotalPrice: env.Price.TotalPrice}
	if len(env.Deliveries) > 0 {
		out.ISOCountryCode = env.Deliveries[0].Location.Country.ISO
	}
	return out, nil
}

// FormToken fetches the single-use token required to initialize the
// hosted-fields rail or to reference a vaulted card.
func (c *Client) FormToken(ctx context.Context) (string, error) {
	var env Response
	if err := c.do(ctx, http.MethodGet, "payment/form-token", nil, &env); err != nil {
		return "", err
	}
	if !env.Success || env.Message == "" {
		return "", fmt.Errorf("gateway returned no form token")
	}
	return env.Message, nil
}

// CardCaptureRequest is the fresh-card capture shape. The 3DS fields are set
// only when the hosted-fields SDK ran a challenge.
type CardCaptureRequest struct {
	FormToken          string `json:"formToken"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	SaveCard           bool   `json:"saveCard"`
	Amount             string `json:"amount"`
	CardBrand          string `json:"cardBrand"`
	ThreeDSReferenceID string `json:"threeDsReferenceId,omitempty"`
	AuthResult         string `json:"authResult,omitempty"`
}

// CaptureCard submits a fresh hosted-fields card capture.
func (c *Client) CaptureCard(ctx context.Context, req CardCaptureRequest) (Response, error) {
	var env Response
	if err := c.do(ctx, http.MethodPost, "payment/capture", req, &env); err != nil {
		return Response{}, err
	}
	return env, nil
}

// VaultedCaptureRequest charges a previously vaulted card. It is a distinct
// request shape from fresh-card capture.
type VaultedCaptureRequest struct {
	FormToken        string `json:"formToken"`
	VaultedShopperID string `json:"vaultedShopperId"`
	Amount           string `json:"amount"`
}

// CaptureVaultedCard charges the vaulted card referenced by the request.
func (c *Client) CaptureVaultedCard(ctx context.Context, req VaultedCaptureRequest) (Response, error) {
	var env Response
	if err := c.do(ctx, http.MethodPost, "payment/vaulted-capture", req, &env); err != nil {
		return Response{}, err
	}
	return env, nil
}

// MerchantValidationRequest asks the gateway to validate the Apple Pay merchant
// session for the given validation URL.
type MerchantValidationRequest struct {
	ValidationURL string `json:"validationUrl"`
	DomainName    string `json:"domainName"`
	DisplayName   string `json:"displayName"`
}

// ValidateAppleMerchant performs the mandatory merchant-validation round trip
// and returns the opaque merchant session blob to hand back to the wallet SDK.
func (c *Client) ValidateAppleMerchant(ctx context.Context, req MerchantValidationRequest) (json.RawMessage, error) {
	var env Response
	if err := c.do(ctx, http.MethodPost, "payment/apple/validate-merchant", req, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("merchant validation rejected: %s", env.Message)
	}
	return json.RawMessage(env.Message), nil
}

// AppleCaptureRequest submits an authorized, encoded Apple Pay token.
type AppleCaptureRequest struct {
	AppleToken string `json:"appleToken"`
	Amount     string `json:"amount"`
}

// CaptureApple captures an Apple Pay payment.
func (c *Client) CaptureApple(ctx context.Context, req AppleCaptureRequest) (Response, error) {
	var env Response
	if err := c.do(ctx, http.MethodPost, "payment/apple/capture", req, &env); err != nil {
		return Response{}, err
	}
	return env, nil
}

// GoogleCaptureRequest submits an authorized, encoded Google Pay token.
type GoogleCaptureRequest struct {
	GoogleToken string `json:"gToken"`
	Amount      string `json:"amount"`
}

// CaptureGoogle captures a Google Pay payment.
func (c *Client) CaptureGoogle(ctx context.Context, req GoogleCaptureRequest) (Response, error) {
	var env Response
	if err := c.do(ctx, http.MethodPost, "payment/google/capture", req, &env); err != nil {
		return Response{}, err
	}
	return env, nil
}

// VaultedShopper fetches the stored billing/card summary for display on the
// saved-card checkout view.
func (c *Client) VaultedShopper(ctx context.Context, id string) (Response, error) {
	var env Response
	if err := c.do(ctx, http.MethodGet, "payment/vaulted-shopper/"+id, nil, &env); err != nil {
		return Response{}, err
	}
	return env, nil
}
