package googlepay

import (
	"context"
	"encoding/json"
)

// TotalPriceStatus values from the upstream SDK contract. Prefetch uses
// NotCurrentlyKnown because the final amount is not committed yet; the actual
// button-click request must use Final. Swapping them is a contract violation.
const (
	TotalPriceStatusFinal             = "FINAL"
	TotalPriceStatusNotCurrentlyKnown = "NOT_CURRENTLY_KNOWN"
)

const (
	apiVersion      = 2
	apiVersionMinor = 0
)

// TransactionInfo describes the charge in a payment-data request.
type TransactionInfo struct {
	CountryCode      string `json:"countryCode,omitempty"`
	CurrencyCode     string `json:"currencyCode"`
	TotalPriceStatus string `json:"totalPriceStatus"`
	TotalPrice       string `json:"totalPrice"`
}

// TokenizationSpec routes the wallet token to our payment gateway.
type TokenizationSpec struct {
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

// CardParameters restricts accepted card auth methods and networks.
type CardParameters struct {
	AllowedAuthMethods  []string `json:"allowedAuthMethods"`
	AllowedCardNetworks []string `json:"allowedCardNetworks"`
}

// PaymentMethod is one allowed payment method specification.
type PaymentMethod struct {
	Type                      string            `json:"type"`
	Parameters                CardParameters    `json:"parameters"`
	TokenizationSpecification *TokenizationSpec `json:"tokenizationSpecification,omitempty"`
}

// MerchantInfo identifies the merchant to the wallet platform.
type MerchantInfo struct {
	MerchantID   string `json:"merchantId"`
	MerchantName string `json:"merchantName"`
}

// IsReadyToPayRequest probes whether the platform can offer this rail.
type IsReadyToPayRequest struct {
	APIVersion            int             `json:"apiVersion"`
	APIVersionMinor       int             `json:"apiVersionMinor"`
	AllowedPaymentMethods []PaymentMethod `json:"allowedPaymentMethods"`
}

// PaymentDataRequest asks the platform for an authorized payment.
type PaymentDataRequest struct {
	APIVersion              int             `json:"apiVersion"`
	APIVersionMinor         int             `json:"apiVersionMinor"`
	AllowedPaymentMethods   []PaymentMethod `json:"allowedPaymentMethods"`
	TransactionInfo         TransactionInfo `json:"transactionInfo"`
	MerchantInfo            MerchantInfo    `json:"merchantInfo"`
	EmailRequired           bool            `json:"emailRequired"`
	ShippingAddressRequired bool            `json:"shippingAddressRequired"`
}

// PaymentsClient is the injected wallet SDK capability. LoadPaymentData blocks
// until the platform-level user authorization completes (or fails); no token
// exists before that.
type PaymentsClient interface {
	IsReadyToPay(ctx context.Context, req IsReadyToPayRequest) (bool, error)
	PrefetchPaymentData(ctx context.Context, req PaymentDataRequest) error
	LoadPaymentData(ctx context.Context, req PaymentDataRequest) (json.RawMessage, error)
}

// StaticClient replays a recorded platform interaction for tests and
// server-side flows where the browser already ran the SDK.
type StaticClient struct {
	Ready       bool
	ReadyErr    error
	PaymentData json.RawMessage
	LoadErr     error

	PrefetchRequests []PaymentDataRequest
	LoadRequests     []PaymentDataRequest
}

func (c *StaticClient) IsReadyToPay(_ context.Context, _ IsReadyToPayRequest) (bool, error) {
	return c.Ready, c.ReadyErr
}

func (c *StaticClient) PrefetchPaymentData(_ context.Context, req PaymentDataRequest) error {
	c.PrefetchRequests = append(c.PrefetchRequests, req)
	return nil
}

func (c *StaticClient) LoadPaymentData(_ context.Context, req PaymentDataRequest) (json.RawMessage, error) {
	c.LoadRequests = append(c.LoadRequests, req)
	if c.LoadErr != nil {
		return nil, c.LoadErr
	}
	return c.PaymentData, nil
}
