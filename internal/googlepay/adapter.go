package googlepay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/railgate/railgate/internal/rail"
)

// ErrNotReady indicates the platform reported it cannot offer this rail.
var ErrNotReady = errors.New("wallet platform is not ready to pay")

// gatewayName is the PAYMENT_GATEWAY identifier registered with the wallet
// platform for our capture backend.
const gatewayName = "railgate"

var allowedAuthMethods = []string{"PAN_ONLY", "CRYPTOGRAM_3DS"}

var allowedCardNetworks = []string{"AMEX", "DISCOVER", "INTERAC", "JCB", "MASTERCARD", "VISA"}

// Config carries the merchant identities and charge context the adapter bakes
// into every platform request.
type Config struct {
	MerchantID       string
	MerchantGoogleID string
	MerchantName     string
	Currency         string
	CountryCode      string
	Amount           float64
}

// Adapter wraps the wallet SDK's isReadyToPay / prefetch / loadPaymentData
// protocol and converts one authorized payment into an opaque wallet token.
// The 3DS configuration flag never gates this rail.
type Adapter struct {
	client PaymentsClient
	cfg    Config
	logger *slog.Logger
}

// New constructs the adapter over the injected platform client.
func New(client PaymentsClient, cfg Config, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, cfg: cfg, logger: logger}
}

func (a *Adapter) basePaymentMethod(withTokenization bool) PaymentMethod {
	method := PaymentMethod{
		Type: "CARD",
		Parameters: CardParameters{
			AllowedAuthMethods:  allowedAuthMethods,
			AllowedCardNetworks: allowedCardNetworks,
		},
	}
	if withTokenization {
		method.TokenizationSpecification = &TokenizationSpec{
			Type: "PAYMENT_GATEWAY",
			Parameters: map[string]string{
				"gateway":           gatewayName,
				"gatewayMerchantId": a.cfg.MerchantID,
			},
		}
	}
	return method
}

func (a *Adapter) paymentDataRequest(totalPriceStatus string) PaymentDataRequest {
	return PaymentDataRequest{
		APIVersion:            apiVersion,
		APIVersionMinor:       apiVersionMinor,
		AllowedPaymentMethods: []PaymentMethod{a.basePaymentMethod(true)},
		TransactionInfo: TransactionInfo{
			CountryCode:      a.cfg.CountryCode,
			CurrencyCode:     a.cfg.Currency,
			TotalPriceStatus: totalPriceStatus,
			TotalPrice:       strconv.FormatFloat(a.cfg.Amount, 'f', 2, 64),
		},
		MerchantInfo: MerchantInfo{
			MerchantID:   a.cfg.MerchantGoogleID,
			MerchantName: a.cfg.MerchantName,
		},
		EmailRequired:           true,
		ShippingAddressRequired: true,
	}
}

// Setup runs the readiness probe and, when the rail is available, warms the
// platform with a prefetch. The prefetch deliberately uses the
// "amount not yet known" status; only the button-click request is Final.
func (a *Adapter) Setup(ctx context.Context) (bool, error) {
	ready, err := a.client.IsReadyToPay(ctx, IsReadyToPayRequest{
		APIVersion:            apiVersion,
		APIVersionMinor:       apiVersionMinor,
		AllowedPaymentMethods: []PaymentMethod{a.basePaymentMethod(false)},
	})
	if err != nil {
		return false, fmt.Errorf("isReadyToPay: %w", err)
	}
	if !ready {
		return false, nil
	}

	if err := a.client.PrefetchPaymentData(ctx, a.paymentDataRequest(TotalPriceStatusNotCurrentlyKnown)); err != nil {
		// A failed warm-up does not make the rail unavailable.
		a.logger.Warn("prefetch payment data", "error", err)
	}
	return true, nil
}

// LoadAndTokenize runs the button-click flow: the platform collects user
// authorization and returns the raw payment data, which is encoded into the
// single-use wallet token. No token exists unless authorization completed.
func (a *Adapter) LoadAndTokenize(ctx context.Context) (rail.WalletToken, error) {
	payment, err := a.client.LoadPaymentData(ctx, a.paymentDataRequest(TotalPriceStatusFinal))
	if err != nil {
		return rail.WalletToken{}, fmt.Errorf("load payment data: %w", err)
	}

	blob, err := EncodeToken(payment)
	if err != nil {
		return rail.WalletToken{}, err
	}
	return rail.WalletToken{Wallet: rail.KindGooglePay, Blob: blob}, nil
}
