package googlepay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgate/railgate/internal/logging"
	"github.com/railgate/railgate/internal/rail"
)

func testConfig() Config {
	return Config{
		MerchantID:       "gw-merchant",
		MerchantGoogleID: "google-merchant",
		MerchantName:     "RailGate Store",
		Currency:         "EUR",
		CountryCode:      "DE",
		Amount:           19.9,
	}
}

func TestSetupPrefetchesWithPlaceholderStatus(t *testing.T) {
	client := &StaticClient{Ready: true}
	adapter := New(client, testConfig(), logging.Discard())

	ready, err := adapter.Setup(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)

	require.Len(t, client.PrefetchRequests, 1)
	prefetch := client.PrefetchRequests[0]
	assert.Equal(t, TotalPriceStatusNotCurrentlyKnown, prefetch.TransactionInfo.TotalPriceStatus)
	assert.Equal(t, "19.90", prefetch.TransactionInfo.TotalPrice)
	assert.Equal(t, "google-merchant", prefetch.MerchantInfo.MerchantID)

	require.Len(t, prefetch.AllowedPaymentMethods, 1)
	spec := prefetch.AllowedPaymentMethods[0].TokenizationSpecification
	require.NotNil(t, spec)
	assert.Equal(t, "PAYMENT_GATEWAY", spec.Type)
	assert.Equal(t, "gw-merchant", spec.Parameters["gatewayMerchantId"])
}

func TestSetupNotReady(t *testing.T) {
	client := &StaticClient{Ready: false}
	adapter := New(client, testConfig(), logging.Discard())

	ready, err := adapter.Setup(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Empty(t, client.PrefetchRequests, "an unavailable rail must not be warmed")
}

func TestSetupProbeError(t *testing.T) {
	client := &StaticClient{ReadyErr: errors.New("platform down")}
	adapter := New(client, testConfig(), logging.Discard())

	_, err := adapter.Setup(context.Background())
	require.Error(t, err)
}

func TestLoadAndTokenizeUsesFinalStatus(t *testing.T) {
	payload := json.RawMessage(`{"paymentMethodData":{"info":{"billingAddress":{"name":"Jürgen Müßig"}}}}`)
	client := &StaticClient{Ready: true, PaymentData: payload}
	adapter := New(client, testConfig(), logging.Discard())

	token, err := adapter.LoadAndTokenize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rail.KindGooglePay, token.Wallet)

	require.Len(t, client.LoadRequests, 1)
	assert.Equal(t, TotalPriceStatusFinal, client.LoadRequests[0].TransactionInfo.TotalPriceStatus)

	decoded, err := DecodeToken(token.Blob)
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), decoded)
}

func TestLoadAndTokenizeFailsClosedOnBadPayload(t *testing.T) {
	client := &StaticClient{Ready: true, PaymentData: json.RawMessage("not json")}
	adapter := New(client, testConfig(), logging.Discard())

	_, err := adapter.LoadAndTokenize(context.Background())
	require.Error(t, err)
}

func TestEncodeDecodeRoundTripNonASCII(t *testing.T) {
	payload := []byte(`{"shopper":"Åse Žižek — 東京","total":"10.00"}`)
	token, err := EncodeToken(payload)
	require.NoError(t, err)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded, "round trip must reproduce the payload byte-for-byte")
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	_, err := DecodeToken("!!not base64!!")
	require.Error(t, err)
}
