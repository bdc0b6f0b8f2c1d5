package hostedfields

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgate/railgate/internal/logging"
	"github.com/railgate/railgate/internal/rail"
)

func TestInitializeRequiresFormToken(t *testing.T) {
	adapter := New(&StaticClient{}, false, logging.Discard())
	require.ErrorIs(t, adapter.Initialize(context.Background(), ""), ErrNoFormToken)
	assert.Equal(t, StateUninitialized, adapter.State())
}

func TestSubmitBeforeInitialize(t *testing.T) {
	adapter := New(&StaticClient{}, false, logging.Discard())
	_, err := adapter.SubmitAndTokenize(context.Background(), Billing{}, 10, "USD")
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestFieldEventStream(t *testing.T) {
	client := &StaticClient{Events: []FieldEvent{
		{Kind: EventFocus, Field: FieldCardNumber},
		{Kind: EventError, Field: FieldCVV, Code: "22013", Description: "CVV is invalid", Origin: "onBlur"},
		{Kind: EventType, Field: FieldCardNumber, Brand: "MASTERCARD"},
		{Kind: EventValid, Field: FieldCardNumber},
	}}
	adapter := New(client, false, logging.Discard())
	require.NoError(t, adapter.Initialize(context.Background(), "pf-token"))

	assert.Equal(t, StateReady, adapter.State())
	assert.Equal(t, "MASTERCARD", adapter.Brand())

	fields := adapter.FieldStates()
	assert.Equal(t, FieldValid, fields[FieldCardNumber].Status)
	assert.Equal(t, FieldInvalid, fields[FieldCVV].Status)
	assert.Equal(t, "22013 - CVV is invalid - onBlur", fields[FieldCVV].Message)
}

func TestUnknownBrandIgnored(t *testing.T) {
	client := &StaticClient{Events: []FieldEvent{
		{Kind: EventType, Field: FieldCardNumber, Brand: "UNKNOWN_NETWORK"},
	}}
	adapter := New(client, false, logging.Discard())
	require.NoError(t, adapter.Initialize(context.Background(), "pf-token"))
	assert.Empty(t, adapter.Brand())
}

func TestSubmitFieldIssues(t *testing.T) {
	client := &StaticClient{Result: CallbackResult{Issues: []FieldIssue{
		{Field: FieldExpiry, Code: "22008", Description: "expiry is invalid"},
	}}}
	adapter := New(client, false, logging.Discard())
	require.NoError(t, adapter.Initialize(context.Background(), "pf-token"))

	_, err := adapter.SubmitAndTokenize(context.Background(), Billing{FirstName: "A", LastName: "B"}, 10, "USD")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Issues, 1)
	assert.Equal(t, FieldExpiry, validation.Issues[0].Field)

	assert.Equal(t, StateFieldError, adapter.State())
	assert.Equal(t, FieldInvalid, adapter.FieldStates()[FieldExpiry].Status)
	assert.Equal(t, "22008 - expiry is invalid", adapter.FieldStates()[FieldExpiry].Message)
}

func TestSubmitEnforces3DS(t *testing.T) {
	cases := []struct {
		name    string
		threeDS *rail.ThreeDSResult
	}{
		{name: "missing result"},
		{name: "failed", threeDS: &rail.ThreeDSResult{ReferenceID: "r", AuthResult: rail.AuthFailed}},
		{name: "unavailable", threeDS: &rail.ThreeDSResult{ReferenceID: "r", AuthResult: rail.AuthUnavailable}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &StaticClient{Result: CallbackResult{ThreeDS: tc.threeDS}}
			adapter := New(client, true, logging.Discard())
			require.NoError(t, adapter.Initialize(context.Background(), "pf-token"))

			_, err := adapter.SubmitAndTokenize(context.Background(), Billing{}, 10, "USD")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
			assert.Equal(t, StateAuthFailed, adapter.State())
		})
	}
}

func TestSubmitProducesToken(t *testing.T) {
	client := &StaticClient{
		Events: []FieldEvent{{Kind: EventType, Field: FieldCardNumber, Brand: "VISA"}},
		Result: CallbackResult{ThreeDS: &rail.ThreeDSResult{ReferenceID: "3ds-1", AuthResult: rail.AuthSucceeded}},
	}
	adapter := New(client, true, logging.Discard())
	require.NoError(t, adapter.Initialize(context.Background(), "pf-token"))

	token, err := adapter.SubmitAndTokenize(context.Background(), Billing{FirstName: "Ada", LastName: "Lovelace"}, 42.5, "USD")
	require.NoError(t, err)
	assert.Equal(t, "VISA", token.Brand)
	assert.Equal(t, "pf-token", token.FormToken)
	require.NotNil(t, token.ThreeDS)
	assert.Equal(t, rail.AuthSucceeded, token.ThreeDS.AuthResult)
	assert.Equal(t, StateTokenized, adapter.State())
}

func TestBrandLogoURL(t *testing.T) {
	assert.NotEqual(t, BrandLogoURL("VISA"), BrandLogoURL(""))
	assert.Equal(t, BrandLogoURL("UNKNOWN"), BrandLogoURL(""))
}
