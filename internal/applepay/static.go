package applepay

import (
	"context"
	"encoding/json"
)

// RecordingSession implements Session by recording what the adapter decided.
// It stands in for the platform session when the browser relays its callbacks,
// and in tests.
type RecordingSession struct {
	MerchantSession json.RawMessage
	Validated       bool
	Completed       bool
	PaymentSuccess  bool
	Aborted         bool
}

func (s *RecordingSession) CompleteMerchantValidation(merchantSession json.RawMessage) {
	s.Validated = true
	s.MerchantSession = merchantSession
}

func (s *RecordingSession) CompletePayment(success bool) {
	s.Completed = true
	s.PaymentSuccess = success
}

func (s *RecordingSession) Abort() {
	s.Aborted = true
}

// StaticPlatform replays fixed platform capability answers, for relayed
// browser probes and tests.
type StaticPlatform struct {
	Payments   bool
	ActiveCard bool
	CheckErr   error
	UA         string
}

func (p *StaticPlatform) CanMakePayments() bool { return p.Payments }

func (p *StaticPlatform) CanMakePaymentsWithActiveCard(_ context.Context, _ string) (bool, error) {
	return p.ActiveCard, p.CheckErr
}

func (p *StaticPlatform) UserAgent() string { return p.UA }
