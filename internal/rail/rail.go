package rail

// Kind identifies one payment acceptance rail.
type Kind string

const (
	// KindCard is the hosted-fields card rail.
	KindCard Kind = "card"
	// KindApplePay is the Apple Pay wallet rail.
	KindApplePay Kind = "apple_pay"
	// KindGooglePay is the Google Pay wallet rail.
	KindGooglePay Kind = "google_pay"
)

// AuthResult reports the outcome of a 3-D Secure challenge as delivered by the
// hosted-fields SDK callback.
type AuthResult string

const (
	AuthSucceeded   AuthResult = "AUTHENTICATION_SUCCEEDED"
	AuthFailed      AuthResult = "AUTHENTICATION_FAILED"
	AuthUnavailable AuthResult = "AUTHENTICATION_UNAVAILABLE"
)

// ThreeDSResult carries the 3DS reference returned alongside a card token. It is
// present only when the configuration demanded strong authentication.
type ThreeDSResult struct {
	ReferenceID string
	AuthResult  AuthResult
}

// Token is the single-use credential a rail adapter produces for exactly one
// capture attempt. Tokens are never persisted.
type Token interface {
	Rail() Kind
}

// CardToken is the hosted-fields rail token: the form token the SDK bound the
// entered card to, the detected brand, and the 3DS result when one was run.
type CardToken struct {
	Brand     string
	FormToken string
	ThreeDS   *ThreeDSResult
}

func (CardToken) Rail() Kind { return KindCard }

// WalletToken is an authorized wallet payment encoded as an opaque base64 blob.
type WalletToken struct {
	Wallet Kind
	Blob   string
}

func (t WalletToken) Rail() Kind { return t.Wallet }

// ErrorKind classifies every failure a capture attempt can terminate with.
type ErrorKind string

const (
	ErrorConfigUnavailable    ErrorKind = "config_unavailable"
	ErrorFieldValidation      ErrorKind = "field_validation"
	ErrorAuthenticationFailed ErrorKind = "authentication_failed"
	ErrorNoVaultedCard        ErrorKind = "no_vaulted_card"
	ErrorEncoding             ErrorKind = "encoding"
	ErrorGatewayDeclined      ErrorKind = "gateway_declined"
	ErrorGatewayUnreachable   ErrorKind = "gateway_unreachable"
	ErrorCardNotAvailable     ErrorKind = "card_not_available"
)

// Outcome is the normalized result of a capture attempt, identical in shape for
// every rail.
type Outcome struct {
	Success          bool      `json:"success"`
	TransactionID    string    `json:"transaction_id,omitempty"`
	VaultedShopperID string    `json:"vaulted_shopper_id,omitempty"`
	ErrorKind        ErrorKind `json:"error_kind,omitempty"`
	Message          string    `json:"message,omitempty"`
}

// Failure builds a terminal failed outcome.
func Failure(kind ErrorKind, message string) Outcome {
	return Outcome{Success: false, ErrorKind: kind, Message: message}
}
