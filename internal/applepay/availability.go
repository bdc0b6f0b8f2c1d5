package applepay

import (
	"context"
	"regexp"
	"strconv"
)

// Platform is the injected Apple Pay platform capability. A nil Platform means
// the SDK is absent on this client entirely.
type Platform interface {
	CanMakePayments() bool
	CanMakePaymentsWithActiveCard(ctx context.Context, merchantRef string) (bool, error)
	UserAgent() string
}

// UnavailableReason distinguishes why the rail cannot be offered.
type UnavailableReason string

const (
	ReasonPlatformAbsent      UnavailableReason = "platform_absent"
	ReasonPaymentsUnsupported UnavailableReason = "payments_unsupported"
	ReasonNoActiveCard        UnavailableReason = "no_active_card"
	ReasonCheckFailed         UnavailableReason = "check_failed"
)

// Availability is the result of probing the platform for this rail.
type Availability struct {
	Available   bool              `json:"available"`
	Reason      UnavailableReason `json:"reason,omitempty"`
	UpgradeHint string            `json:"upgrade_hint,omitempty"`
}

// minOSForThirdPartyWallet is the first platform version where wallet payments
// work outside the first-party browser. Below it, "no active card" earns the
// shopper an upgrade hint.
const minOSForThirdPartyWallet = 18

const upgradeHint = "Wallet payments on third-party browsers require OS version 18 or later. Please update your device or use the built-in browser."

var osVersionPattern = regexp.MustCompile(`OS (\d+)_`)

// PlatformVersion extracts the major OS version from a user agent string.
func PlatformVersion(userAgent string) (int, bool) {
	match := osVersionPattern.FindStringSubmatch(userAgent)
	if match == nil {
		return 0, false
	}
	version, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return version, true
}

// CheckAvailability probes the platform for this wallet rail. Only the
// "no active card on an outdated platform" case yields an upgrade hint; every
// other unavailability is reported without one.
func CheckAvailability(ctx context.Context, platform Platform, merchantID, domain string) Availability {
	if platform == nil {
		return Availability{Reason: ReasonPlatformAbsent}
	}
	if !platform.CanMakePayments() {
		return Availability{Reason: ReasonPaymentsUnsupported}
	}

	active, err := platform.CanMakePaymentsWithActiveCard(ctx, merchantID+"-"+domain)
	if err != nil {
		return Availability{Reason: ReasonCheckFailed}
	}
	if active {
		return Availability{Available: true}
	}

	out := Availability{Reason: ReasonNoActiveCard}
	if version, ok := PlatformVersion(platform.UserAgent()); ok && version < minOSForThirdPartyWallet {
		out.UpgradeHint = upgradeHint
	}
	return out
}
