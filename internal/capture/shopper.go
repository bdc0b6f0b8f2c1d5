package capture

import (
	"encoding/json"
	"fmt"
)

// ShopperSummary is the stored billing/card summary shown on the saved-card
// checkout view.
type ShopperSummary struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CardType       string `json:"card_type"`
	LastFourDigits string `json:"last_four_digits"`
	CardHolder     string `json:"card_holder"`
}

// ParseShopperSummary decodes the gateway's vaulted shopper document into a
// display summary.
func ParseShopperSummary(message string) (ShopperSummary, error) {
	var doc struct {
		FirstName      string `json:"firstName"`
		LastName       string `json:"lastName"`
		PaymentSources struct {
			CreditCardInfo []struct {
				CreditCard struct {
					CardType           string `json:"cardType"`
					CardLastFourDigits string `json:"cardLastFourDigits"`
				} `json:"creditCard"`
				BillingContactInfo struct {
					FirstName string `json:"firstName"`
					LastName  string `json:"lastName"`
				} `json:"billingContactInfo"`
			} `json:"creditCardInfo"`
		} `json:"paymentSources"`
		LastPaymentInfo struct {
			CreditCard struct {
				CardType           string `json:"cardType"`
				CardLastFourDigits string `json:"cardLastFourDigits"`
			} `json:"creditCard"`
		} `json:"lastPaymentInfo"`
	}
	if err := json.Unmarshal([]byte(message), &doc); err != nil {
		return ShopperSummary{}, fmt.Errorf("decode vaulted shopper: %w", err)
	}

	out := ShopperSummary{
		FirstName:      doc.FirstName,
		LastName:       doc.LastName,
		CardType:       doc.LastPaymentInfo.CreditCard.CardType,
		LastFourDigits: doc.LastPaymentInfo.CreditCard.CardLastFourDigits,
	}
	if len(doc.PaymentSources.CreditCardInfo) > 0 {
		info := doc.PaymentSources.CreditCardInfo[0]
		out.CardHolder = info.BillingContactInfo.FirstName + " " + info.BillingContactInfo.LastName
		if out.LastFourDigits == "" {
			out.LastFourDigits = info.CreditCard.CardLastFourDigits
		}
		if out.CardType == "" {
			out.CardType = info.CreditCard.CardType
		}
	}
	return out, nil
}
