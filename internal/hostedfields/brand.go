package hostedfields

// genericCardLogo is shown before a brand is detected.
const genericCardLogo = "https://files.readme.io/d1a25b4-generic-card.png"

var brandLogos = map[string]string{
	"AMEX":       "https://files.readme.io/97e7acc-Amex.png",
	"DINERS":     "https://files.readme.io/8c73810-Diners_Club.png",
	"DISCOVER":   "https://files.readme.io/caea86d-Discover.png",
	"JCB":        "https://files.readme.io/e076aed-JCB.png",
	"MASTERCARD": "https://files.readme.io/5b7b3de-Mastercard.png",
	"VISA":       "https://files.readme.io/9018c4f-Visa.png",
}

// BrandLogoURL maps a detected card brand to its display asset, falling back
// to the generic card image.
func BrandLogoURL(brand string) string {
	if url, ok := brandLogos[brand]; ok {
		return url
	}
	return genericCardLogo
}
