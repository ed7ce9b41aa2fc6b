// Package upi builds and validates UPI deep links (upi://pay URIs).
// Validation is purely syntactic; whether a VPA resolves to a real
// account is between the payer's app and the UPI switch.
package upi

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const Currency = "INR"

// localpart: 2+ of [A-Za-z0-9._-], handle: 2+ letters
var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,}@[a-zA-Z]{2,}$`)

func ValidVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

// MaskVPA hides most of the localpart for public display, e.g.
// "shopkeeper@upi" -> "sh***er@upi". Inputs that do not split into
// exactly two parts are returned unchanged.
func MaskVPA(vpa string) string {
	parts := strings.Split(vpa, "@")
	if len(parts) != 2 {
		return vpa
	}
	user, domain := parts[0], parts[1]
	if len(user) <= 4 {
		if user == "" {
			return vpa
		}
		return user[:1] + "***@" + domain
	}
	return user[:2] + "***" + user[len(user)-2:] + "@" + domain
}

type LinkParams struct {
	PayeeVPA     string
	MerchantName string
	Amount       decimal.Decimal
	Note         string
	ReferenceID  string
}

// BuildDeepLink renders the canonical upi://pay URI. Parameter order is
// fixed (pa, pn, am, cu, tn, tr) and the amount always carries two
// decimal digits; pn/tn/tr are omitted entirely when empty.
func BuildDeepLink(p LinkParams) string {
	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(url.QueryEscape(p.PayeeVPA))
	if p.MerchantName != "" {
		b.WriteString("&pn=")
		b.WriteString(url.QueryEscape(p.MerchantName))
	}
	b.WriteString("&am=")
	b.WriteString(p.Amount.StringFixed(2))
	b.WriteString("&cu=")
	b.WriteString(Currency)
	if p.Note != "" {
		b.WriteString("&tn=")
		b.WriteString(url.QueryEscape(p.Note))
	}
	if p.ReferenceID != "" {
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(p.ReferenceID))
	}
	return b.String()
}

// providerScheme maps a wallet app name to the URI prefix it intercepts.
// Unknown names fall back to the generic UPI scheme.
func providerScheme(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "phonepe":
		return "phonepe://pay"
	case "paytm":
		return "paytmmp://pay"
	case "google pay", "gpay", "tez":
		return "tez://upi/pay"
	default:
		return "upi://pay"
	}
}

// ProviderURI rewrites the canonical deep link onto a provider-specific
// scheme, keeping the query parameters intact. When no deep link is
// available it falls back to a minimal pa/am/cu query.
func ProviderURI(provider, deepLink, vpa string, amount decimal.Decimal) string {
	scheme := providerScheme(provider)
	if i := strings.Index(deepLink, "?"); i >= 0 {
		return scheme + "?" + deepLink[i+1:]
	}
	return scheme + "?pa=" + url.QueryEscape(vpa) + "&am=" + amount.StringFixed(2) + "&cu=" + Currency
}
