package gateway

import "strings"

// SupportedCurrencies lists every currency the gateway can charge in. The
// processor account may support a narrower set.
var SupportedCurrencies = []string{
	"USD", "AED", "ALL", "AMD", "ANG", "AUD", "AWG", "AZN", "BAM", "BBD", "BDT", "BGN", "BIF", "BMD", "BND", "BSD",
	"BWP", "BZD", "CAD", "CDF", "CHF", "CNY", "DKK", "DOP", "DZD", "EGP", "ETB", "EUR", "FJD", "GBP", "GEL", "GIP",
	"GMD", "GYD", "HKD", "HRK", "HTG", "IDR", "ILS", "ISK", "JMD", "JPY", "KES", "KGS", "KHR", "KMF", "KRW", "KYD",
	"KZT", "LBP", "LKR", "LRD", "LSL", "MAD", "MDL", "MGA", "MKD", "MMK", "MNT", "MOP", "MRO", "MVR", "MWK", "MXN",
	"MYR", "MZN", "NAD", "NGN", "NOK", "NPR", "NZD", "PGK", "PHP", "PKR", "PLN", "QAR", "RON", "RSD", "RUB", "RWF",
	"SAR", "SBD", "SCR", "SEK", "SGD", "SLL", "SOS", "SZL", "THB", "TJS", "TOP", "TRY", "TTD", "TWD", "TZS", "UAH",
	"UGX", "UZS", "VND", "VUV", "WST", "XAF", "XCD", "YER", "ZAR",
}

// Currencies whose minor unit equals the major unit. Amounts in these are
// sent to the processor as-is instead of being multiplied into cents.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {},
	"XOF": {}, "XPF": {},
}

// IsZeroDecimal reports whether the currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// IsSupported reports whether the currency code is one the gateway accepts.
func IsSupported(currency string) bool {
	needle := strings.ToUpper(strings.TrimSpace(currency))
	for _, c := range SupportedCurrencies {
		if c == needle {
			return true
		}
	}
	return false
}

// UnitAmount converts a major-unit cost into the processor's smallest
// currency unit. Zero-decimal currencies pass through unchanged; all others
// are expressed in hundredths.
func UnitAmount(cost float64, currency string) int64 {
	if IsZeroDecimal(currency) {
		return int64(cost + 0.5)
	}
	return int64(cost*100 + 0.5)
}
