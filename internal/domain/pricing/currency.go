package pricing

import (
	"fmt"
	"strings"
)

// eurRates converts one unit of a currency into EUR. The table is closed:
// comparison-grade only, refreshed with releases, never used for accounting.
var eurRates = map[string]float64{
	"EUR": 1.0,
	"GBP": 1.17,
	"USD": 0.92,
	"CAD": 0.68,
	"CHF": 1.05,
	"PLN": 0.23,
	"CZK": 0.040,
	"DKK": 0.134,
	"SEK": 0.088,
	"HUF": 0.0025,
	"RON": 0.20,
}

// ToEUR converts an amount in the given currency to EUR.
func ToEUR(amount float64, currency string) (float64, error) {
	rate, ok := eurRates[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("no EUR rate for currency %q", currency)
	}
	return amount * rate, nil
}

// FromEUR converts an EUR amount into the given currency.
func FromEUR(amount float64, currency string) (float64, error) {
	rate, ok := eurRates[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("no EUR rate for currency %q", currency)
	}
	return amount / rate, nil
}

// KnownCurrency reports whether the table covers a currency code.
func KnownCurrency(currency string) bool {
	_, ok := eurRates[strings.ToUpper(currency)]
	return ok
}
