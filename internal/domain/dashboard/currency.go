package dashboard

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/forestops/procdash/internal/domain/project"
)

// CurrencySuffix follows every formatted amount.
const CurrencySuffix = " ₪"

var hebrew = message.NewPrinter(language.Hebrew)

// FormatCurrency renders a numeric text attribute as whole shekels with
// locale grouping. Blank or malformed input renders as zero.
func FormatCurrency(v string) string {
	n, ok := project.ParseNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return "0" + CurrencySuffix
	}
	return FormatAmount(n)
}

// FormatAmount renders an amount as whole shekels.
func FormatAmount(n float64) string {
	return hebrew.Sprintf("%d", int64(math.Round(n))) + CurrencySuffix
}
