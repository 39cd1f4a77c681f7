// Package display renders listings, pages and statistics for the terminal.
package display

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gauthierbraillon/kufarwatch/internal/aggregator"
	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

const (
	separator     = " • "
	maxTitleRunes = 80
	dateLayout    = "02.01.2006 15:04 MST"

	// Price band thresholds, in BYN.
	lowBandBYN = 50
	midBandBYN = 100
)

// displayZone is the fixed UTC+3 offset listings are shown in.
var displayZone = time.FixedZone("MSK", 3*60*60)

// Formatter formats listings for terminal display in one language and currency.
type Formatter struct {
	currency string
	rates    config.Rates
	printer  *message.Printer
}

// NewFormatter creates a formatter. currency must be present in rates.
func NewFormatter(lang language.Tag, currency string, rates config.Rates) (*Formatter, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !rates.Supports(currency) {
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownCurrency, currency)
	}

	return &Formatter{
		currency: currency,
		rates:    rates,
		printer:  NewPrinter(lang),
	}, nil
}

// Printer returns the printer used for translated text.
func (f *Formatter) Printer() *message.Printer {
	return f.printer
}

// FormatListing formats a single listing. n is its 1-based position in the result.
func (f *Formatter) FormatListing(n int, l kufar.Listing) string {
	var lines []string

	header := fmt.Sprintf("%d. %s", n, f.TruncateText(l.Title, maxTitleRunes))
	if l.SourceLabel != "" {
		header = fmt.Sprintf("%d. [%s] %s", n, l.SourceLabel, f.TruncateText(l.Title, maxTitleRunes))
	}
	lines = append(lines, header)

	meta := f.FormatPrice(l.Price)
	if listed := f.FormatListedAt(l.ListedAt); listed != "" {
		meta += separator + listed
	}
	lines = append(lines, "   "+meta)

	if l.Link != "" {
		lines = append(lines, "   "+l.Link)
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatPage formats a page with a header showing the total and page position.
func (f *Formatter) FormatPage(p Page) string {
	if p.TotalItems == 0 {
		return f.printer.Sprintf("No listings found.") + "\n"
	}

	var b strings.Builder
	b.WriteString(f.printer.Sprintf("Found %d listings, page %d/%d", p.TotalItems, p.Number, p.TotalPages))
	b.WriteString("\n\n")

	for i, l := range p.Listings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatListing(p.Offset+i+1, l))
	}

	return b.String()
}

// FormatPrice renders a BYN price in the display currency with its price band.
// The unlisted sentinel renders as "negotiable".
func (f *Formatter) FormatPrice(byn float64) string {
	if byn <= 0 {
		return f.printer.Sprintf("negotiable")
	}

	return fmt.Sprintf("%s (%s)", f.formatAmount(byn), f.printer.Sprintf(band(byn)))
}

// FormatListedAt renders a publication time in the UTC+3 display zone.
// An absent time renders as an empty string.
func (f *Formatter) FormatListedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(displayZone).Format(dateLayout)
}

// FormatStats formats a statistics summary for label over days.
// Stats prices are already in s.Currency.
func (f *Formatter) FormatStats(label string, days int, s aggregator.Stats) string {
	p := f.printer
	lines := []string{
		p.Sprintf("Statistics for %s over %d days", label, days),
		p.Sprintf("Listings: %d", s.Total),
		p.Sprintf("This week: %d", s.Week),
	}

	if s.AvgPrice == 0 && s.MinPrice == 0 && s.MaxPrice == 0 {
		lines = append(lines, p.Sprintf("no price data"))
		return strings.Join(lines, "\n") + "\n"
	}

	lines = append(lines,
		p.Sprintf("Average price: %s", f.amount(s.AvgPrice, s.Currency)),
		p.Sprintf("Min price: %s", f.amount(s.MinPrice, s.Currency)),
		p.Sprintf("Max price: %s", f.amount(s.MaxPrice, s.Currency)),
	)
	return strings.Join(lines, "\n") + "\n"
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *Formatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

func (f *Formatter) formatAmount(byn float64) string {
	converted, err := f.rates.Convert(byn, f.currency)
	if err != nil {
		// currency was validated in NewFormatter
		converted = byn
	}
	return f.amount(converted, f.currency)
}

func (f *Formatter) amount(v float64, currency string) string {
	return f.printer.Sprintf("%.2f", v) + " " + currency
}

func band(byn float64) string {
	switch {
	case byn < lowBandBYN:
		return "low"
	case byn < midBandBYN:
		return "mid"
	default:
		return "high"
	}
}
