package display

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gauthierbraillon/kufarwatch/internal/aggregator"
	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

func newFormatter(t *testing.T, lang language.Tag, currency string) *Formatter {
	t.Helper()
	f, err := NewFormatter(lang, currency, config.DefaultRates())
	require.NoError(t, err)
	return f
}

func makeListings(n int) []kufar.Listing {
	out := make([]kufar.Listing, n)
	for i := range out {
		id := fmt.Sprintf("%d", i+1)
		out[i] = kufar.Listing{ID: id, Title: "Listing " + id, Link: kufar.ItemURL(id)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	listings := makeListings(23)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantLen   int
		wantFirst string
	}{
		{"first page", 1, 1, 10, "1"},
		{"middle page", 2, 2, 10, "11"},
		{"last partial page", 3, 3, 3, "21"},
		{"page past the end is clamped", 9, 3, 3, "21"},
		{"page below one is clamped", 0, 1, 10, "1"},
		{"negative page is clamped", -4, 1, 10, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(listings, tt.page, PageSize)

			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 23, p.TotalItems)
			require.Len(t, p.Listings, tt.wantLen)
			assert.Equal(t, tt.wantFirst, p.Listings[0].ID)
			assert.Equal(t, (tt.wantPage-1)*PageSize, p.Offset)
		})
	}
}

func TestPaginate_EmptyResultHasOneEmptyPage(t *testing.T) {
	p := Paginate(nil, 5, PageSize)

	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Listings)
}

func TestPaginate_NonPositivePageSizeUsesDefault(t *testing.T) {
	p := Paginate(makeListings(15), 1, 0)

	assert.Len(t, p.Listings, PageSize)
	assert.Equal(t, 2, p.TotalPages)
}

func TestFormatPrice_NegotiableSentinel(t *testing.T) {
	assert.Equal(t, "negotiable", newFormatter(t, language.English, "BYN").FormatPrice(0))
	assert.Equal(t, "договорная", newFormatter(t, language.Russian, "BYN").FormatPrice(0))
}

func TestFormatPrice_Bands(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")

	assert.Equal(t, "49.99 BYN (low)", f.FormatPrice(49.99))
	assert.Equal(t, "50.00 BYN (mid)", f.FormatPrice(50))
	assert.Equal(t, "150.00 BYN (high)", f.FormatPrice(150))
}

func TestFormatPrice_ConvertsToDisplayCurrencyButBandsInBYN(t *testing.T) {
	f := newFormatter(t, language.English, "USD")

	assert.Equal(t, "10.00 USD (low)", f.FormatPrice(32))
	assert.Equal(t, "50.00 USD (high)", f.FormatPrice(160))
}

func TestFormatPrice_RussianDecimalSeparator(t *testing.T) {
	f := newFormatter(t, language.Russian, "BYN")

	assert.Equal(t, "12,50 BYN (дёшево)", f.FormatPrice(12.5))
}

func TestNewFormatter_RejectsUnknownCurrency(t *testing.T) {
	_, err := NewFormatter(language.English, "XYZ", config.DefaultRates())

	require.ErrorIs(t, err, config.ErrUnknownCurrency)
}

func TestFormatListedAt_ShiftsToDisplayZone(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")

	got := f.FormatListedAt(time.Date(2024, 1, 9, 22, 30, 0, 0, time.UTC))

	assert.Equal(t, "10.01.2024 01:30 MSK", got)
}

func TestFormatListedAt_AbsentDateRendersNothing(t *testing.T) {
	assert.Empty(t, newFormatter(t, language.English, "BYN").FormatListedAt(time.Time{}))
}

func TestFormatListing(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")
	l := kufar.Listing{
		ID:          "42",
		Title:       "Holy Sinner hoodie",
		Price:       75,
		Link:        "https://kufar.by/item/42",
		ListedAt:    time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC),
		SourceLabel: "Holy Sinner",
	}

	out := f.FormatListing(3, l)

	assert.Contains(t, out, "3. [Holy Sinner] Holy Sinner hoodie")
	assert.Contains(t, out, "75.00 BYN (mid)")
	assert.Contains(t, out, "09.01.2024 15:00 MSK")
	assert.Contains(t, out, "https://kufar.by/item/42")
}

func TestFormatListing_UnlabelledUndated(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")

	out := f.FormatListing(1, kufar.Listing{ID: "1", Title: "Plain"})

	assert.True(t, strings.HasPrefix(out, "1. Plain\n"))
	assert.NotContains(t, out, "MSK")
	assert.Contains(t, out, "negotiable")
}

func TestFormatPage_HeaderAndNumbering(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")

	out := f.FormatPage(Paginate(makeListings(23), 2, PageSize))

	assert.True(t, strings.HasPrefix(out, "Found 23 listings, page 2/3\n"))
	assert.Contains(t, out, "11. Listing 11")
	assert.Contains(t, out, "20. Listing 20")
	assert.NotContains(t, out, "Listing 21")
}

func TestFormatPage_Empty(t *testing.T) {
	assert.Equal(t, "No listings found.\n", newFormatter(t, language.English, "BYN").FormatPage(Paginate(nil, 1, PageSize)))
	assert.Equal(t, "Объявлений не найдено.\n", newFormatter(t, language.Russian, "BYN").FormatPage(Paginate(nil, 1, PageSize)))
}

func TestFormatStats(t *testing.T) {
	f := newFormatter(t, language.English, "USD")
	s := aggregator.Stats{Total: 12, Week: 4, AvgPrice: 15, MinPrice: 10, MaxPrice: 20, Currency: "USD"}

	out := f.FormatStats("Holy Sinner", 30, s)

	assert.Contains(t, out, "Statistics for Holy Sinner over 30 days")
	assert.Contains(t, out, "Listings: 12")
	assert.Contains(t, out, "This week: 4")
	assert.Contains(t, out, "Average price: 15.00 USD")
	assert.Contains(t, out, "Min price: 10.00 USD")
	assert.Contains(t, out, "Max price: 20.00 USD")
}

func TestFormatStats_NoPriceData(t *testing.T) {
	f := newFormatter(t, language.Russian, "BYN")

	out := f.FormatStats("Enemy", 30, aggregator.Stats{Total: 2, Currency: "BYN"})

	assert.Contains(t, out, "Объявлений: 2")
	assert.Contains(t, out, "нет данных о ценах")
	assert.NotContains(t, out, "Средняя цена")
}

func TestTruncateText(t *testing.T) {
	f := newFormatter(t, language.English, "BYN")

	assert.Equal(t, "Short", f.TruncateText("Short", 20))
	assert.Equal(t, "Худи Холи ...", f.TruncateText("Худи Холи Синнер оверсайз", 13))
	assert.Equal(t, "...", f.TruncateText("abcdef", 2))
}

func TestParseLanguage(t *testing.T) {
	tag, err := ParseLanguage("ru")
	require.NoError(t, err)
	assert.Equal(t, language.Russian, tag)

	tag, err = ParseLanguage("en-GB")
	require.NoError(t, err)
	assert.Equal(t, language.English, tag)

	_, err = ParseLanguage("de")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = ParseLanguage("not a tag!")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}
