package display

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ErrUnsupportedLanguage is returned for display languages without translations.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Supported display languages. English keys double as the English text.
var supported = []language.Tag{language.Russian, language.English}

// translations maps English display strings to Russian.
var translations = []struct{ en, ru string }{
	{"Found %d listings, page %d/%d", "Найдено объявлений: %d, страница %d/%d"},
	{"No listings found.", "Объявлений не найдено."},
	{"negotiable", "договорная"},
	{"low", "дёшево"},
	{"mid", "средне"},
	{"high", "дорого"},
	{"Statistics for %s over %d days", "Статистика %s за %d дн."},
	{"Listings: %d", "Объявлений: %d"},
	{"This week: %d", "За неделю: %d"},
	{"Average price: %s", "Средняя цена: %s"},
	{"Min price: %s", "Минимальная цена: %s"},
	{"Max price: %s", "Максимальная цена: %s"},
	{"no price data", "нет данных о ценах"},
	{"Searching %s %s (%ds)", "Ищу %s %s (%d с)"},
	{"Search finished in %.1fs", "Поиск завершён за %.1f с"},
	{"Did you know? %s", "А вы знаете? %s"},
	{"Search failed. Try the website:", "Поиск не удался. Попробуйте сайт:"},
	{"Listings are checked on every endpoint until one answers.", "Объявления запрашиваются у каждого API по очереди, пока один не ответит."},
	{"Every brand is searched under all of its spellings.", "Каждый бренд ищется по всем вариантам написания."},
	{"Listings without a date are always shown last.", "Объявления без даты всегда показываются последними."},
	{"Prices are converted from Belarusian rubles.", "Цены пересчитываются из белорусских рублей."},
}

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, t := range translations {
		if err := b.SetString(language.Russian, t.en, t.ru); err != nil {
			panic(fmt.Sprintf("display: bad translation %q: %v", t.en, err))
		}
		if err := b.SetString(language.English, t.en, t.en); err != nil {
			panic(fmt.Sprintf("display: bad translation %q: %v", t.en, err))
		}
	}
	return b
}

// ParseLanguage resolves a display language code such as "ru" or "en".
func ParseLanguage(code string) (language.Tag, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	base, _ := tag.Base()
	for _, s := range supported {
		if sb, _ := s.Base(); sb == base {
			return s, nil
		}
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// NewPrinter returns a printer that translates display strings and
// formats numbers for lang.
func NewPrinter(lang language.Tag) *message.Printer {
	return message.NewPrinter(lang, message.Catalog(messages))
}

// Facts are the rotating hints shown while a search runs.
func Facts() []string {
	return []string{
		"Listings are checked on every endpoint until one answers.",
		"Every brand is searched under all of its spellings.",
		"Listings without a date are always shown last.",
		"Prices are converted from Belarusian rubles.",
	}
}
