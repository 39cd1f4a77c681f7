package display

import "github.com/gauthierbraillon/kufarwatch/internal/kufar"

// PageSize is the number of listings shown per page.
const PageSize = 10

// Page is one screen of a result set. Number is 1-based.
type Page struct {
	Listings   []kufar.Listing
	Number     int
	TotalPages int
	TotalItems int
	// Offset is the index of the first listing of the page in the full result.
	Offset int
}

// Paginate returns page of listings, perPage at a time. The page number
// is clamped into [1, TotalPages]; an empty result has a single empty page.
func Paginate(listings []kufar.Listing, page, perPage int) Page {
	if perPage <= 0 {
		perPage = PageSize
	}

	total := len(listings)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	page = min(max(page, 1), pages)

	start := (page - 1) * perPage
	end := min(start+perPage, total)

	return Page{
		Listings:   listings[start:end],
		Number:     page,
		TotalPages: pages,
		TotalItems: total,
		Offset:     start,
	}
}
