package web

import (
	"strconv"

	"github.com/pbarbosa/descobre/internal/i18n"
)

// resultsCounter renders the "Showing 91 - 95 of 95" line for one
// result page. offset is 0-based; the displayed range is 1-based and
// clamped to the total.
func resultsCounter(locale i18n.Locale, offset, itemsLength, total int) string {
	start := offset + 1
	end := offset + itemsLength
	if end > total {
		end = total
	}

	return i18n.Tr(locale, i18n.KeyPaginationShowing,
		"start", strconv.Itoa(start),
		"end", strconv.Itoa(end),
		"total", strconv.Itoa(total),
	)
}
