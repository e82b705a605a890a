package utils

import (
	"strconv"
)

// MaxPage caps the page query value
const MaxPage = 100000

// ParsePagination reads page and limit query values, clamping page to
// MaxPage and limit to maxLimit
func ParsePagination(pageStr, limitStr string, defaultLimit, maxLimit int) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit
}
