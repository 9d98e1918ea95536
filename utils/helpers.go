package utils

// Pagination defaults shared by every listing endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 200
)

// NormalizePage returns a 1-based page number, falling back to the default
// for zero or negative input.
func NormalizePage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// NormalizeLimit clamps the page size into [1, MaxLimit], falling back to the
// default for zero or negative input.
func NormalizeLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// TotalPages is ceil(total/limit); zero rows means zero pages.
func TotalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
