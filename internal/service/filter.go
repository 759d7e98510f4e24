package service

import (
	"strconv"
	"strings"

	"ysa-registration/internal/model"
)

// PageSize is the fixed number of rows per dashboard page.
const PageSize = 50

// Filter describes a dashboard view: free-text search plus exact-match
// facets. The zero value matches everything. Filters are values; deriving a
// new view never mutates the old one.
type Filter struct {
	Search     string
	Gender     string
	TShirtSize string
	Stake      string
	Ward       string
}

// Matches reports whether a record passes every set facet. The search term
// is matched case-insensitively against the Khmer name, the Latin name,
// and the phone number.
func (f Filter) Matches(reg model.Registration) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(reg.FullName), needle) &&
			!strings.Contains(strings.ToLower(reg.EnglishName), needle) &&
			!strings.Contains(reg.PhoneNumber, needle) {
			return false
		}
	}
	if f.Gender != "" && reg.Gender != f.Gender {
		return false
	}
	if f.TShirtSize != "" && reg.TShirtSize != f.TShirtSize {
		return false
	}
	if f.Stake != "" && reg.Stake != f.Stake {
		return false
	}
	if f.Ward != "" && reg.Ward != f.Ward {
		return false
	}
	return true
}

// Apply returns the records passing the filter, preserving input order.
func (f Filter) Apply(regs []model.Registration) []model.Registration {
	out := make([]model.Registration, 0, len(regs))
	for _, reg := range regs {
		if f.Matches(reg) {
			out = append(out, reg)
		}
	}
	return out
}

// Paginate slices one page out of an already filtered list. Pages are
// 1-based; out-of-range pages return an empty slice. totalPages is at least
// 1 so an empty result still renders one empty page.
func Paginate(regs []model.Registration, page int) (items []model.Registration, totalPages int) {
	totalPages = (len(regs) + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 || page > totalPages {
		return []model.Registration{}, totalPages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(regs) {
		end = len(regs)
	}
	return regs[start:end], totalPages
}

var khmerDigits = [10]rune{'០', '១', '២', '៣', '៤', '៥', '៦', '៧', '៨', '៩'}

// KhmerNumerals renders a non-negative number with Khmer digits for
// display, e.g. row numbers and page counters.
func KhmerNumerals(n int) string {
	var b strings.Builder
	for _, c := range strconv.Itoa(n) {
		if c >= '0' && c <= '9' {
			b.WriteRune(khmerDigits[c-'0'])
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
