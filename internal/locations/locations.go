// Package locations holds the static table of stakes/districts and their
// wards/branches used by the registration form and the dashboard filters.
package locations

// stakes preserves the order the form presents the units in.
var stakes = []string{
	"ស្តេកខាងត្បូង",
	"ស្តេកខាងជើង",
	"មណ្ឌលខាងកើត",
	"មណ្ឌលកំពង់ចាម និង កំពង់ធំ",
	"មណ្ឌលបាត់ដំបង",
	"មណ្ឌលសៀមរាប",
}

var wards = map[string][]string{
	"ស្តេកខាងត្បូង": {
		"វួដស្ទឹងមានជ័យទី១",
		"វួដស្ទឹងមានជ័យទី២",
		"វួដស្ទឹងមានជ័យទី៣",
		"វួដទួលទំពូង",
	},
	"ស្តេកខាងជើង": {
		"វួដទឹកថ្លា",
		"វួដទឹកល្អក់",
		"វួដទួលគោក",
		"វួលទួលសង្កែ",
		"វួដពោធិចិនតុង",
		"សាខាសែនសុខ",
	},
	"មណ្ឌលខាងកើត": {
		"សាខាចំការមន",
		"សាខាច្បារអំពៅ",
		"សាខាកណ្តាល",
		"សាខាតាខ្មៅទី១",
		"សាខាតាខ្មៅទី២",
		"សាខាតាខ្មៅទី៣",
	},
	"មណ្ឌលកំពង់ចាម និង កំពង់ធំ": {
		"សាខាកំពង់ចាមទី១",
		"សាខាកំពង់ចាមទី២",
		"សាខាកំពង់ចាមទី៣",
		"សាខាកំពង់ធំ",
	},
	"មណ្ឌលបាត់ដំបង": {
		"សាខាស្ទឹងសង្កែ",
		"សាខារតនៈ",
		"សាខា១៣មករា",
	},
	"មណ្ឌលសៀមរាប": {
		"សាខាសៀមរាបទី១",
		"សាខាសៀមរាបទី២",
		"សាខាសៀមរាបទី៣",
	},
}

// Stakes returns all stake/district names in form order.
func Stakes() []string {
	out := make([]string, len(stakes))
	copy(out, stakes)
	return out
}

// Wards returns the wards/branches under the given stake, or nil for an
// unknown stake.
func Wards(stake string) []string {
	ws, ok := wards[stake]
	if !ok {
		return nil
	}
	out := make([]string, len(ws))
	copy(out, ws)
	return out
}

// ValidStake reports whether the stake exists in the table.
func ValidStake(stake string) bool {
	_, ok := wards[stake]
	return ok
}

// ValidWard reports whether ward belongs to the given stake. The two fields
// are not independently valid: a ward is only meaningful under its stake.
func ValidWard(stake, ward string) bool {
	for _, w := range wards[stake] {
		if w == ward {
			return true
		}
	}
	return false
}

// Table returns the whole stake to wards mapping for clients that render the
// two dependent selects. The returned map is a copy.
func Table() map[string][]string {
	out := make(map[string][]string, len(wards))
	for stake := range wards {
		out[stake] = Wards(stake)
	}
	return out
}
