package treasury

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "tsfarb/internal/errors"
)

// monthAbbrevs maps delivery month abbreviations to calendar months. Treasury
// futures trade on the quarterly cycle, so only those four appear in the data.
var monthAbbrevs = map[string]time.Month{
	"MAR": time.March,
	"JUN": time.June,
	"SEP": time.September,
	"DEC": time.December,
}

// monthCodes maps single-letter exchange delivery codes to calendar months.
var monthCodes = map[byte]time.Month{
	'F': time.January, 'G': time.February, 'H': time.March,
	'J': time.April, 'K': time.May, 'M': time.June,
	'N': time.July, 'Q': time.August, 'U': time.September,
	'V': time.October, 'X': time.November, 'Z': time.December,
}

// ParseContract extracts the delivery month and year from a contract
// identifier. Two forms occur in the inputs:
//
//	"DEC 21"  month abbreviation plus two-digit year
//	"TUH24"   exchange code: product root, month letter, two-digit year
func ParseContract(code string) (time.Month, int, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	if s == "" {
		return 0, 0, fmt.Errorf("empty contract code")
	}

	if len(s) >= 6 && s[3] == ' ' {
		month, ok := monthAbbrevs[s[:3]]
		if !ok {
			return 0, 0, fmt.Errorf("contract %q: unknown delivery month %q", code, s[:3])
		}
		year, err := strconv.Atoi(s[4:6])
		if err != nil {
			return 0, 0, fmt.Errorf("contract %q: unparseable year %q", code, s[4:6])
		}
		return month, 2000 + year, nil
	}

	// Exchange form: the last two characters are the year, the character
	// before them is the delivery month code.
	if len(s) >= 4 {
		year, err := strconv.Atoi(s[len(s)-2:])
		if err != nil {
			return 0, 0, fmt.Errorf("contract %q: unparseable year %q", code, s[len(s)-2:])
		}
		month, ok := monthCodes[s[len(s)-3]]
		if !ok {
			return 0, 0, fmt.Errorf("contract %q: unknown delivery month code %q", code, string(s[len(s)-3]))
		}
		return month, 2000 + year, nil
	}

	return 0, 0, fmt.Errorf("contract %q: unrecognized format", code)
}

// LastTradingDays is the static reference table mapping a delivery month to
// the day of month the contract stops trading. Entries are unique per
// (month, year); duplicates are rejected when the table is built.
type LastTradingDays struct {
	days map[MaturityKey]int
}

// NewLastTradingDays returns an empty table.
func NewLastTradingDays() *LastTradingDays {
	return &LastTradingDays{days: make(map[MaturityKey]int)}
}

// Add records the last trading day of month for a delivery month. A second
// entry for the same (month, year) is an error: the published lookup silently
// took the first match, which hides bad reference data.
func (t *LastTradingDays) Add(month time.Month, year, day int) error {
	key := MaturityKey{Month: month, Year: year}
	if _, exists := t.days[key]; exists {
		return fmt.Errorf("duplicate last-trading-day entry for month=%d year=%d", int(month), year)
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("last-trading-day entry for month=%d year=%d: day %d out of range", int(month), year, day)
	}
	t.days[key] = day
	return nil
}

// Day returns the recorded day of month for a delivery month.
func (t *LastTradingDays) Day(month time.Month, year int) (int, bool) {
	day, ok := t.days[MaturityKey{Month: month, Year: year}]
	return day, ok
}

// Len returns the number of entries in the table.
func (t *LastTradingDays) Len() int {
	return len(t.days)
}

// Resolver turns contract identifiers into maturity dates using the
// last-trading-day table.
type Resolver struct {
	table *LastTradingDays

	// overrides force a day of month for specific contract codes whose
	// delivery month has no recorded business day in the reference data.
	overrides map[string]int
}

// NewResolver creates a resolver over the given table with the standard
// override set (DEC 21 and MAR 22 settle on the calendar month end).
func NewResolver(table *LastTradingDays) *Resolver {
	return &Resolver{
		table: table,
		overrides: map[string]int{
			"DEC 21": 31,
			"MAR 22": 31,
		},
	}
}

// Resolve returns the maturity date for a contract identifier.
func (r *Resolver) Resolve(contract string) (time.Time, error) {
	month, year, err := ParseContract(contract)
	if err != nil {
		return time.Time{}, apperrors.NewAppError(apperrors.ErrTypeContract, "parse contract", err).
			WithContext("contract", contract)
	}

	if day, ok := r.overrides[strings.ToUpper(strings.TrimSpace(contract))]; ok {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	}

	day, ok := r.table.Day(month, year)
	if !ok {
		return time.Time{}, apperrors.NewUnresolvedContractError(contract, month, year)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// TTMDays returns the whole days from an observation date to the contract's
// maturity.
func TTMDays(observation, maturity time.Time) int {
	return int(maturity.Sub(observation).Hours() / 24)
}
