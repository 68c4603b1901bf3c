package ledger

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"time"

	"expense-tracker-server/src/models"
)

type Direction string

const (
	DirectionAll     Direction = "all"
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

type Period string

const (
	PeriodAll       Period = "all"
	PeriodThisMonth Period = "this-month"
	PeriodLastMonth Period = "last-month"
)

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortHighest SortOrder = "highest"
	SortLowest  SortOrder = "lowest"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "", DirectionAll:
		return DirectionAll, nil
	case DirectionIncome, DirectionExpense:
		return d, nil
	}
	return "", fmt.Errorf("unknown filter %q: want all, income or expense", s)
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(s)); p {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodThisMonth, PeriodLastMonth:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q: want all, this-month or last-month", s)
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(s)); o {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortHighest, SortLowest:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort %q: want newest, oldest, highest or lowest", s)
}

// Filter selects and orders the records shown in the list view. The zero
// value shows everything, newest first.
type Filter struct {
	Search    string
	Direction Direction
	Period    Period
	Sort      SortOrder
}

// Apply returns the filtered, sorted view of records as seen at now. The
// sequence is recomputed from records on every iteration and never modifies
// the slice it was given.
func (f Filter) Apply(records []models.Transaction, now time.Time) iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		matched := make([]models.Transaction, 0, len(records))
		for _, tx := range records {
			if f.matches(tx, now) {
				matched = append(matched, tx)
			}
		}
		slices.SortStableFunc(matched, f.compare)
		for _, tx := range matched {
			if !yield(tx) {
				return
			}
		}
	}
}

func (f Filter) matches(tx models.Transaction, now time.Time) bool {
	return f.matchesSearch(tx) && f.matchesDirection(tx) && f.matchesPeriod(tx, now)
}

func (f Filter) matchesSearch(tx models.Transaction) bool {
	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(tx.Text), term) {
		return true
	}
	return tx.Category != "" && strings.Contains(strings.ToLower(tx.Category), term)
}

func (f Filter) matchesDirection(tx models.Transaction) bool {
	switch f.Direction {
	case DirectionIncome:
		return tx.Amount > 0
	case DirectionExpense:
		return tx.Amount < 0
	}
	return true
}

func (f Filter) matchesPeriod(tx models.Transaction, now time.Time) bool {
	if f.Period == "" || f.Period == PeriodAll {
		return true
	}
	date, ok := ParseDate(tx.Date)
	if !ok {
		return false
	}

	var target time.Time
	switch f.Period {
	case PeriodThisMonth:
		target = now
	case PeriodLastMonth:
		target = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	default:
		return false
	}
	return date.Year() == target.Year() && date.Month() == target.Month()
}

func (f Filter) compare(a, b models.Transaction) int {
	switch f.Sort {
	case SortOldest:
		return dateKey(a).Compare(dateKey(b))
	case SortHighest:
		return cmp.Compare(math.Abs(b.Amount), math.Abs(a.Amount))
	case SortLowest:
		return cmp.Compare(math.Abs(a.Amount), math.Abs(b.Amount))
	default:
		return dateKey(b).Compare(dateKey(a))
	}
}

var epoch = time.Unix(0, 0).UTC()

// dateKey places dateless and unparseable records at the Unix epoch.
func dateKey(tx models.Transaction) time.Time {
	if date, ok := ParseDate(tx.Date); ok {
		return date
	}
	return epoch
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01",
}

// ParseDate reads the ISO-like date strings the form produces. Calendar
// dates are taken as-is, without shifting through a time zone.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
