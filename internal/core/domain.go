package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Can    DrinkKind = "can"
	Bottle DrinkKind = "bottle"
	Draft  DrinkKind = "draft"
	Other  DrinkKind = "other"
)

type (
	// DrinkKind is the container/type category of a drink.
	DrinkKind string

	// Date is a calendar date with no time component. Always construct it
	// via NewDate or ParseDate so values are normalized and comparable.
	Date struct {
		time.Time
	}

	// Drink is a user-defined beverage type.
	Drink struct {
		ID        int64
		Name      string
		Kind      DrinkKind
		VolumeML  float64 // serving volume in milliliters
		ABV       float64 // alcohol percentage, 0-100
		SortOrder int     // user-controlled display position
		OwnerID   string
		CreatedAt time.Time
	}

	// Record is one dated entry of quantity consumed of a specific drink.
	// Drink is resolved at read time; a missing drink (nil after a broken
	// join) contributes zero volume and alcohol to aggregates.
	Record struct {
		ID        int64
		Date      Date
		DrinkID   int64
		Drink     *Drink
		Quantity  float64 // servings, fractional allowed (e.g. 0.5)
		OwnerID   string
		CreatedAt time.Time
	}

	// SortUpdate pairs a drink id with its new display position.
	SortUpdate struct {
		DrinkID   int64
		SortOrder int
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidVolume   = errors.New("invalid volume")
	ErrInvalidABV      = errors.New("invalid alcohol percentage")
	ErrInvalidKind     = errors.New("invalid drink kind")
	ErrEmptyName       = errors.New("empty drink name")
	ErrNotFound        = errors.New("not found")
)

// NewDate creates a Date from year, month, day normalized to UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current date in the local timezone, normalized.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Key returns the YYYY-MM-DD form used for storage and map keys.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month, 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(n int) Date {
	t := d.AddDate(0, 0, n)
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := first.AddDate(0, 1, -1)
	return first, NewDate(last.Year(), int(last.Month()), last.Day())
}

// YearRange returns January 1st and December 31st of the given year.
func YearRange(year int) (Date, Date) {
	return NewDate(year, 1, 1), NewDate(year, 12, 31)
}

func (k DrinkKind) IsValid() bool {
	switch k {
	case Can, Bottle, Draft, Other:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (k DrinkKind) String() string {
	return string(k)
}

func (d Drink) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	if len(d.Name) > 100 {
		return errors.New("drink name too long (max 100 characters)")
	}
	if !d.Kind.IsValid() {
		return ErrInvalidKind
	}
	if d.VolumeML <= 0 {
		return ErrInvalidVolume
	}
	if d.ABV < 0 || d.ABV > 100 {
		return ErrInvalidABV
	}
	return nil
}

// Validate checks a record before it is written. Readers never validate:
// aggregation is total over whatever the store returns.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.DrinkID <= 0 {
		return errors.New("missing drink reference")
	}
	if r.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// VolumeML returns the total volume of the record in milliliters,
// zero when the drink is unresolved.
func (r Record) VolumeML() float64 {
	if r.Drink == nil {
		return 0
	}
	return r.Quantity * r.Drink.VolumeML
}

// AlcoholML returns the milliliters of pure alcohol in the record,
// zero when the drink is unresolved.
func (r Record) AlcoholML() float64 {
	if r.Drink == nil {
		return 0
	}
	return r.Quantity * r.Drink.VolumeML * r.Drink.ABV / 100.0
}
