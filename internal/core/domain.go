package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used for persisted dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Brand struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	Purchase struct {
		ID            int64
		Date          Date
		NumBoxes      int
		DiapersPerBox int
		Brand         string
		Size          Size // empty for rows recorded before sizes existed
		Cost          Money
		CreatedAt     time.Time
	}

	// NewPurchase carries the caller-supplied fields of a purchase to record.
	NewPurchase struct {
		Date          Date
		NumBoxes      int
		DiapersPerBox int
		Brand         string
		Size          Size
		Cost          Money
	}

	BoxOpening struct {
		ID         int64
		PurchaseID int64
		BoxNumber  int
		DateOpened Date // zero means the box is still sealed
		CreatedAt  time.Time
	}
)

var (
	ErrNotFound       = errors.New("no such record")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidBoxes   = errors.New("number of boxes must be at least 1")
	ErrInvalidPerBox  = errors.New("diapers per box must be at least 1")
	ErrTooManyBoxes   = errors.New("too many boxes")
	ErrTooManyPerBox  = errors.New("too many diapers per box")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyBrand     = errors.New("empty brand name")
	ErrDuplicateBrand = errors.New("brand name already exists")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// TotalDiapers is num_boxes × diapers_per_box.
func (p Purchase) TotalDiapers() int {
	return p.NumBoxes * p.DiapersPerBox
}

// CostPerDiaper returns cost / total diapers, or zero when there are no diapers.
func (p Purchase) CostPerDiaper() decimal.Decimal {
	return p.Cost.PerUnit(int64(p.TotalDiapers()))
}

// Normalize trims free-text fields in place.
func (np *NewPurchase) Normalize() {
	np.Brand = strings.TrimSpace(np.Brand)
}

func (np NewPurchase) Validate() error {
	if err := np.Date.Validate(); err != nil {
		return err
	}
	if np.NumBoxes < 1 {
		return ErrInvalidBoxes
	}
	if np.NumBoxes > MaxBoxes {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyBoxes, np.NumBoxes, MaxBoxes)
	}
	if np.DiapersPerBox < 1 {
		return ErrInvalidPerBox
	}
	if np.DiapersPerBox > MaxDiapersPerBox {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyPerBox, np.DiapersPerBox, MaxDiapersPerBox)
	}
	if strings.TrimSpace(np.Brand) == "" {
		return ErrEmptyBrand
	}
	if err := np.Size.Validate(); err != nil {
		return err
	}
	if err := np.Cost.Validate(); err != nil {
		return err
	}
	return nil
}

// IsOpened reports whether the box has an opened date.
func (o BoxOpening) IsOpened() bool {
	return !o.DateOpened.IsZero()
}

// CountOpened returns how many of the given openings carry a date.
func CountOpened(openings []BoxOpening) int {
	n := 0
	for _, o := range openings {
		if o.IsOpened() {
			n++
		}
	}
	return n
}
