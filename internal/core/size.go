package core

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the diaper size printed on the box.
type Size string

const (
	SizeUnknown Size = ""
	SizeNewborn Size = "Newborn"
	Size1       Size = "Size 1"
	Size2       Size = "Size 2"
	Size3       Size = "Size 3"
	Size4       Size = "Size 4"
	Size5       Size = "Size 5"
	Size6       Size = "Size 6"
	Size7       Size = "Size 7"
)

var ErrInvalidSize = errors.New("invalid size")

// Sizes lists the selectable sizes in display order.
var Sizes = []Size{SizeNewborn, Size1, Size2, Size3, Size4, Size5, Size6, Size7}

// DiapersPerBoxPresets are the common box counts offered by the purchase form.
var DiapersPerBoxPresets = []int{20, 24, 32, 40, 50, 60, 72, 80, 84, 92, 100, 120, 128, 144, 160}

// MaxFormBoxes is the largest box count offered by the purchase form.
const MaxFormBoxes = 10

// Upper bounds accepted for any purchase. They keep box rows per purchase and
// the diaper totals well inside int64.
const (
	MaxBoxes         = 100
	MaxDiapersPerBox = 10000
)

// ParseSize matches s against the known sizes, ignoring case and surrounding space.
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	for _, sz := range Sizes {
		if strings.EqualFold(string(sz), s) {
			return sz, nil
		}
	}
	return SizeUnknown, fmt.Errorf("%w: %q", ErrInvalidSize, s)
}

// Validate accepts only the known sizes. The unknown size is reserved for legacy rows.
func (s Size) Validate() error {
	for _, sz := range Sizes {
		if s == sz {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidSize, string(s))
}

func (s Size) String() string {
	return string(s)
}
