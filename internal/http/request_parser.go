package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"diapertrack/internal/core"
)

const customPerBox = "custom"

// purchaseForm holds the raw add-purchase fields so the form can be redisplayed as typed.
type purchaseForm struct {
	Date          string
	Size          string
	NumBoxes      string
	DiapersPerBox string
	CustomPerBox  string
	Brand         string
	Cost          string
	DateOpened    string
}

func readPurchaseForm(form url.Values) purchaseForm {
	return purchaseForm{
		Date:          strings.TrimSpace(form.Get("date")),
		Size:          strings.TrimSpace(form.Get("size")),
		NumBoxes:      strings.TrimSpace(form.Get("num_boxes")),
		DiapersPerBox: strings.TrimSpace(form.Get("diapers_per_box")),
		CustomPerBox:  strings.TrimSpace(form.Get("custom_diapers_per_box")),
		Brand:         sanitizeInput(form.Get("brand")),
		Cost:          strings.TrimSpace(form.Get("cost")),
		DateOpened:    strings.TrimSpace(form.Get("date_opened")),
	}
}

// defaultPurchaseForm pre-fills today's date and the most common box setup.
func defaultPurchaseForm(today core.Date) purchaseForm {
	return purchaseForm{
		Date:          today.String(),
		Size:          string(core.Size1),
		NumBoxes:      "1",
		DiapersPerBox: strconv.Itoa(core.DiapersPerBoxPresets[0]),
	}
}

var errCustomPerBox = fmt.Errorf("%w: enter a valid custom quantity", core.ErrInvalidPerBox)

// toPurchase converts the form into a validated purchase and the optional
// opened date for the first box.
func (f purchaseForm) toPurchase() (core.NewPurchase, core.Date, error) {
	var np core.NewPurchase

	date, err := core.ParseDate(f.Date)
	if err != nil {
		return np, core.Date{}, err
	}
	size, err := core.ParseSize(f.Size)
	if err != nil {
		return np, core.Date{}, err
	}
	boxes, err := strconv.Atoi(f.NumBoxes)
	if err != nil {
		return np, core.Date{}, core.ErrInvalidBoxes
	}
	if boxes > core.MaxFormBoxes {
		return np, core.Date{}, core.ErrTooManyBoxes
	}

	perBoxRaw := f.DiapersPerBox
	if perBoxRaw == customPerBox {
		perBoxRaw = f.CustomPerBox
	}
	perBox, err := strconv.Atoi(perBoxRaw)
	if err != nil || perBox < 1 {
		if f.DiapersPerBox == customPerBox {
			return np, core.Date{}, errCustomPerBox
		}
		return np, core.Date{}, core.ErrInvalidPerBox
	}

	cents, err := core.ParseDecimalToCents(f.Cost)
	if err != nil {
		return np, core.Date{}, err
	}

	var opened core.Date
	if f.DateOpened != "" {
		if opened, err = core.ParseDate(f.DateOpened); err != nil {
			return np, core.Date{}, err
		}
	}

	np = core.NewPurchase{
		Date:          date,
		NumBoxes:      boxes,
		DiapersPerBox: perBox,
		Brand:         f.Brand,
		Size:          size,
		Cost:          core.Money{Cents: cents},
	}
	np.Normalize()
	if err := np.Validate(); err != nil {
		return np, core.Date{}, err
	}
	return np, opened, nil
}

// validationMessage turns domain validation errors into form feedback.
// It returns "" for errors that are not caused by user input.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, errCustomPerBox):
		return "Please enter a valid custom quantity."
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date."
	case errors.Is(err, core.ErrInvalidSize):
		return "Please choose a diaper size."
	case errors.Is(err, core.ErrInvalidBoxes):
		return "Number of boxes must be at least 1."
	case errors.Is(err, core.ErrInvalidPerBox):
		return "Diapers per box must be at least 1."
	case errors.Is(err, core.ErrTooManyBoxes):
		return fmt.Sprintf("Number of boxes must be between 1 and %d.", core.MaxFormBoxes)
	case errors.Is(err, core.ErrTooManyPerBox):
		return fmt.Sprintf("Diapers per box cannot exceed %s.", core.FormatCount(core.MaxDiapersPerBox))
	case errors.Is(err, core.ErrEmptyBrand):
		return "Brand name cannot be empty."
	case errors.Is(err, core.ErrDuplicateBrand):
		return "A brand with that name already exists."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Cost must be a positive amount, for example 24.99."
	default:
		return ""
	}
}

// pathID reads a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func boxChoices() []int {
	choices := make([]int, core.MaxFormBoxes)
	for i := range choices {
		choices[i] = i + 1
	}
	return choices
}
