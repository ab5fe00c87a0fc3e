package http

import (
	"errors"
	"net/http"
	"strconv"

	"diapertrack/internal/core"
	applog "diapertrack/internal/log"
	"diapertrack/internal/report"
)

type addPurchasePage struct {
	page
	Form       purchaseForm
	Error      string
	Brands     []string
	Sizes      []core.Size
	Presets    []int
	BoxChoices []int
}

type historyPage struct {
	page
	Rows  []report.Row
	Today string
}

func (s *Server) today() core.Date {
	now := s.now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	s.renderAddForm(w, r, http.StatusOK, defaultPurchaseForm(s.today()), "")
}

func (s *Server) renderAddForm(w http.ResponseWriter, r *http.Request, status int, form purchaseForm, errMsg string) {
	brands, err := s.brands.ListBrandNames(r.Context())
	if err != nil {
		// The form still works without suggestions.
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Brand suggestions unavailable", applog.FieldError, err)
	}

	s.render(w, r, "add_purchase.html", status, addPurchasePage{
		page:       s.newPage(w, r, "Add Purchase", "add"),
		Form:       form,
		Error:      errMsg,
		Brands:     brands,
		Sizes:      core.Sizes,
		Presets:    core.DiapersPerBoxPresets,
		BoxChoices: boxChoices(),
	})
}

func (s *Server) handleAddPurchase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := readPurchaseForm(r.PostForm)
	logger := applog.FromContext(r.Context())

	np, opened, err := form.toPurchase()
	if err != nil {
		logger.InfoContext(r.Context(), "Purchase form rejected", applog.FieldError, err)
		s.renderAddForm(w, r, http.StatusUnprocessableEntity, form, validationMessage(err))
		return
	}

	id, err := s.purchases.Record(r.Context(), np, opened)
	switch {
	case err != nil && id == 0:
		if msg := validationMessage(err); msg != "" {
			s.renderAddForm(w, r, http.StatusUnprocessableEntity, form, msg)
			return
		}
		s.serverError(w, r, "Purchase save failed", err)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Opened date not applied",
			applog.FieldPurchaseID, id,
			applog.FieldError, err)
		redirectWithFlash(w, r, "/history", flashError, "Purchase added, but the opened date could not be saved.")
		return
	}

	logger.InfoContext(r.Context(), "Purchase form accepted",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithPurchase(id, np.Brand, np.NumBoxes, np.Cost.Cents).
			ToSlice()...)
	redirectWithFlash(w, r, "/history", flashSuccess, "Purchase added successfully!")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Load(r.Context(), s.store, s.now())
	if err != nil {
		s.serverError(w, r, "History load failed", err)
		return
	}

	s.render(w, r, "history.html", http.StatusOK, historyPage{
		page:  s.newPage(w, r, "History", "history"),
		Rows:  rep.Rows,
		Today: s.today().String(),
	})
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.purchases.Delete(r.Context(), id); err != nil {
		s.serverError(w, r, "Purchase delete failed", err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Purchase deleted",
		applog.FieldPurchaseID, id,
		applog.FieldOperation, applog.OpDelete)
	redirectWithFlash(w, r, "/history", flashSuccess, "Purchase deleted.")
}

func (s *Server) handleOpenBox(w http.ResponseWriter, r *http.Request) {
	purchaseID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	openingRaw := r.PostForm.Get("opening_id")
	dateRaw := r.PostForm.Get("date_opened")
	if openingRaw == "" || dateRaw == "" {
		redirectWithFlash(w, r, "/history", flashError, "Missing opening ID or date.")
		return
	}
	openingID, err := strconv.ParseInt(openingRaw, 10, 64)
	if err != nil {
		redirectWithFlash(w, r, "/history", flashError, "Missing opening ID or date.")
		return
	}
	opened, err := core.ParseDate(dateRaw)
	if err != nil {
		redirectWithFlash(w, r, "/history", flashError, validationMessage(err))
		return
	}

	if err := s.purchases.OpenBox(r.Context(), purchaseID, openingID, opened); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Box not found", http.StatusNotFound)
			return
		}
		s.serverError(w, r, "Box opening update failed", err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Box opening saved",
		applog.FieldPurchaseID, purchaseID,
		applog.FieldOpeningID, openingID,
		applog.FieldOperation, applog.OpOpenBox)
	redirectWithFlash(w, r, "/history", flashSuccess, "Box opening date saved.")
}
