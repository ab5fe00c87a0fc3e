package http

import (
	"net/http"

	"diapertrack/internal/core"
	applog "diapertrack/internal/log"
)

type brandsPage struct {
	page
	Brands []core.Brand
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.brands.ListBrands(r.Context())
	if err != nil {
		s.serverError(w, r, "Brand list failed", err)
		return
	}
	s.render(w, r, "brands.html", http.StatusOK, brandsPage{
		page:   s.newPage(w, r, "Brands", "brands"),
		Brands: brands,
	})
}

func (s *Server) handleAddBrand(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.PostFormValue("brand_name"))
	if err := s.brands.AddBrand(r.Context(), name); err != nil {
		s.brandFailure(w, r, "Brand add failed", err)
		return
	}
	redirectWithFlash(w, r, "/brands", flashSuccess, "Brand added.")
}

func (s *Server) handleEditBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	name := sanitizeInput(r.PostFormValue("brand_name"))
	if err := s.brands.UpdateBrand(r.Context(), id, name); err != nil {
		s.brandFailure(w, r, "Brand update failed", err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Brand renamed",
		"brand_id", id,
		applog.FieldBrand, name,
		applog.FieldOperation, applog.OpUpdate)
	redirectWithFlash(w, r, "/brands", flashSuccess, "Brand updated.")
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.brands.DeleteBrand(r.Context(), id); err != nil {
		s.serverError(w, r, "Brand delete failed", err)
		return
	}
	redirectWithFlash(w, r, "/brands", flashSuccess,
		"Brand deleted from saved list. Existing purchase records are unchanged.")
}

// brandFailure reports input problems as a flash message and anything else as a 500.
func (s *Server) brandFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if text := validationMessage(err); text != "" {
		redirectWithFlash(w, r, "/brands", flashError, text)
		return
	}
	s.serverError(w, r, msg, err)
}
