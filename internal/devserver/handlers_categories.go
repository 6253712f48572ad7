package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Type  string `json:"type" validate:"required,oneof=income expense"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type patchCategoryRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, http.StatusOK, s.store.Categories(userIDFrom(r.Context())))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !s.decode(w, r, &req) {
		return
	}

	c := s.store.CreateCategory(userIDFrom(r.Context()), Category{Name: req.Name, Type: req.Type, Color: req.Color})
	s.reply(w, r, http.StatusCreated, c)
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request) {
	var req patchCategoryRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.store.UpdateCategory(userIDFrom(r.Context()), chi.URLParam(r, "id"), func(c *Category) {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Color != nil {
			c.Color = *req.Color
		}
	})
	if errors.Is(err, common.ErrorNotFound) {
		s.fail(w, r, http.StatusNotFound, "category not found")
		return
	}

	s.reply(w, r, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteCategory(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, common.ErrorNotFound) {
		s.fail(w, r, http.StatusNotFound, "category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
