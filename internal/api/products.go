package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowanfell/hearth-core/internal/product"
)

// productRequest is the request body for creating or updating a product.
type productRequest struct {
	Title string `json:"title"`
	Cost  int    `json:"cost"`
}

// handleListProducts returns the product catalog.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.logger.Error("listing products failed", "error", err)
		writeInternalError(w, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// handleGetProduct returns a single product by ID.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			writeNotFound(w, "product not found")
			return
		}
		writeInternalError(w, "failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateProduct creates a new catalog entry.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	p := &product.Product{Title: req.Title, Cost: req.Cost}
	if err := p.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.products.Create(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrTitleExists) {
			writeConflict(w, "product title already exists")
			return
		}
		s.logger.Error("creating product failed", "error", err)
		writeInternalError(w, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProduct replaces a product's title and cost.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			writeNotFound(w, "product not found")
			return
		}
		writeInternalError(w, "failed to get product")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	existing.Title = req.Title
	existing.Cost = req.Cost
	if err := existing.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.products.Update(r.Context(), existing); err != nil {
		if errors.Is(err, product.ErrTitleExists) {
			writeConflict(w, "product title already exists")
			return
		}
		writeInternalError(w, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteProduct removes a product from the catalog.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			writeNotFound(w, "product not found")
			return
		}
		writeInternalError(w, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
