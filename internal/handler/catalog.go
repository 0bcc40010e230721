package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/service"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	RenameCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error

	ListMenus(ctx context.Context, f service.MenuFilter) ([]model.Menu, error)
	ListActiveMenus(ctx context.Context) ([]model.Menu, error)
	GetMenu(ctx context.Context, id string) (*model.Menu, error)
	CreateMenu(ctx context.Context, in service.MenuInput) (*model.Menu, error)
	UpdateMenu(ctx context.Context, id string, in service.MenuInput) (*model.Menu, error)
	SetMenuActive(ctx context.Context, id string, active bool) error
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	SetStock(ctx context.Context, id string, stock int) error
	DeleteMenu(ctx context.Context, id string) error

	ListVariations(ctx context.Context, menuID string) ([]model.MenuVariation, error)
	CreateVariation(ctx context.Context, menuID string, in service.VariationInput) (*model.MenuVariation, error)
	UpdateVariation(ctx context.Context, id string, in service.VariationInput) error
	DeleteVariation(ctx context.Context, id string) error
}

type categoryRequest struct {
	Name string `json:"name"`
}

func ListCategoriesHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := catalog.ListCategories(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func CreateCategoryHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		category, err := catalog.CreateCategory(r.Context(), req.Name)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

func RenameCategoryHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req categoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := catalog.RenameCategory(r.Context(), id, req.Name); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteCategoryHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := catalog.DeleteCategory(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListActiveMenusHandler serves the POS catalog.
func ListActiveMenusHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menus, err := catalog.ListActiveMenus(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, menus)
	}
}

func ListMenusHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if id := q.Get("category_id"); id != "" && uuid.Validate(id) != nil {
			http.Error(w, "invalid category_id", http.StatusBadRequest)
			return
		}

		menus, err := catalog.ListMenus(r.Context(), service.MenuFilter{
			CategoryID: q.Get("category_id"),
			ActiveOnly: q.Get("active") == "true",
			Search:     q.Get("q"),
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, menus)
	}
}

func GetMenuHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		menu, err := catalog.GetMenu(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, menu)
	}
}

func CreateMenuHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.MenuInput
		if !decodeJSON(w, r, &req) {
			return
		}

		menu, err := catalog.CreateMenu(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, menu)
	}
}

func UpdateMenuHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req service.MenuInput
		if !decodeJSON(w, r, &req) {
			return
		}

		menu, err := catalog.UpdateMenu(r.Context(), id, req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, menu)
	}
}

func SetMenuActiveHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			IsActive bool `json:"is_active"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := catalog.SetMenuActive(r.Context(), id, req.IsActive); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type stockRequest struct {
	Delta *int `json:"delta"`
	Stock *int `json:"stock"`
}

// UpdateStockHandler either sets the stock or moves it by a delta.
func UpdateStockHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req stockRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if (req.Delta == nil) == (req.Stock == nil) {
			http.Error(w, "exactly one of delta or stock is required", http.StatusBadRequest)
			return
		}

		var (
			stock int
			err   error
		)
		if req.Delta != nil {
			stock, err = catalog.AdjustStock(r.Context(), id, *req.Delta)
		} else {
			stock, err = *req.Stock, catalog.SetStock(r.Context(), id, *req.Stock)
		}
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"stock": stock})
	}
}

func DeleteMenuHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := catalog.DeleteMenu(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListVariationsHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		variations, err := catalog.ListVariations(r.Context(), menuID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, variations)
	}
}

func CreateVariationHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req service.VariationInput
		if !decodeJSON(w, r, &req) {
			return
		}

		variation, err := catalog.CreateVariation(r.Context(), menuID, req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, variation)
	}
}

func UpdateVariationHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req service.VariationInput
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := catalog.UpdateVariation(r.Context(), id, req); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteVariationHandler(catalog CatalogStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := catalog.DeleteVariation(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
