package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
)

const menuColumns = `m.id, m.name, m.description, m.price, m.stock, m.category_id, c.name AS category_name,
	m.image_url, m.is_active, m.created_at, m.updated_at`

const menuFrom = `FROM menus m LEFT JOIN categories c ON c.id = m.category_id`

type CatalogService struct {
	db    *sqlx.DB
	cache MenuCache
	log   logrus.FieldLogger
}

func NewCatalogService(db *sqlx.DB, cache MenuCache, log logrus.FieldLogger) *CatalogService {
	if cache == nil {
		cache = NoopMenuCache{}
	}
	return &CatalogService{db: db, cache: cache, log: log}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT id, name, created_at FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("category name is required")
	}

	var c model.Category
	err := s.db.GetContext(ctx, &c, `INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, newValidationError("category already exists")
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newValidationError("category name is required")
	}

	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return newValidationError("category already exists")
		}
		return fmt.Errorf("update category: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	var inUse int
	if err := s.db.GetContext(ctx, &inUse, `SELECT COUNT(*) FROM menus WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("count menus: %w", err)
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectRow(res)
}

type MenuFilter struct {
	CategoryID string
	ActiveOnly bool
	Search     string
}

func (s *CatalogService) ListMenus(ctx context.Context, f MenuFilter) ([]model.Menu, error) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, "m.category_id = $"+strconv.Itoa(len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "m.is_active")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, "m.name ILIKE $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + menuColumns + ` ` + menuFrom
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY m.name`

	menus := []model.Menu{}
	if err := s.db.SelectContext(ctx, &menus, query, args...); err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	return menus, nil
}

// ListActiveMenus returns the POS catalog with variations, served from cache when possible.
func (s *CatalogService) ListActiveMenus(ctx context.Context) ([]model.Menu, error) {
	if menus, ok := s.cache.GetActiveMenus(ctx); ok {
		return menus, nil
	}

	menus, err := s.ListMenus(ctx, MenuFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	var variations []model.MenuVariation
	err = s.db.SelectContext(ctx, &variations, `
		SELECT v.id, v.menu_id, v.name, v.price_adjustment
		FROM menu_variations v
		JOIN menus m ON m.id = v.menu_id
		WHERE m.is_active
		ORDER BY v.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}

	byMenu := make(map[string][]model.MenuVariation)
	for _, v := range variations {
		byMenu[v.MenuID] = append(byMenu[v.MenuID], v)
	}
	for i := range menus {
		menus[i].Variations = byMenu[menus[i].ID]
	}

	s.cache.SetActiveMenus(ctx, menus)
	return menus, nil
}

func (s *CatalogService) GetMenu(ctx context.Context, id string) (*model.Menu, error) {
	var m model.Menu
	err := s.db.GetContext(ctx, &m, `SELECT `+menuColumns+` `+menuFrom+` WHERE m.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get menu: %w", err)
	}

	m.Variations, err = s.ListVariations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type MenuInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  *string `json:"category_id"`
	ImageURL    string  `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
}

func (in MenuInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return newValidationError("menu name is required")
	}
	if in.Price < 0 {
		return newValidationError("price must not be negative")
	}
	if in.Stock < 0 {
		return newValidationError("stock must not be negative")
	}
	return nil
}

// active defaults a new menu to active.
func (in MenuInput) active() bool {
	return in.IsActive == nil || *in.IsActive
}

func (s *CatalogService) CreateMenu(ctx context.Context, in MenuInput) (*model.Menu, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO menus (name, description, price, stock, category_id, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, strings.TrimSpace(in.Name), in.Description, roundMoney(in.Price), in.Stock, in.CategoryID, in.ImageURL, in.active()).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, newValidationError("category does not exist")
		}
		return nil, fmt.Errorf("insert menu: %w", err)
	}

	s.cache.Invalidate(ctx)
	s.log.WithField("menu_id", id).Info("menu created")
	return s.GetMenu(ctx, id)
}

func (s *CatalogService) UpdateMenu(ctx context.Context, id string, in MenuInput) (*model.Menu, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE menus
		SET name = $1, description = $2, price = $3, stock = $4, category_id = $5,
			image_url = $6, is_active = COALESCE($7, is_active), updated_at = NOW()
		WHERE id = $8
	`, strings.TrimSpace(in.Name), in.Description, roundMoney(in.Price), in.Stock, in.CategoryID, in.ImageURL, in.IsActive, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, newValidationError("category does not exist")
		}
		return nil, fmt.Errorf("update menu: %w", err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	return s.GetMenu(ctx, id)
}

func (s *CatalogService) SetMenuActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE menus SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("toggle menu: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

// AdjustStock applies a delta and returns the new stock. Stock never drops below zero.
func (s *CatalogService) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx, `
		UPDATE menus SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING stock
	`, delta, id).Scan(&stock)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("adjust stock: %w", err)
		}
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM menus WHERE id = $1)`, id); err != nil {
			return 0, fmt.Errorf("check menu: %w", err)
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientStock
	}

	s.cache.Invalidate(ctx)
	return stock, nil
}

func (s *CatalogService) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return newValidationError("stock must not be negative")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE menus SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, id)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteMenu(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return newValidationError("menu has orders; deactivate it instead")
		}
		return fmt.Errorf("delete menu: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *CatalogService) ListVariations(ctx context.Context, menuID string) ([]model.MenuVariation, error) {
	variations := []model.MenuVariation{}
	err := s.db.SelectContext(ctx, &variations,
		`SELECT id, menu_id, name, price_adjustment FROM menu_variations WHERE menu_id = $1 ORDER BY name`, menuID)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}
	return variations, nil
}

type VariationInput struct {
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

func (s *CatalogService) CreateVariation(ctx context.Context, menuID string, in VariationInput) (*model.MenuVariation, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newValidationError("variation name is required")
	}

	var v model.MenuVariation
	err := s.db.GetContext(ctx, &v, `
		INSERT INTO menu_variations (menu_id, name, price_adjustment)
		VALUES ($1, $2, $3)
		RETURNING id, menu_id, name, price_adjustment
	`, menuID, strings.TrimSpace(in.Name), roundMoney(in.PriceAdjustment))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert variation: %w", err)
	}

	s.cache.Invalidate(ctx)
	return &v, nil
}

func (s *CatalogService) UpdateVariation(ctx context.Context, id string, in VariationInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return newValidationError("variation name is required")
	}

	res, err := s.db.ExecContext(ctx, `UPDATE menu_variations SET name = $1, price_adjustment = $2 WHERE id = $3`,
		strings.TrimSpace(in.Name), roundMoney(in.PriceAdjustment), id)
	if err != nil {
		return fmt.Errorf("update variation: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteVariation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_variations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variation: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
