// Package seed loads a starter catalog, staff accounts and store settings
// from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"foodpos/internal/model"
	"foodpos/internal/service"
)

type File struct {
	Categories []Category        `yaml:"categories"`
	Users      []User            `yaml:"users"`
	Settings   map[string]string `yaml:"settings"`
}

type Category struct {
	Name  string `yaml:"name"`
	Menus []Menu `yaml:"menus"`
}

type Menu struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Price       float64     `yaml:"price"`
	Stock       int         `yaml:"stock"`
	ImageURL    string      `yaml:"image_url"`
	Inactive    bool        `yaml:"inactive"`
	Variations  []Variation `yaml:"variations"`
}

type Variation struct {
	Name            string  `yaml:"name"`
	PriceAdjustment float64 `yaml:"price_adjustment"`
}

type User struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	var errs []string

	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Sprintf("category #%d: name is required", i+1))
		}
		for _, m := range c.Menus {
			if strings.TrimSpace(m.Name) == "" {
				errs = append(errs, fmt.Sprintf("category %q: menu without name", c.Name))
			}
			if m.Price < 0 || m.Stock < 0 {
				errs = append(errs, fmt.Sprintf("menu %q: price and stock must not be negative", m.Name))
			}
		}
	}
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			errs = append(errs, "user: email and password are required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid seed file: %s", strings.Join(errs, "; "))
	}
	return nil
}

type Catalog interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	ListMenus(ctx context.Context, f service.MenuFilter) ([]model.Menu, error)
	CreateMenu(ctx context.Context, in service.MenuInput) (*model.Menu, error)
	CreateVariation(ctx context.Context, menuID string, in service.VariationInput) (*model.MenuVariation, error)
}

type Users interface {
	Create(ctx context.Context, in service.NewUser) (*model.User, error)
}

type Settings interface {
	Update(ctx context.Context, values map[string]string) error
}

type Stats struct {
	Categories int
	Menus      int
	Variations int
	Users      int
}

// Apply creates whatever is missing. Existing categories, menus (by name
// within their category) and users (by email) are left untouched.
func Apply(ctx context.Context, f *File, catalog Catalog, users Users, settings Settings, log logrus.FieldLogger) (Stats, error) {
	var st Stats

	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return st, err
	}
	categoryIDs := make(map[string]string, len(existing))
	for _, c := range existing {
		categoryIDs[strings.ToLower(c.Name)] = c.ID
	}

	for _, c := range f.Categories {
		id, ok := categoryIDs[strings.ToLower(strings.TrimSpace(c.Name))]
		if !ok {
			created, err := catalog.CreateCategory(ctx, c.Name)
			if err != nil {
				return st, fmt.Errorf("category %q: %w", c.Name, err)
			}
			id = created.ID
			st.Categories++
		}

		menus, err := catalog.ListMenus(ctx, service.MenuFilter{CategoryID: id})
		if err != nil {
			return st, err
		}
		menuNames := make(map[string]bool, len(menus))
		for _, m := range menus {
			menuNames[strings.ToLower(m.Name)] = true
		}

		for _, m := range c.Menus {
			if menuNames[strings.ToLower(strings.TrimSpace(m.Name))] {
				continue
			}

			active := !m.Inactive
			categoryID := id
			created, err := catalog.CreateMenu(ctx, service.MenuInput{
				Name:        m.Name,
				Description: m.Description,
				Price:       m.Price,
				Stock:       m.Stock,
				CategoryID:  &categoryID,
				ImageURL:    m.ImageURL,
				IsActive:    &active,
			})
			if err != nil {
				return st, fmt.Errorf("menu %q: %w", m.Name, err)
			}
			st.Menus++

			for _, v := range m.Variations {
				if _, err := catalog.CreateVariation(ctx, created.ID, service.VariationInput{
					Name:            v.Name,
					PriceAdjustment: v.PriceAdjustment,
				}); err != nil {
					return st, fmt.Errorf("variation %q of %q: %w", v.Name, m.Name, err)
				}
				st.Variations++
			}
		}
	}

	for _, u := range f.Users {
		_, err := users.Create(ctx, service.NewUser{
			Email:    u.Email,
			FullName: u.FullName,
			Password: u.Password,
			Role:     service.Role(u.Role),
		})
		if errors.Is(err, service.ErrEmailTaken) {
			log.WithField("email", u.Email).Info("user exists, skipped")
			continue
		}
		if err != nil {
			return st, fmt.Errorf("user %q: %w", u.Email, err)
		}
		st.Users++
	}

	if len(f.Settings) > 0 {
		if err := settings.Update(ctx, f.Settings); err != nil {
			return st, fmt.Errorf("settings: %w", err)
		}
	}

	return st, nil
}
