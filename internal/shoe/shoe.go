// Package shoe describes the inventory record shared by the server and the CLI:
// categories, field validation and the category projection.
package shoe

import (
	"fmt"
	"strings"
	"time"

	"ShoeKeeper/internal/common"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed shoe categories.
type Category string

const (
	Sneakers Category = "Sneakers"
	Boots    Category = "Boots"
	Formal   Category = "Formal"
	Running  Category = "Running"
	Others   Category = "Others"
)

// Categories lists the categories in display order.
var Categories = []Category{Sneakers, Boots, Formal, Running, Others}

// DefaultCategory is used when the caller does not pick one.
const DefaultCategory = Sneakers

// Valid reports whether c belongs to the fixed enumeration.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", common.ErrValidation, s)
}

// Record — одна запись инвентаря.
type Record struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Category   Category        `json:"category"`
	ImageRef   string          `json:"image_ref,omitempty"`
	IsFavorite bool            `json:"is_favorite"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Draft — пользовательские поля новой записи.
type Draft struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Category Category        `json:"category"`
	ImageRef string          `json:"image_ref,omitempty"`
}

// Fields — полный набор полей, отправляемых на создание.
type Fields struct {
	Draft
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

// Patch — частичное изменение записи. nil означает "не менять".
type Patch struct {
	Title      *string          `json:"title,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Category   *Category        `json:"category,omitempty"`
	ImageRef   *string          `json:"image_ref,omitempty"`
	IsFavorite *bool            `json:"is_favorite,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Price == nil && p.Category == nil && p.ImageRef == nil && p.IsFavorite == nil
}

// Apply returns r with the patch applied. Trimming of the title happens here.
func (p Patch) Apply(r Record) Record {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.ImageRef != nil {
		r.ImageRef = *p.ImageRef
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
	return r
}

// Inverse returns the patch that restores from's values for the fields p touches.
func (p Patch) Inverse(from Record) Patch {
	var inv Patch
	if p.Title != nil {
		v := from.Title
		inv.Title = &v
	}
	if p.Price != nil {
		v := from.Price
		inv.Price = &v
	}
	if p.Category != nil {
		v := from.Category
		inv.Category = &v
	}
	if p.ImageRef != nil {
		v := from.ImageRef
		inv.ImageRef = &v
	}
	if p.IsFavorite != nil {
		v := from.IsFavorite
		inv.IsFavorite = &v
	}
	return inv
}

// Matches reports whether every field p touches has the patched value in r.
func (p Patch) Matches(r Record) bool {
	if p.Title != nil && r.Title != strings.TrimSpace(*p.Title) {
		return false
	}
	if p.Price != nil && !r.Price.Equal(*p.Price) {
		return false
	}
	if p.Category != nil && r.Category != *p.Category {
		return false
	}
	if p.ImageRef != nil && r.ImageRef != *p.ImageRef {
		return false
	}
	if p.IsFavorite != nil && r.IsFavorite != *p.IsFavorite {
		return false
	}
	return true
}

// Revert restores prev's values for the fields p touches. A field that no longer
// carries the value p wrote was changed again later and is left alone.
func (p Patch) Revert(cur, prev Record) Record {
	if p.Title != nil && cur.Title == strings.TrimSpace(*p.Title) {
		cur.Title = prev.Title
	}
	if p.Price != nil && cur.Price.Equal(*p.Price) {
		cur.Price = prev.Price
	}
	if p.Category != nil && cur.Category == *p.Category {
		cur.Category = prev.Category
	}
	if p.ImageRef != nil && cur.ImageRef == *p.ImageRef {
		cur.ImageRef = prev.ImageRef
	}
	if p.IsFavorite != nil && cur.IsFavorite == *p.IsFavorite {
		cur.IsFavorite = prev.IsFavorite
	}
	return cur
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", common.ErrValidation)
	}
	return nil
}

func validateCategory(c Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown category %q", common.ErrValidation, c)
	}
	return nil
}

// Validate checks a draft against the record invariants.
func (d Draft) Validate() error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := validatePrice(d.Price); err != nil {
		return err
	}
	return validateCategory(d.Category)
}

// Normalize trims the title.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	return d
}

// Validate checks every field present in the patch.
func (p Patch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	return nil
}
