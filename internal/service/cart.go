package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"foodpos/internal/model"
)

// maxLineQty matches the qty INTEGER column.
const maxLineQty = math.MaxInt32

type CartLine struct {
	MenuID       string   `json:"menu_id"`
	Qty          int      `json:"qty"`
	VariationIDs []string `json:"variation_ids,omitempty"`
	Note         string   `json:"note,omitempty"`
}

// Key identifies a line: the same menu with the same variations and note is one line.
func (l CartLine) Key() string {
	n := l.normalized()
	return n.MenuID + "|" + strings.Join(n.VariationIDs, ",") + "|" + n.Note
}

func (l CartLine) normalized() CartLine {
	ids := make([]string, 0, len(l.VariationIDs))
	seen := make(map[string]struct{}, len(l.VariationIDs))
	for _, id := range l.VariationIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return CartLine{
		MenuID:       strings.TrimSpace(l.MenuID),
		Qty:          l.Qty,
		VariationIDs: ids,
		Note:         strings.TrimSpace(l.Note),
	}
}

// Cart keeps lines in insertion order and merges identical lines.
type Cart struct {
	lines []CartLine
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// CartFromLines builds a cart, merging lines that share a key.
func CartFromLines(lines []CartLine) (*Cart, error) {
	c := NewCart()
	for _, l := range lines {
		if err := c.Add(l); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Cart) Add(line CartLine) error {
	if line.Qty <= 0 {
		return newValidationError("qty must be positive")
	}
	if line.Qty > maxLineQty {
		return newValidationError("qty is too large")
	}
	n := line.normalized()
	if n.MenuID == "" {
		return newValidationError("menu_id is required")
	}

	key := n.Key()
	if i, ok := c.index[key]; ok {
		if c.lines[i].Qty > maxLineQty-n.Qty {
			return newValidationError("qty is too large")
		}
		c.lines[i].Qty += n.Qty
		return nil
	}
	c.index[key] = len(c.lines)
	c.lines = append(c.lines, n)
	return nil
}

// SetQty replaces a line's quantity; zero or less removes the line.
func (c *Cart) SetQty(key string, qty int) bool {
	i, ok := c.index[key]
	if !ok || qty > maxLineQty {
		return false
	}
	if qty <= 0 {
		return c.Remove(key)
	}
	c.lines[i].Qty = qty
	return true
}

func (c *Cart) Remove(key string) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.reindex()
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// QtyByMenu sums quantities across lines of the same menu. A sum saturates
// just above maxLineQty so it can never wrap negative.
func (c *Cart) QtyByMenu() map[string]int {
	out := make(map[string]int)
	for _, l := range c.lines {
		sum := out[l.MenuID]
		if sum > maxLineQty-l.Qty {
			out[l.MenuID] = maxLineQty + 1
			continue
		}
		out[l.MenuID] = sum + l.Qty
	}
	return out
}

// MenuIDs returns the distinct menu IDs, sorted.
func (c *Cart) MenuIDs() []string {
	qty := c.QtyByMenu()
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Cart) reindex() {
	c.index = make(map[string]int, len(c.lines))
	for i, l := range c.lines {
		c.index[l.Key()] = i
	}
}

type PricedLine struct {
	Key        string                   `json:"key"`
	MenuID     string                   `json:"menu_id"`
	MenuName   string                   `json:"menu_name"`
	Qty        int                      `json:"qty"`
	UnitPrice  float64                  `json:"unit_price"`
	Subtotal   float64                  `json:"subtotal"`
	Note       string                   `json:"note,omitempty"`
	Variations model.SelectedVariations `json:"variations"`
}

type PricedCart struct {
	Lines []PricedLine `json:"lines"`
	Total float64      `json:"total"`
}

// PriceCart prices every line against the catalog (menu ID -> menu with variations).
func PriceCart(c *Cart, catalog map[string]model.Menu) (*PricedCart, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	qtyByMenu := c.QtyByMenu()
	for _, menuID := range c.MenuIDs() {
		qty := qtyByMenu[menuID]
		if qty > maxLineQty {
			return nil, newValidationError("qty is too large")
		}
		menu, ok := catalog[menuID]
		if !ok {
			return nil, fmt.Errorf("menu %s: %w", menuID, ErrNotFound)
		}
		if !menu.IsActive {
			return nil, fmt.Errorf("%s: %w", menu.Name, ErrMenuInactive)
		}
		if qty > menu.Stock {
			return nil, fmt.Errorf("%s (requested %d, in stock %d): %w", menu.Name, qty, menu.Stock, ErrInsufficientStock)
		}
	}

	priced := &PricedCart{Lines: make([]PricedLine, 0, c.Len())}
	for _, l := range c.lines {
		menu := catalog[l.MenuID]

		variations := make(model.SelectedVariations, 0, len(l.VariationIDs))
		unit := menu.Price
		for _, vid := range l.VariationIDs {
			v, ok := findVariation(menu.Variations, vid)
			if !ok {
				return nil, newValidationError(fmt.Sprintf("variation %s does not belong to %s", vid, menu.Name))
			}
			unit += v.PriceAdjustment
			variations = append(variations, model.SelectedVariation{ID: v.ID, Name: v.Name, PriceAdjustment: v.PriceAdjustment})
		}
		if unit < 0 {
			unit = 0
		}
		unit = roundMoney(unit)
		subtotal := roundMoney(unit * float64(l.Qty))

		priced.Lines = append(priced.Lines, PricedLine{
			Key:        l.Key(),
			MenuID:     menu.ID,
			MenuName:   menu.Name,
			Qty:        l.Qty,
			UnitPrice:  unit,
			Subtotal:   subtotal,
			Note:       l.Note,
			Variations: variations,
		})
		priced.Total += subtotal
	}
	priced.Total = roundMoney(priced.Total)

	return priced, nil
}

func findVariation(vs []model.MenuVariation, id string) (model.MenuVariation, bool) {
	for _, v := range vs {
		if v.ID == id {
			return v, true
		}
	}
	return model.MenuVariation{}, false
}

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayQRIS     PaymentMethod = "qris"
	PayTransfer PaymentMethod = "transfer"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PayCash, PayCard, PayQRIS, PayTransfer:
		return m, nil
	}
	return "", newValidationError(fmt.Sprintf("unknown payment method %q", s))
}

type Payment struct {
	Method     PaymentMethod `json:"method"`
	Total      float64       `json:"total"`
	AmountPaid float64       `json:"amount_paid"`
	Change     float64       `json:"change"`
}

// ComputePayment settles a total. Cash must cover the total and yields change;
// other methods are charged exactly the total.
func ComputePayment(total float64, method PaymentMethod, amountPaid float64) (Payment, error) {
	if total < 0 || amountPaid < 0 {
		return Payment{}, newValidationError("amounts must not be negative")
	}
	total = roundMoney(total)

	if method != PayCash {
		return Payment{Method: method, Total: total, AmountPaid: total}, nil
	}

	paid := roundMoney(amountPaid)
	if paid < total {
		return Payment{}, fmt.Errorf("paid %.2f of %.2f: %w", paid, total, ErrInsufficientPaid)
	}
	return Payment{
		Method:     method,
		Total:      total,
		AmountPaid: paid,
		Change:     roundMoney(paid - total),
	}, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
