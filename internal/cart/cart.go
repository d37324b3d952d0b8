// Package cart holds per-device shopping carts. A cart is mutated in memory and
// written to a Store in the background; it is rehydrated from the Store when a
// session is first opened.
package cart

import "github.com/shopspring/decimal"

type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category"`
}

// State is the full content of a cart. Total is derived from Items on every
// mutation and is never trusted from storage.
type State struct {
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// Add increments the quantity of an existing line by one, or appends the item
// with quantity 1.
func (s *State) Add(item Item) {
	for i := range s.Items {
		if s.Items[i].ProductID == item.ProductID {
			s.Items[i].Quantity++
			s.recompute()
			return
		}
	}
	item.Quantity = 1
	s.Items = append(s.Items, item)
	s.recompute()
}

func (s *State) Remove(productID string) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			break
		}
	}
	s.recompute()
}

// UpdateQuantity sets the quantity exactly. A quantity <= 0 removes the line.
func (s *State) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(productID)
		return
	}
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items[i].Quantity = quantity
			break
		}
	}
	s.recompute()
}

func (s *State) Clear() {
	s.Items = nil
	s.recompute()
}

func (s *State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone returns a deep copy safe to hand out of a session.
func (s State) Clone() State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, Total: s.Total}
}

func (s *State) recompute() {
	s.Total = Total(s.Items)
}

// Total sums unitPrice × quantity in decimal and rounds to two places.
func Total(items []Item) float64 {
	sum := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}
