package cart

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []Item{
	{ProductID: "arduino-uno-r3", Name: "Arduino Uno R3", UnitPrice: 749, Category: "boards"},
	{ProductID: "esp32-devkit", Name: "ESP32 DevKit V1", UnitPrice: 499.99, Category: "boards"},
	{ProductID: "resistor", Name: "Resistor", UnitPrice: 0.1, Category: "parts"},
	{ProductID: "led", Name: "LED", UnitPrice: 3.33, Category: "parts"},
	{ProductID: "course-iot-basics", Name: "IoT Basics Course", UnitPrice: 2999.5, Category: "courses"},
}

func TestAdd_IncrementsExistingLine(t *testing.T) {
	var s State

	s.Add(catalog[0])
	s.Add(catalog[1])
	s.Add(catalog[0])

	require.Len(t, s.Items, 2)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, 1, s.Items[1].Quantity)
	assert.Equal(t, 1997.99, s.Total)
}

func TestAdd_IgnoresIncomingQuantity(t *testing.T) {
	var s State

	item := catalog[0]
	item.Quantity = 10
	s.Add(item)

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	var s State
	s.Add(catalog[2])

	s.UpdateQuantity("resistor", 3)
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, 0.3, s.Total)

	s.UpdateQuantity("unknown", 5)
	assert.Len(t, s.Items, 1)

	s.UpdateQuantity("resistor", -1)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0.0, s.Total)
}

func TestRemoveAndClear(t *testing.T) {
	var s State
	for _, item := range catalog {
		s.Add(item)
	}

	s.Remove("led")
	assert.Len(t, s.Items, 4)
	s.Remove("led")
	assert.Len(t, s.Items, 4)

	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Zero(t, s.Total)
}

func TestClone_IsIndependent(t *testing.T) {
	var s State
	s.Add(catalog[0])

	clone := s.Clone()
	s.UpdateQuantity("arduino-uno-r3", 5)

	assert.Equal(t, 1, clone.Items[0].Quantity)
	assert.Equal(t, 749.0, clone.Total)
}

func TestTotal_AvoidsFloatDrift(t *testing.T) {
	items := []Item{
		{ProductID: "a", UnitPrice: 0.1, Quantity: 1},
		{ProductID: "b", UnitPrice: 0.2, Quantity: 1},
	}
	assert.Equal(t, 0.3, Total(items))
}

// op encodes one cart operation: kind = n%4, product = (n/4)%len(catalog), quantity = n/20 - 5.
func apply(s *State, n int) {
	item := catalog[(n/4)%len(catalog)]
	switch n % 4 {
	case 0:
		s.Add(item)
	case 1:
		s.Remove(item.ProductID)
	case 2:
		s.UpdateQuantity(item.ProductID, n/20-5)
	case 3:
		if n%7 == 0 {
			s.Clear()
		} else {
			s.Add(item)
		}
	}
}

func TestState_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	opsGen := gen.SliceOf(gen.IntRange(0, 399))

	properties.Property("total equals the sum of line subtotals after any operation sequence", prop.ForAll(
		func(ops []int) bool {
			var s State
			for _, op := range ops {
				apply(&s, op)

				sum := decimal.Zero
				seen := map[string]bool{}
				for _, item := range s.Items {
					if item.Quantity < 1 || seen[item.ProductID] {
						return false
					}
					seen[item.ProductID] = true
					sum = sum.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
				}
				if !decimal.NewFromFloat(s.Total).Equal(sum.Round(2)) {
					return false
				}
			}
			return true
		},
		opsGen,
	))

	properties.Property("updating a quantity to zero is the same as removing the line", prop.ForAll(
		func(ops []int, product int) bool {
			var a State
			for _, op := range ops {
				apply(&a, op)
			}
			b := a.Clone()

			id := catalog[product].ProductID
			a.UpdateQuantity(id, 0)
			b.Remove(id)

			return assert.ObjectsAreEqual(a.Clone(), b.Clone())
		},
		opsGen,
		gen.IntRange(0, len(catalog)-1),
	))

	properties.TestingRun(t)
}
