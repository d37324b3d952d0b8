package service

import (
	"slices"
	"storefront/internal/model"
)

// Same-state updates are always allowed. Terminal states have no entry.
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
}

var paymentTransitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentStatusPending: {model.PaymentStatusCompleted, model.PaymentStatusFailed},
}

func canTransition[S comparable](table map[S][]S, from, to S) bool {
	if from == to {
		return true
	}
	return slices.Contains(table[from], to)
}

func validPaymentStatus(s model.PaymentStatus) bool {
	switch s {
	case model.PaymentStatusPending, model.PaymentStatusCompleted, model.PaymentStatusFailed:
		return true
	}
	return false
}

func validOrderStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	}
	return false
}
