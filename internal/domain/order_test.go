package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{OrderPending, OrderProcessing},
		{OrderPending, OrderCanceled},
		{OrderProcessing, OrderShipped},
		{OrderProcessing, OrderCanceled},
		{OrderShipped, OrderDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	refused := [][2]string{
		{OrderPending, OrderShipped},
		{OrderPending, OrderDelivered},
		{OrderProcessing, OrderDelivered},
		{OrderProcessing, OrderPending},
		{OrderShipped, OrderCanceled},
		{OrderDelivered, OrderPending},
		{OrderCanceled, OrderProcessing},
	}
	for _, tr := range refused {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}
