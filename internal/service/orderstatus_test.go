package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []ItemStatus
		want  OrderStatus
	}{
		{"no items", nil, OrderPending},
		{"all pending", []ItemStatus{ItemPending, ItemPending}, OrderPending},
		{"all delivered", []ItemStatus{ItemDelivered, ItemDelivered}, OrderCompleted},
		{"ready and delivered", []ItemStatus{ItemReady, ItemDelivered}, OrderReady},
		{"all ready", []ItemStatus{ItemReady}, OrderReady},
		{"one preparing", []ItemStatus{ItemPending, ItemPreparing, ItemReady}, OrderPreparing},
		{"preparing beside delivered", []ItemStatus{ItemDelivered, ItemPreparing}, OrderPreparing},
		{"ready beside pending", []ItemStatus{ItemReady, ItemPending}, OrderPending},
		{"delivered beside pending", []ItemStatus{ItemDelivered, ItemPending}, OrderPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOrderStatus(tt.items))
		})
	}
}

func TestDeriveOrderStatus_OrderInsensitiveAndIdempotent(t *testing.T) {
	all := []ItemStatus{ItemPending, ItemPreparing, ItemReady, ItemDelivered}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		items := make([]ItemStatus, 1+rng.Intn(6))
		for j := range items {
			items[j] = all[rng.Intn(len(all))]
		}
		want := DeriveOrderStatus(items)

		shuffled := append([]ItemStatus(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, want, DeriveOrderStatus(shuffled))
		assert.Equal(t, want, DeriveOrderStatus(items))
	}
}

func TestParseItemStatus(t *testing.T) {
	st, err := ParseItemStatus("ready")
	require.NoError(t, err)
	assert.Equal(t, ItemReady, st)

	_, err = ParseItemStatus("cooking")
	assert.True(t, IsValidation(err))
}
