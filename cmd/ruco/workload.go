package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zoobzio/ruco"
	"github.com/zoobzio/ruco/dispatch"
)

var errOutOfStock = errors.New("out of stock")

type line struct {
	sku   string
	qty   int
	price float64
}

type order struct {
	id    int
	lines []line
}

// inventory is shared by every order goroutine.
type inventory struct {
	stock map[string]int
	mu    sync.Mutex
}

func newInventory() *inventory {
	return &inventory{stock: map[string]int{"apple": 100, "pear": 100, "plum": 100}}
}

func (inv *inventory) reserve(sku string, qty int) error {
	defer ruco.Method(inv)()

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.stock[sku] < qty {
		return fmt.Errorf("%w: %s", errOutOfStock, sku)
	}
	inv.stock[sku] -= qty
	return nil
}

func validate(o order) error {
	defer ruco.Func()()
	if len(o.lines) == 0 {
		return fmt.Errorf("order %d has no lines", o.id)
	}
	return nil
}

func total(o order) float64 {
	defer ruco.Func()()
	sum := 0.0
	for _, l := range o.lines {
		sum += subtotal(l)
	}
	return sum
}

func subtotal(l line) float64 {
	defer ruco.Func()()
	return float64(l.qty) * l.price
}

func processOrder(inv *inventory, o order) (float64, error) {
	defer ruco.Func()()

	if err := validate(o); err != nil {
		return 0, err
	}
	for _, l := range o.lines {
		if err := inv.reserve(l.sku, l.qty); err != nil {
			return 0, err
		}
	}
	return total(o), nil
}

func makeOrders(n int) []order {
	skus := []string{"apple", "pear", "plum"}
	orders := make([]order, n)
	for i := range orders {
		orders[i] = order{
			id: i + 1,
			lines: []line{
				{sku: skus[i%len(skus)], qty: 1 + i%3, price: 0.5},
				{sku: skus[(i+1)%len(skus)], qty: 2, price: 1.25},
			},
		}
	}
	return orders
}

// runWorkload processes orders on up to workers goroutines and returns the
// revenue of the successful ones with per-order outcomes.
func runWorkload(ctx context.Context, workers int, orders []order) (float64, []error) {
	inv := newInventory()

	var (
		mu      sync.Mutex
		revenue float64
	)
	handlers := make([]dispatch.Handler[*inventory], len(orders))
	for i, o := range orders {
		handlers[i] = func(inv *inventory) error {
			sum, err := processOrder(inv, o)
			if err != nil {
				return err
			}
			mu.Lock()
			revenue += sum
			mu.Unlock()
			return nil
		}
	}

	errs := dispatch.Concurrent(ctx, workers, handlers, inv)
	return revenue, errs
}
