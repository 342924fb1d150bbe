package main

import (
	"context"
	"errors"
	"sync"
)

// memStore é um Store em memória cujas transações são serializadas por um
// mutex: BeginTx adquire o lock e Commit/Rollback o liberam, emulando o
// isolamento do SELECT FOR UPDATE. Escritas ficam pendentes no handle e só
// são aplicadas no Commit.
type memStore struct {
	mu       sync.Mutex
	products map[string]*Product
	sales    []*Sale
}

func newMemStore(products ...*Product) *memStore {
	s := &memStore{products: map[string]*Product{}}
	for _, p := range products {
		copied := *p
		s.products[p.ID] = &copied
	}
	return s
}

type memTx struct {
	store        *memStore
	pendingStock map[string]int
	pendingSales []*Sale
	done         bool
}

func (s *memStore) BeginTx(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, pendingStock: map[string]int{}}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("tx already closed")
	}
	for id, stock := range t.pendingStock {
		t.store.products[id].Stock = stock
	}
	t.store.sales = append(t.store.sales, t.pendingSales...)
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (s *memStore) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	t := tx.(*memTx)
	product, ok := s.products[productID]
	if !ok {
		return nil, &ProductNotFoundError{ProductID: productID}
	}
	copied := *product
	if stock, pending := t.pendingStock[productID]; pending {
		copied.Stock = stock
	}
	return &copied, nil
}

func (s *memStore) DecrementStock(ctx context.Context, tx Tx, productID string, quantity int) error {
	t := tx.(*memTx)
	product, ok := s.products[productID]
	if !ok {
		return &ProductNotFoundError{ProductID: productID}
	}
	current := product.Stock
	if stock, pending := t.pendingStock[productID]; pending {
		current = stock
	}
	t.pendingStock[productID] = current - quantity
	return nil
}

func (s *memStore) InsertSale(ctx context.Context, tx Tx, sale *Sale) error {
	t := tx.(*memTx)
	t.pendingSales = append(t.pendingSales, NewSale(sale.ID, sale.Items, sale.CreatedAt))
	return nil
}

func (s *memStore) GetProduct(ctx context.Context, productID string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, &ProductNotFoundError{ProductID: productID}
	}
	copied := *product
	return &copied, nil
}

func (s *memStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := []Product{}
	for _, p := range s.products {
		products = append(products, *p)
	}
	return products, nil
}

func (s *memStore) CreateProduct(ctx context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok {
		return &ProductNotFoundError{ProductID: product.ID}
	}
	existing.Name = product.Name
	existing.Price = product.Price
	existing.Stock = product.Stock
	return nil
}

func (s *memStore) DeleteProduct(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return &ProductNotFoundError{ProductID: productID}
	}
	delete(s.products, productID)
	return nil
}

func (s *memStore) ListSales(ctx context.Context) ([]Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sales := []Sale{}
	for _, sale := range s.sales {
		sales = append(sales, *NewSale(sale.ID, sale.Items, sale.CreatedAt))
	}
	return sales, nil
}

func (s *memStore) stockOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) salesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}
