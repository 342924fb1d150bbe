package main

import (
	"time"
)

// Product representa um produto do catálogo
type Product struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(id, name string, price float64, stock int) *Product {
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// SaleLineItem representa um item de uma venda.
// UnitPrice é capturado no momento da venda e não acompanha
// alterações posteriores do preço do produto.
type SaleLineItem struct {
	ProductID string  `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
}

// Sale representa uma venda registrada. Imutável após o commit.
type Sale struct {
	ID        string         `json:"id" db:"id"`
	Items     []SaleLineItem `json:"items"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// NewSale cria uma nova instância de Sale. O timestamp é um parâmetro
// explícito; o coordenador passa o horário do commit (time.Now()).
func NewSale(id string, items []SaleLineItem, createdAt time.Time) *Sale {
	copied := make([]SaleLineItem, len(items))
	copy(copied, items)

	return &Sale{
		ID:        id,
		Items:     copied,
		CreatedAt: createdAt,
	}
}

// Total calcula o valor total da venda
func (s *Sale) Total() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
