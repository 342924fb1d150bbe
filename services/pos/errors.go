package main

import (
	"errors"
	"fmt"
)

var (
	// ErrTxConflict indica um abort por conflito de isolamento (serialization
	// failure, deadlock). A operação inteira pode ser reexecutada pelo caller.
	ErrTxConflict = errors.New("transaction conflict")

	// ErrStoreUnavailable indica falha de conectividade ou timeout do banco
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidRequestError representa uma requisição malformada,
// rejeitada antes de qualquer acesso ao banco
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// ProductNotFoundError indica que um produto referenciado não existe
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// InsufficientStockError indica que a quantidade pedida excede o estoque atual
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
