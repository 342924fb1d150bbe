package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store define a interface de persistência do catálogo e das vendas
type Store interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, productID string) error
	ListSales(ctx context.Context) ([]Sale, error)

	// BeginTx abre um escopo transacional. Leituras e escritas feitas com o
	// handle retornado são isoladas de transações concorrentes e só ficam
	// visíveis no Commit; o Rollback descarta tudo.
	BeginTx(ctx context.Context) (Tx, error)
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)
	DecrementStock(ctx context.Context, tx Tx, productID string, quantity int) error
	InsertSale(ctx context.Context, tx Tx, sale *Sale) error
}

// Tx interface para transações
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PostgresStore implementa Store usando PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore cria uma nova instância de PostgresStore
func NewPostgresStore(db *pgxpool.Pool) Store {
	return &PostgresStore{
		db: db,
	}
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (t *PostgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return mapStoreError(err)
	}
	return nil
}

// BeginTx inicia uma nova transação
func (s *PostgresStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &PostgresTx{tx: tx}, nil
}

// GetProduct busca um produto pelo ID
func (s *PostgresStore) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id = $1
	`, productID).Scan(&product.ID, &product.Name, &product.Price, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, mapStoreError(err)
	}
	return &product, nil
}

// ListProducts lista todos os produtos do catálogo
func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products ORDER BY created_at
	`)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock,
			&product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, mapStoreError(err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	return products, nil
}

// CreateProduct cria um novo produto
func (s *PostgresStore) CreateProduct(ctx context.Context, product *Product) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO products (id, name, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, product.Name, product.Price, product.Stock, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// UpdateProduct atualiza nome, preço e estoque de um produto
func (s *PostgresStore) UpdateProduct(ctx context.Context, product *Product) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products
		SET name = $1, price = $2, stock = $3, updated_at = NOW()
		WHERE id = $4
	`, product.Name, product.Price, product.Stock, product.ID)
	if err != nil {
		return mapStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: product.ID}
	}
	return nil
}

// DeleteProduct remove um produto do catálogo
func (s *PostgresStore) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return mapStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: productID}
	}
	return nil
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE).
// A linha fica bloqueada para outras transações até o Commit ou Rollback.
func (s *PostgresStore) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	var product Product
	err := pgTx.QueryRow(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&product.ID, &product.Name, &product.Price, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, mapStoreError(err)
	}
	return &product, nil
}

// DecrementStock diminui o estoque de um produto dentro da transação
func (s *PostgresStore) DecrementStock(ctx context.Context, tx Tx, productID string, quantity int) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $1,
		    updated_at = NOW()
		WHERE id = $2
	`, quantity, productID)
	if err != nil {
		return mapStoreError(fmt.Errorf("failed to decrement stock: %w", err))
	}
	return nil
}

// InsertSale registra a venda e seus itens dentro da transação
func (s *PostgresStore) InsertSale(ctx context.Context, tx Tx, sale *Sale) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO sales (id, created_at)
		VALUES ($1, $2)
	`, sale.ID, sale.CreatedAt)
	if err != nil {
		return mapStoreError(fmt.Errorf("failed to insert sale: %w", err))
	}

	for position, item := range sale.Items {
		_, err = pgTx.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, position, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New().String(), sale.ID, position, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return mapStoreError(fmt.Errorf("failed to insert sale item: %w", err))
		}
	}
	return nil
}

// ListSales lista as vendas registradas, com itens na ordem original
func (s *PostgresStore) ListSales(ctx context.Context) ([]Sale, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.created_at, i.product_id, i.quantity, i.unit_price
		FROM sales s
		JOIN sale_items i ON i.sale_id = s.id
		ORDER BY s.created_at, s.id, i.position
	`)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	sales := []Sale{}
	index := map[string]int{}
	for rows.Next() {
		var (
			saleID    string
			createdAt time.Time
			item      SaleLineItem
		)
		if err := rows.Scan(&saleID, &createdAt, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, mapStoreError(err)
		}
		pos, ok := index[saleID]
		if !ok {
			sales = append(sales, Sale{ID: saleID, CreatedAt: createdAt})
			pos = len(sales) - 1
			index[saleID] = pos
		}
		sales[pos].Items = append(sales[pos].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	return sales, nil
}

// mapStoreError traduz erros do driver para a taxonomia do serviço
func mapStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// serialization_failure / deadlock_detected
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ErrTxConflict, pgErr.Message)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Falhas de conectividade (connection refused/reset, DNS) também são
	// StoreUnavailable: o caller pode repetir a operação inteira
	var connectErr *pgconn.ConnectError
	var netErr *net.OpError
	if errors.As(err, &connectErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
