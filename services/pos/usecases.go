package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SaleUseCase coordena o registro transacional de vendas. Não guarda estado
// entre chamadas além da referência ao Store.
type SaleUseCase struct {
	store         Store
	log           *logrus.Logger
	tracer        trace.Tracer
	salesRecorded metric.Int64Counter
}

// NewSaleUseCase cria uma nova instância de SaleUseCase
func NewSaleUseCase(store Store, log *logrus.Logger, tracer trace.Tracer) *SaleUseCase {
	meter := otel.Meter("pos-service")
	salesRecorded, err := meter.Int64Counter("pos.sales.recorded")
	if err != nil {
		// A API retorna um instrumento no-op junto com o erro
		log.Errorf("❌ Failed to create sales counter: %v", err)
	}

	return &SaleUseCase{
		store:         store,
		log:           log,
		tracer:        tracer,
		salesRecorded: salesRecorded,
	}
}

// validateItems valida a requisição antes de qualquer acesso ao banco
func validateItems(items []SaleLineItem) error {
	if len(items) == 0 {
		return &InvalidRequestError{Reason: "sale must contain at least one item"}
	}
	for i, item := range items {
		if item.ProductID == "" {
			return &InvalidRequestError{Reason: fmt.Sprintf("item %d: product_id is required", i)}
		}
		if item.Quantity <= 0 {
			return &InvalidRequestError{Reason: fmt.Sprintf("item %d: quantity must be a positive integer", i)}
		}
		if item.UnitPrice < 0 {
			return &InvalidRequestError{Reason: fmt.Sprintf("item %d: unit_price must not be negative", i)}
		}
	}
	return nil
}

// RecordSale valida os itens, aplica os decrementos de estoque e persiste a
// venda como uma unidade atômica. Qualquer falha aborta a transação inteira:
// nenhum estoque muda e nenhuma venda é criada.
//
// Um mesmo product_id repetido na lista vale como dois decrementos
// independentes; a demanda efetiva é a soma das quantidades.
func (uc *SaleUseCase) RecordSale(ctx context.Context, items []SaleLineItem) (*Sale, error) {
	if err := validateItems(items); err != nil {
		uc.log.Warnf("❌ [RECORD SALE] rejected: %v", err)
		return nil, err
	}

	ctx, span := uc.tracer.Start(ctx, "record_sale")
	defer span.End()
	span.SetAttributes(attribute.Int("sale.items", len(items)))

	// 1. Inicia a transação
	tx, err := uc.store.BeginTx(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback é no-op depois do Commit
	defer tx.Rollback(context.Background())

	// 2. Para cada item, na ordem dada: obtém o produto com LOCK PESSIMISTA
	// (SELECT FOR UPDATE), verifica o estoque e aplica o decremento dentro
	// da mesma transação
	for _, item := range items {
		product, err := uc.store.GetProductForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			uc.log.Warnf("❌ [RECORD SALE] failed for ProductID=%s: %v", item.ProductID, err)
			span.RecordError(err)
			return nil, err
		}

		if product.Stock < item.Quantity {
			err := &InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: product.Stock,
			}
			uc.log.Warnf("❌ [RECORD SALE] %v", err)
			span.RecordError(err)
			return nil, err
		}

		if err := uc.store.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	// 3. Registra a venda com o timestamp do momento do commit
	sale := NewSale(uuid.New().String(), items, time.Now())
	if err := uc.store.InsertSale(ctx, tx, sale); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 4. Commit da transação
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	uc.salesRecorded.Add(ctx, 1)
	span.SetAttributes(attribute.String("sale.id", sale.ID))
	uc.log.Infof("✅ [RECORD SALE] SaleID=%s items=%d total=%.2f", sale.ID, len(sale.Items), sale.Total())
	return sale, nil
}

// ListSales lista as vendas registradas
func (uc *SaleUseCase) ListSales(ctx context.Context) ([]Sale, error) {
	sales, err := uc.store.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// ProductUseCase contém a lógica de negócio do catálogo de produtos
type ProductUseCase struct {
	store Store
	log   *logrus.Logger
}

// NewProductUseCase cria uma nova instância de ProductUseCase
func NewProductUseCase(store Store, log *logrus.Logger) *ProductUseCase {
	return &ProductUseCase{
		store: store,
		log:   log,
	}
}

func validateProductFields(name string, price float64, stock int) error {
	if name == "" {
		return &InvalidRequestError{Reason: "product name is required"}
	}
	if price < 0 {
		return &InvalidRequestError{Reason: "product price must not be negative"}
	}
	if stock < 0 {
		return &InvalidRequestError{Reason: "product stock must not be negative"}
	}
	return nil
}

// ListProducts lista todos os produtos do catálogo
func (uc *ProductUseCase) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := uc.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct busca um produto pelo ID
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, &InvalidRequestError{Reason: "product id is required"}
	}
	return uc.store.GetProduct(ctx, productID)
}

// CreateProduct cria um novo produto no catálogo
func (uc *ProductUseCase) CreateProduct(ctx context.Context, name string, price float64, stock int) (*Product, error) {
	if err := validateProductFields(name, price, stock); err != nil {
		return nil, err
	}

	product := NewProduct(uuid.New().String(), name, price, stock)
	if err := uc.store.CreateProduct(ctx, product); err != nil {
		uc.log.Errorf("❌ [CREATE PRODUCT] failed for %q: %v", name, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	uc.log.Infof("✅ [CREATE PRODUCT] ProductID=%s name=%q stock=%d", product.ID, product.Name, product.Stock)
	return product, nil
}

// UpdateProduct substitui nome, preço e estoque de um produto existente
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, productID, name string, price float64, stock int) (*Product, error) {
	if productID == "" {
		return nil, &InvalidRequestError{Reason: "product id is required"}
	}
	if err := validateProductFields(name, price, stock); err != nil {
		return nil, err
	}

	product := &Product{
		ID:    productID,
		Name:  name,
		Price: price,
		Stock: stock,
	}
	if err := uc.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	uc.log.Infof("✅ [UPDATE PRODUCT] ProductID=%s", productID)
	return uc.store.GetProduct(ctx, productID)
}

// DeleteProduct remove um produto do catálogo
func (uc *ProductUseCase) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return &InvalidRequestError{Reason: "product id is required"}
	}
	if err := uc.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	uc.log.Infof("✅ [DELETE PRODUCT] ProductID=%s", productID)
	return nil
}
