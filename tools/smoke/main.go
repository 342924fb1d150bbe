package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Smoke test do POS: cria produtos, registra uma venda, confere os
// decrementos de estoque e garante que um oversell é rejeitado sem
// efeitos colaterais.

type product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type saleItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func main() {
	client := resty.New().
		SetBaseURL(getEnv("POS_SERVICE_URL", "http://localhost:8080")).
		SetTimeout(10 * time.Second)

	coffee := createProduct(client, "Smoke Coffee", 10.50, 8)
	sugar := createProduct(client, "Smoke Sugar", 4.00, 2)

	// Venda válida
	resp, err := client.R().
		SetBody(map[string]interface{}{
			"items": []saleItem{
				{ProductID: coffee.ID, Quantity: 3, UnitPrice: coffee.Price},
				{ProductID: sugar.ID, Quantity: 1, UnitPrice: sugar.Price},
			},
		}).
		Post("/sales")
	if err != nil {
		fail("record sale: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		fail("record sale: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	log.Printf("✅ sale recorded")

	assertStock(client, coffee.ID, 5)
	assertStock(client, sugar.ID, 1)

	// Oversell: precisa falhar com 409 e não mexer no estoque
	resp, err = client.R().
		SetBody(map[string]interface{}{
			"items": []saleItem{
				{ProductID: coffee.ID, Quantity: 2, UnitPrice: coffee.Price},
				{ProductID: sugar.ID, Quantity: 5, UnitPrice: sugar.Price},
			},
		}).
		Post("/sales")
	if err != nil {
		fail("oversell: %v", err)
	}
	if resp.StatusCode() != http.StatusConflict {
		fail("oversell: expected 409, got status=%d body=%s", resp.StatusCode(), resp.String())
	}
	log.Printf("✅ oversell rejected: %s", resp.String())

	assertStock(client, coffee.ID, 5)
	assertStock(client, sugar.ID, 1)

	log.Printf("✅ smoke test passed")
}

func createProduct(client *resty.Client, name string, price float64, stock int) *product {
	var created product
	resp, err := client.R().
		SetBody(map[string]interface{}{"name": name, "price": price, "stock": stock}).
		SetResult(&created).
		Post("/products")
	if err != nil {
		fail("create product %q: %v", name, err)
	}
	if resp.StatusCode() != http.StatusCreated {
		fail("create product %q: status=%d body=%s", name, resp.StatusCode(), resp.String())
	}
	log.Printf("✅ product created: %s (%s)", created.Name, created.ID)
	return &created
}

func assertStock(client *resty.Client, productID string, want int) {
	var got product
	resp, err := client.R().SetResult(&got).Get("/products/" + productID)
	if err != nil {
		fail("get product %s: %v", productID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		fail("get product %s: status=%d", productID, resp.StatusCode())
	}
	if got.Stock != want {
		fail("stock mismatch for %s: want %d, got %d", productID, want, got.Stock)
	}
	log.Printf("✅ stock of %s = %d", productID, got.Stock)
}

func fail(format string, args ...interface{}) {
	log.Printf("❌ "+format, args...)
	os.Exit(1)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
