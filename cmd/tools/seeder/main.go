package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedPromotions(db)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	// Prices are integer cents. TaxRate is an inclusive percentage; zero
	// means the product carries no tax.
	products := []struct {
		Code    string
		Name    string
		Type    string
		Price   int64
		TaxRate int
	}{
		{"bk-clean-code", "Clean Code", "book", 3299, 7},
		{"bk-pragmatic", "The Pragmatic Programmer", "book", 3999, 7},
		{"bk-sicp", "Structure and Interpretation of Computer Programs", "book", 4599, 7},
		{"bk-gopl", "The Go Programming Language", "book", 3599, 7},
		{"bk-ddia", "Designing Data-Intensive Applications", "book", 4299, 7},
		{"bk-refactoring", "Refactoring", "book", 3899, 7},
		{"bk-tdd", "Test-Driven Development: By Example", "book", 3499, 7},
		{"bk-mythical", "The Mythical Man-Month", "book", 2799, 0},
		{"au-clean-code", "Clean Code (Audiobook)", "audio", 2499, 19},
		{"au-pragmatic", "The Pragmatic Programmer (Audiobook)", "audio", 2899, 19},
		{"au-phoenix", "The Phoenix Project (Audiobook)", "audio", 2199, 19},
		{"au-deep-work", "Deep Work (Audiobook)", "audio", 1999, 19},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		var taxRate sql.NullInt32
		if p.TaxRate > 0 {
			taxRate = sql.NullInt32{Int32: int32(p.TaxRate), Valid: true}
		}
		_, err := db.Exec(`
			INSERT INTO products (id, code, name, type, price, tax_rate)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				type = EXCLUDED.type,
				price = EXCLUDED.price,
				tax_rate = EXCLUDED.tax_rate;
		`, p.Code, p.Name, p.Type, p.Price, taxRate)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Code, err)
		}
	}
}

func seedPromotions(db *sql.DB) {
	promotions := []struct {
		Name         string
		Type         string
		Percent      int
		ProductTypes []string
	}{
		{"Summer reading sale", "item", 10, []string{"book"}},
		{"Audiobook launch", "item", 15, []string{"audio"}},
		{"Storewide clearance", "item", 5, nil},
		{"Loyal customer", "order", 10, nil},
		{"Black Friday", "order", 20, nil},
	}

	fmt.Println("Seeding Promotions...")
	for _, p := range promotions {
		var types interface{}
		if len(p.ProductTypes) > 0 {
			types = pq.Array(p.ProductTypes)
		}
		_, err := db.Exec(`
			INSERT INTO promotions (id, name, type, percent, product_types)
			SELECT gen_random_uuid(), $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM promotions WHERE name = $1);
		`, p.Name, p.Type, p.Percent, types)
		if err != nil {
			log.Printf("Failed to seed promotion %s: %v", p.Name, err)
		}
	}
}
