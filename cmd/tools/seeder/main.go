package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	seedUsers(db)
	seedCatalog(db)
	seedShippingRates(db)
	seedVendors(db)

	log.Println("seeding completed")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"OrgoFarm Admin", "admin@orgofarm.in", "admin"},
		{"Counter Staff", "staff@orgofarm.in", "staff"},
		{"Meera Krishnan", "meera@example.com", "customer"},
		{"Arjun Subramanian", "arjun@example.com", "customer"},
		{"Lakshmi Venkatesh", "lakshmi@example.com", "customer"},
	}

	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	log.Println("seeding users")
	for _, u := range users {
		if _, err := db.Exec(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`, u.Name, u.Email, hash, u.Role); err != nil {
			log.Printf("seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(db *sql.DB) {
	categories := []struct {
		Name string
		Slug string
	}{
		{"Grains & Pulses", "grains-pulses"},
		{"Cold-Pressed Oils", "cold-pressed-oils"},
		{"Spices & Masalas", "spices-masalas"},
		{"Honey & Sweeteners", "honey-sweeteners"},
		{"Millets", "millets"},
		{"Dry Fruits & Nuts", "dry-fruits-nuts"},
	}

	log.Println("seeding categories")
	catIDs := map[string]string{}
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, c.Name, c.Slug).Scan(&id)
		if err != nil {
			log.Printf("seed category %s: %v", c.Name, err)
			continue
		}
		catIDs[c.Slug] = id
	}

	type variant struct {
		PackSize      string
		UnitPrice     float64
		OriginalPrice float64
		Stock         int
	}
	products := []struct {
		Name        string
		Slug        string
		Category    string
		Description string
		Variants    []variant
	}{
		{
			"Organic Sona Masoori Rice", "organic-sona-masoori-rice", "grains-pulses",
			"Unpolished sona masoori rice grown without chemical inputs.",
			[]variant{{"1kg", 95, 110, 120}, {"5kg", 440, 520, 60}},
		},
		{
			"Organic Toor Dal", "organic-toor-dal", "grains-pulses",
			"Sun-dried toor dal from certified organic farms.",
			[]variant{{"500g", 85, 95, 150}, {"1kg", 160, 185, 90}},
		},
		{
			"Cold-Pressed Groundnut Oil", "cold-pressed-groundnut-oil", "cold-pressed-oils",
			"Wood-pressed groundnut oil, unrefined and unfiltered.",
			[]variant{{"500ml", 180, 200, 80}, {"1l", 340, 390, 50}},
		},
		{
			"Cold-Pressed Coconut Oil", "cold-pressed-coconut-oil", "cold-pressed-oils",
			"Single-origin coconut oil pressed in small batches.",
			[]variant{{"500ml", 210, 240, 70}},
		},
		{
			"Organic Turmeric Powder", "organic-turmeric-powder", "spices-masalas",
			"High-curcumin Erode turmeric, stone ground.",
			[]variant{{"100g", 55, 65, 200}, {"250g", 120, 140, 110}},
		},
		{
			"Raw Forest Honey", "raw-forest-honey", "honey-sweeteners",
			"Unprocessed honey harvested from forest apiaries.",
			[]variant{{"250g", 180, 210, 60}, {"500g", 330, 390, 40}},
		},
		{
			"Organic Jaggery Powder", "organic-jaggery-powder", "honey-sweeteners",
			"Chemical-free jaggery powder from native sugarcane.",
			[]variant{{"500g", 90, 105, 130}},
		},
		{
			"Foxtail Millet", "foxtail-millet", "millets",
			"Traditionally grown foxtail millet, hand cleaned.",
			[]variant{{"500g", 75, 85, 100}, {"1kg", 140, 160, 55}},
		},
		{
			"Organic Cashew Nuts", "organic-cashew-nuts", "dry-fruits-nuts",
			"Whole W320 cashews from organic orchards.",
			[]variant{{"250g", 280, 320, 45}},
		},
	}

	log.Println("seeding products")
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("missing category %s for %s", p.Category, p.Name)
			continue
		}
		var prodID string
		err := db.QueryRow(`
			INSERT INTO products (category_id, name, slug, description, active)
			VALUES ($1, $2, $3, $4, true)
			ON CONFLICT (slug) DO UPDATE SET
				category_id = EXCLUDED.category_id,
				description = EXCLUDED.description
			RETURNING id`, catID, p.Name, p.Slug, p.Description).Scan(&prodID)
		if err != nil {
			log.Printf("seed product %s: %v", p.Name, err)
			continue
		}
		for _, v := range p.Variants {
			discount := 0.0
			if v.OriginalPrice > 0 {
				discount = (v.OriginalPrice - v.UnitPrice) / v.OriginalPrice * 100
			}
			if _, err := db.Exec(`
				INSERT INTO product_variants (product_id, pack_size, unit_price, original_price, discount_pct, stock)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (product_id, pack_size) DO UPDATE SET
					unit_price = EXCLUDED.unit_price,
					original_price = EXCLUDED.original_price,
					discount_pct = EXCLUDED.discount_pct,
					stock = EXCLUDED.stock`,
				prodID, v.PackSize, v.UnitPrice, v.OriginalPrice, discount, v.Stock); err != nil {
				log.Printf("seed variant %s %s: %v", p.Name, v.PackSize, err)
			}
		}
	}
}

func seedShippingRates(db *sql.DB) {
	log.Println("seeding shipping rates")
	var count int
	if err := db.QueryRow(`SELECT count(*) FROM shipping_rates`).Scan(&count); err != nil {
		log.Printf("count shipping rates: %v", err)
		return
	}
	if count > 0 {
		return
	}
	if _, err := db.Exec(`
		INSERT INTO shipping_rates (origin_state, origin_city, local_min, local_max, interstate_min, interstate_max)
		VALUES ('Tamil Nadu', 'Coimbatore', 30, 50, 60, 90)`); err != nil {
		log.Printf("seed shipping rates: %v", err)
	}
}

func seedVendors(db *sql.DB) {
	vendors := []struct {
		Name    string
		Contact string
		Phone   string
		Email   string
	}{
		{"Erode Organic Collective", "S. Palanisamy", "+91 98430 11223", "orders@erodeorganic.in"},
		{"Nilgiris Honey Cooperative", "K. Mari", "+91 94430 55667", "sales@nilgirishoney.in"},
	}

	log.Println("seeding vendors")
	for _, v := range vendors {
		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM vendors WHERE name = $1)`, v.Name).Scan(&exists); err != nil {
			log.Printf("check vendor %s: %v", v.Name, err)
			continue
		}
		if exists {
			continue
		}
		if _, err := db.Exec(`
			INSERT INTO vendors (name, contact, phone, email, active)
			VALUES ($1, $2, $3, $4, true)`, v.Name, v.Contact, v.Phone, v.Email); err != nil {
			log.Printf("seed vendor %s: %v", v.Name, err)
		}
	}
}
