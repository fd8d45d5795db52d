package main

import (
	"context"
	"log"

	"cartify/internal/auth"
	"cartify/internal/config"
	"cartify/internal/domain"
	"cartify/internal/infra/database"
	"cartify/internal/logging"
	"cartify/internal/repository/gormrepo"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	name, description, price, image string
	category                        domain.Category
	stock                           int
	sku                             string
	featured                        bool
	rating                          float64
	numReviews                      int
}

var catalog = []seedProduct{
	{"Wireless Noise-Canceling Headphones", "Premium over-ear headphones with active noise cancellation, 30-hour battery life, and Hi-Res Audio support. Features adaptive sound control and speak-to-chat technology.", "299.99", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500", domain.CategoryElectronics, 45, "ELEC-HP-001", true, 4.8, 234},
	{"Smart Watch Pro", "Advanced smartwatch with health monitoring, GPS tracking, and 5-day battery life. Water resistant to 50m with always-on AMOLED display.", "399.99", "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500", domain.CategoryElectronics, 32, "ELEC-SW-002", true, 4.6, 189},
	{"Ultra-Slim Laptop Stand", "Ergonomic aluminum laptop stand with adjustable height. Compatible with all laptops 10-17 inches. Foldable design for portability.", "59.99", "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=500", domain.CategoryAccessories, 78, "ACC-LS-003", false, 4.4, 156},
	{"Premium Leather Backpack", "Handcrafted genuine leather backpack with laptop compartment, anti-theft design, and waterproof coating. Perfect for daily commute.", "189.99", "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=500", domain.CategoryAccessories, 23, "ACC-BP-004", true, 4.7, 98},
	{"Minimalist Running Shoes", "Lightweight running shoes with responsive cushioning and breathable knit upper. Designed for neutral runners seeking speed.", "129.99", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=500", domain.CategorySports, 56, "SPT-RS-005", true, 4.5, 312},
	{"Organic Cotton T-Shirt", "Premium organic cotton t-shirt with a relaxed fit. Sustainably sourced and ethically manufactured. Available in multiple colors.", "34.99", "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500", domain.CategoryClothing, 120, "CLO-TS-006", false, 4.3, 87},
	{"Mechanical Gaming Keyboard", "RGB mechanical keyboard with hot-swappable switches, PBT keycaps, and programmable macros. N-key rollover with dedicated media controls.", "149.99", "https://images.unsplash.com/photo-1511467687858-23d96c32e4ae?w=500", domain.CategoryElectronics, 3, "ELEC-KB-007", false, 4.9, 445},
	{"Yoga Mat Premium", "Extra-thick 6mm yoga mat with alignment lines. Non-slip surface on both sides. Includes carrying strap. Eco-friendly TPE material.", "49.99", "https://images.unsplash.com/photo-1601925260368-ae2f83cf8b7f?w=500", domain.CategorySports, 68, "SPT-YM-008", false, 4.6, 203},
	{"Ceramic Pour-Over Coffee Set", "Japanese-inspired ceramic pour-over coffee dripper set with server. Includes reusable stainless steel filter. Makes 1-4 cups.", "74.99", "https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=500", domain.CategoryHomeAndLiving, 41, "HOM-CF-009", true, 4.7, 167},
	{"Denim Jacket Classic", "Classic fit denim jacket with vintage wash. Features brass buttons, adjustable waist tabs, and chest pockets. 100% premium cotton denim.", "89.99", "https://images.unsplash.com/photo-1576995853123-5a10305d93c0?w=500", domain.CategoryClothing, 34, "CLO-DJ-010", false, 4.4, 76},
	{"Wireless Charging Pad", "Fast wireless charging pad with LED indicator. Supports Qi-enabled devices. Ultra-slim design with anti-slip surface.", "29.99", "https://images.unsplash.com/photo-1591815302525-756a9bcc3425?w=500", domain.CategoryElectronics, 2, "ELEC-WC-011", false, 4.2, 134},
	{"Scented Soy Candle Set", "Set of 3 hand-poured soy candles in calming scents: Lavender, Vanilla, and Sandalwood. 40-hour burn time each. Reusable glass jars.", "39.99", "https://images.unsplash.com/photo-1602028915047-37269d1a73f7?w=500", domain.CategoryHomeAndLiving, 55, "HOM-SC-012", false, 4.8, 211},
}

type seedUser struct {
	name, email, password string
	role                  domain.Role
}

var accounts = []seedUser{
	{"Admin", "admin@cartify.com", "admin123", domain.RoleAdmin},
	{"John Doe", "john@example.com", "user123", domain.RoleUser},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	if err := reset(db); err != nil {
		log.Fatalf("seed: reset: %v", err)
	}

	ctx := context.Background()
	users := gormrepo.NewUserRepository(db)
	hasher := auth.NewPasswordHasher()
	for _, a := range accounts {
		hash, err := hasher.Hash(a.password)
		if err != nil {
			log.Fatalf("seed: hash: %v", err)
		}
		u := &domain.User{Name: a.name, Email: a.email, PasswordHash: hash, Role: a.role}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: user %s: %v", a.email, err)
		}
		logger.Info("seeded user", "email", a.email, "role", a.role)
	}

	products := gormrepo.NewProductRepository(db)
	for _, sp := range catalog {
		p := &domain.Product{
			Name:        sp.name,
			Description: sp.description,
			Price:       decimal.RequireFromString(sp.price),
			Image:       sp.image,
			Category:    sp.category,
			Stock:       sp.stock,
			SKU:         sp.sku,
			Featured:    sp.featured,
			Rating:      sp.rating,
			NumReviews:  sp.numReviews,
		}
		p.ApplyDefaults()
		if err := p.Validate(); err != nil {
			log.Fatalf("seed: product %s: %v", sp.sku, err)
		}
		if err := products.Create(ctx, p); err != nil {
			log.Fatalf("seed: product %s: %v", sp.sku, err)
		}
	}

	logger.Info("database seeded", "products", len(catalog), "users", len(accounts))
}

func reset(db *gorm.DB) error {
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := tx.Delete(&domain.User{}).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.Product{}).Error
}
