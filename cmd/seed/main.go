package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/bargain-backend/internal/config"
	"github.com/shinyyama/bargain-backend/internal/db"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name            string
	Description     string
	Price           string
	Stock           int
	AllowBargaining bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("products already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	products := buildSeedProducts()
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range buildSeedUsers() {
			if err := tx.Where("uid = ?", u.UID).Assign(u).FirstOrCreate(&model.User{}).Error; err != nil {
				return fmt.Errorf("upsert user %q: %w", u.UID, err)
			}
		}
		threshold := decimal.NewFromInt(10)
		reject := decimal.NewFromInt(50)
		pct := decimal.NewFromInt(15)
		settings := model.BargainSettings{
			SellerUID:                "seed-seller",
			EnableAutoAccept:         true,
			AutoAcceptThreshold:      &threshold,
			EnableAutoReject:         true,
			AutoRejectThreshold:      &reject,
			EnableAutoCounter:        true,
			CounterOfferPercentage:   &pct,
			DefaultResponseTimeHours: model.DefaultResponseTimeHours,
		}
		if err := tx.Where("seller_uid = ?", settings.SellerUID).Assign(settings).FirstOrCreate(&model.BargainSettings{}).Error; err != nil {
			return fmt.Errorf("upsert bargain settings: %w", err)
		}
		for _, sp := range products {
			if err := insertProduct(tx, "seed-seller", sp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d products", len(products))
	return nil
}

func buildSeedUsers() []model.User {
	return []model.User{
		{UID: "seed-seller", Username: "lamp_works", Email: "seller@example.com", FullName: "Lamp Works", UserType: model.UserTypeSeller, City: "Dhaka", Country: "Bangladesh"},
		{UID: "seed-buyer", Username: "alice", Email: "alice@example.com", FullName: "Alice Buyer", UserType: model.UserTypeBuyer, Address: "1 Market St", City: "Dhaka", Country: "Bangladesh", WalletBalance: decimal.NewFromInt(5000)},
		{UID: "seed-buyer-2", Username: "bob", Email: "bob@example.com", FullName: "Bob Buyer", UserType: model.UserTypeBuyer, Address: "9 River Rd", City: "Chittagong", WalletBalance: decimal.NewFromInt(300)},
	}
}

func buildSeedProducts() []seedProduct {
	return []seedProduct{
		{Name: "Handmade brass lamp", Description: "Hand-hammered table lamp with linen shade.", Price: "1000.00", Stock: 5, AllowBargaining: true},
		{Name: "Jute floor rug", Description: "140x200 natural jute, hand woven.", Price: "2450.00", Stock: 3, AllowBargaining: true},
		{Name: "Clay tea set", Description: "Four cups and a pot, wood fired.", Price: "780.50", Stock: 10, AllowBargaining: true},
		{Name: "Nakshi kantha throw", Description: "Embroidered cotton throw, one of a kind.", Price: "3200.00", Stock: 1, AllowBargaining: true},
		{Name: "Bamboo desk organizer", Description: "Fixed price item.", Price: "450.00", Stock: 25, AllowBargaining: false},
	}
}

func insertProduct(tx *gorm.DB, sellerUID string, sp seedProduct) error {
	price, err := decimal.NewFromString(sp.Price)
	if err != nil {
		return fmt.Errorf("price for %q: %w", sp.Name, err)
	}
	p := &model.Product{
		SellerUID:     sellerUID,
		Name:          strings.TrimSpace(sp.Name),
		Description:   strings.TrimSpace(sp.Description),
		Price:         price,
		StockQuantity: sp.Stock,
		IsActive:      true,
	}
	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("insert product %q: %w", sp.Name, err)
	}
	// false would be dropped on insert in favor of the column default.
	if err := tx.Model(p).Update("allow_bargaining", sp.AllowBargaining).Error; err != nil {
		return fmt.Errorf("update product %q: %w", sp.Name, err)
	}
	return nil
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Product{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	force := os.Getenv("FORCE_SEED")
	return strings.EqualFold(force, "true"), nil
}
