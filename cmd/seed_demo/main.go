// Command seed_demo fills an empty catalog with demo SKUs, shelves and cargo.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/xelth-com/eckshelf/internal/config"
	"github.com/xelth-com/eckshelf/internal/database"
	"github.com/xelth-com/eckshelf/internal/layout"
	"github.com/xelth-com/eckshelf/internal/logging"
	"github.com/xelth-com/eckshelf/internal/repository"
)

type demoSKU struct {
	name, code            string
	length, width, height float64
	weight                float64
}

var demoSKUs = []demoSKU{
	{"标准纸箱", "DEMO-BOX-S", 0.4, 0.3, 0.25, 2.5},
	{"大号纸箱", "DEMO-BOX-L", 0.6, 0.4, 0.4, 6},
	{"塑料周转箱", "DEMO-TOTE", 0.6, 0.4, 0.3, 1.8},
	{"木托盘", "DEMO-PALLET", 1.2, 1.0, 0.15, 22},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("🌱 Warehouse demo data seeder")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyFlags(os.Args[0], os.Args[1:]); err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: "warn", Format: "text", ServiceName: "seed_demo"})

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	ctx := context.Background()
	skus := repository.NewSKURepository(db.DB, nil, log)
	cargos := repository.NewCargoRepository(db.DB)

	count, err := skus.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("⚠️  Catalog already has %d SKUs, nothing to do\n", count)
		return nil
	}

	fmt.Println("📦 Creating SKUs...")
	var ids []string
	for _, d := range demoSKUs {
		sku, err := skus.Create(ctx, repository.Fields{
			"name":     d.name,
			"sku_code": d.code,
			"length":   d.length,
			"width":    d.width,
			"height":   d.height,
			"weight":   d.weight,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", d.code, err)
		}
		ids = append(ids, sku.ID)
		fmt.Printf("   ✅ %s (%s)\n", sku.SKUCode, sku.ID)
	}

	fmt.Println("🗄️  Creating shelves...")
	store := layout.NewStore(cfg.ConfigFile, log)
	for i := 0; i < 3; i++ {
		if _, err := store.AddShelf(map[string]any{
			"name":     fmt.Sprintf("Shelf %c", 'A'+i),
			"position": map[string]any{"x": float64(i) * 3, "y": 0.0, "z": 0.0},
			"cells":    []any{},
		}); err != nil {
			return err
		}
	}

	fmt.Println("📍 Placing cargo...")
	for i, id := range ids {
		if _, err := cargos.Create(ctx, repository.Fields{
			"sku_id": id,
			"x":      float64(i) * 1.5,
			"y":      0.0,
			"z":      1.0,
		}); err != nil {
			return err
		}
	}

	stats := store.Statistics(int64(len(ids)))
	fmt.Printf("✅ Done: %d SKUs, %d cargos, %.0f cells\n", len(ids), len(ids), stats.TotalCells)
	return nil
}
