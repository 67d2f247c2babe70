// seed is a one-shot tool to load demo users and a starter catalog into a
// fresh database. Existing rows are upserted, so it is safe to re-run.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"harmono-erp/internal/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	log.Println("Seeding users...")
	_, err = tx.Exec(ctx, `
		INSERT INTO users (name, employee_code, email, password_hash, role)
		VALUES
		  ('Admin',        'EMP-001', 'admin@example.com',    $1, 'admin'),
		  ('Ravi Kumar',   'EMP-101', 'ravi@example.com',     $1, 'factory'),
		  ('Sunil Sharma', 'EMP-201', 'sunil@example.com',    $1, 'delivery')
		ON CONFLICT (email) DO UPDATE
		  SET name = EXCLUDED.name,
		      employee_code = EXCLUDED.employee_code,
		      role = EXCLUDED.role,
		      is_active = true;
	`, string(hash))
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("Seeding catalog...")
	_, err = tx.Exec(ctx, `
		INSERT INTO items (name, code, category, quantity, min_level, unit_price)
		VALUES
		  ('Steel Frame',  'RM-001', 'RAW_MATERIAL',  40, 10,   350.00),
		  ('Wooden Plank', 'RM-002', 'RAW_MATERIAL', 120, 30,    80.00),
		  ('Screw Pack',   'RM-003', 'RAW_MATERIAL', 500, 100,    5.50),
		  ('Work Table',   'FG-001', 'FINISHED_GOOD',  8,  5, 2400.00),
		  ('Stool',        'FG-002', 'FINISHED_GOOD', 15,  5,  650.00)
		ON CONFLICT DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("Seeding recipes...")
	_, err = tx.Exec(ctx, `
		INSERT INTO recipe_entries (item_id, position, ingredient_id, ingredient_name, qty_required)
		SELECT fg.id, r.position, rm.id, rm.name, r.qty
		FROM (VALUES
		    ('FG-001', 1, 'RM-001', 1::bigint),
		    ('FG-001', 2, 'RM-002', 4::bigint),
		    ('FG-001', 3, 'RM-003', 2::bigint),
		    ('FG-002', 1, 'RM-002', 2::bigint),
		    ('FG-002', 2, 'RM-003', 1::bigint)
		) AS r(fg_code, position, rm_code, qty)
		JOIN items fg ON fg.code = r.fg_code
		JOIN items rm ON rm.code = r.rm_code
		ON CONFLICT (item_id, position) DO UPDATE
		  SET ingredient_id = EXCLUDED.ingredient_id,
		      ingredient_name = EXCLUDED.ingredient_name,
		      qty_required = EXCLUDED.qty_required;
	`)
	if err != nil {
		log.Fatalf("Failed to seed recipes: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded successfully.")
}
