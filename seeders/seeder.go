package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"admin-system/pkg/config"
)

// SeedDepartments creates the starter department tree.
func SeedDepartments(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("seeding departments...")

	if err := seedDepartments(ctx, db); err != nil {
		log.Fatalf("failed to seed departments: %v", err)
	}
	log.Println("departments seeded")
}

// SeedAdmin creates the fixed superadmin account.
func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) {
	ctx := context.Background()
	log.Println("seeding superadmin...")

	if err := seedSuperAdmin(ctx, db, cfg); err != nil {
		log.Fatalf("failed to seed superadmin: %v", err)
	}
	log.Println("superadmin seeded")
}
