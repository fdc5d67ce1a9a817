package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"admin-system/pkg/config"
	"admin-system/pkg/constants"
	"admin-system/pkg/utils"
)

// seedSuperAdmin inserts the superadmin record with its well-known id.
// Idempotent: an existing record is left untouched.
func seedSuperAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	var existingID string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE id = $1", constants.SuperAdminID).Scan(&existingID)
	if err == nil {
		log.Println("  - superadmin already exists, skipping")
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.Auth.ResetPassword)
	if err != nil {
		return fmt.Errorf("hash superadmin password: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO users (id, username, password, name, user_type, user_status, is_superuser)
		VALUES ($1, 'admin', $2, 'Administrator', $3, $4, TRUE)
		ON CONFLICT (id) DO NOTHING`,
		constants.SuperAdminID, hashedPassword, constants.UserTypeSystem, constants.UserStatusActive)
	if err != nil {
		return fmt.Errorf("insert superadmin: %w", err)
	}
	log.Println("  - superadmin 'admin' created")
	return nil
}
