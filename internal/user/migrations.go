package user

import (
	"context"
	"database/sql"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	username VARCHAR(24) UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	avatar TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, usersSchema)
	return err
}
