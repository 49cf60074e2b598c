package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Databases created by the earlier Express backend lack the role, owner and
// timestamp columns and store bcrypt hashes in "password". The upgrades below
// add what is missing so those files can be opened in place.

const legacyCreatedAt = `'1970-01-01 00:00:00'`

type columnUpgrade struct {
	name       string
	statements []string
}

var usersUpgrades = []columnUpgrade{
	{name: "password_hash", statements: []string{
		`ALTER TABLE users ADD COLUMN password_hash TEXT NOT NULL DEFAULT ''`,
		`UPDATE users SET password_hash = password WHERE password_hash = '' AND password IS NOT NULL`,
	}},
	{name: "role", statements: []string{
		`ALTER TABLE users ADD COLUMN role TEXT NOT NULL DEFAULT 'patient'`,
	}},
	{name: "created_at", statements: []string{
		`ALTER TABLE users ADD COLUMN created_at DATETIME NOT NULL DEFAULT ` + legacyCreatedAt,
	}},
}

var patientsUpgrades = []columnUpgrade{
	{name: "user_id", statements: []string{
		`ALTER TABLE patients ADD COLUMN user_id INTEGER REFERENCES users(id)`,
	}},
	{name: "created_at", statements: []string{
		`ALTER TABLE patients ADD COLUMN created_at DATETIME NOT NULL DEFAULT ` + legacyCreatedAt,
	}},
}

func ensureColumns(ctx context.Context, db *sql.DB, table string, upgrades []columnUpgrade) error {
	columns, err := tableColumns(ctx, db, table)
	if err != nil {
		return err
	}

	for _, upgrade := range upgrades {
		if _, exists := columns[upgrade.name]; exists {
			continue
		}
		for _, statement := range upgrade.statements {
			if _, err := db.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("add column %s.%s: %w", table, upgrade.name, err)
			}
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("describe %s table: %w", table, err)
	}
	defer rows.Close()

	columns := map[string]struct{}{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan pragma table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pragma table info: %w", err)
	}
	return columns, nil
}

// normalizeEmails lower-cases stored addresses and enforces case-insensitive
// uniqueness. Rows that would collide are reported instead of merged.
func normalizeEmails(ctx context.Context, db *sql.DB) error {
	var collisions int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM (
	SELECT lower(trim(email)) AS normalized
	FROM users
	WHERE email IS NOT NULL
	GROUP BY normalized
	HAVING COUNT(*) > 1
)`).Scan(&collisions)
	if err != nil {
		return fmt.Errorf("check user emails: %w", err)
	}
	if collisions > 0 {
		return fmt.Errorf("normalize user emails: %d addresses differ only by case or spacing, merge those accounts first", collisions)
	}

	if _, err := db.ExecContext(ctx, `UPDATE users SET email = lower(trim(email)) WHERE email <> lower(trim(email))`); err != nil {
		return fmt.Errorf("normalize user emails: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users(lower(email))`); err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}
