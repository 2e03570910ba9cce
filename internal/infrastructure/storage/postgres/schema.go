package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// RequiredTables must exist before the server accepts traffic.
var RequiredTables = []string{
	"products",
	"product_movements",
	"product_types",
	"slaughtered",
	"orders",
	"deliveries",
	"sys_sequences",
	"sys_audit",
	"sys_idempotency",
}

// CheckSchema verifies that migrations have been applied.
// It runs once at startup; a missing table means `farmctl migrate` was not run.
func CheckSchema(ctx context.Context, q Querier) error {
	rows, err := q.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)
	`, RequiredTables)
	if err != nil {
		return fmt.Errorf("query schema: %w", err)
	}
	defer rows.Close()

	var present []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan table name: %w", err)
		}
		present = append(present, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return missingTables(present)
}

func missingTables(present []string) error {
	var missing []string
	for _, t := range RequiredTables {
		if !slices.Contains(present, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema is missing tables %s: run migrations first", strings.Join(missing, ", "))
	}
	return nil
}
