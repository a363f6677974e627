package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg error code", &pgconn.PgError{Code: "23505"}, true},
		{"pg error other code", &pgconn.PgError{Code: "23503"}, false},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pg message text", errors.New(`duplicate key value violates unique constraint "products_pkey"`), true},
		{"sqlite message text", errors.New("UNIQUE constraint failed: products.id"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		if got := IsUniqueViolation(tt.err); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
