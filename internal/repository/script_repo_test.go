package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

func TestTranslateErrorUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_scripts_name"})
	if err := translateError(dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("err=%v, want ErrDuplicatedKey", err)
	}

	fk := &pgconn.PgError{Code: "23503"}
	if err := translateError(fk); errors.Is(err, gorm.ErrDuplicatedKey) || !errors.Is(err, fk) {
		t.Fatalf("foreign key err=%v, want passthrough", err)
	}
	if err := translateError(nil); err != nil {
		t.Fatalf("nil err=%v", err)
	}
}
