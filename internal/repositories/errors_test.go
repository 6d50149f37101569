package repositories

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/economy_bot/internal/store"
)

func TestTranslate(t *testing.T) {
	plain := stderrors.New("connection reset")

	tests := []struct {
		name      string
		err       error
		conflict  bool
		duplicate bool
	}{
		{"Nil", nil, false, false},
		{"Plain error", plain, false, false},
		{"Serialization failure", &pgconn.PgError{Code: "40001"}, true, false},
		{"Deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), true, false},
		{"Unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "characters_pkey"}, false, true},
		{"Other SQLSTATE", &pgconn.PgError{Code: "23503"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("translate(nil) = %v, want nil", got)
				}
				return
			}
			if store.IsConflict(got) != tt.conflict {
				t.Errorf("IsConflict() = %v, want %v", store.IsConflict(got), tt.conflict)
			}
			if stderrors.Is(got, store.ErrDuplicate) != tt.duplicate {
				t.Errorf("Is(ErrDuplicate) = %v, want %v", !tt.duplicate, tt.duplicate)
			}
			if !tt.conflict && !tt.duplicate && got != tt.err {
				t.Errorf("translate() = %v, want the original error", got)
			}
		})
	}
}
