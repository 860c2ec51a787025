package parquetio

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimledger/internal/model"
)

// ValidateSchema checks that a snapshot carries every required column.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range model.RequiredParquetColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("snapshot missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateRow rejects rows that could not have come from the ledger.
func ValidateRow(row *model.ClaimParquetRow) error {
	if strings.TrimSpace(row.MessageID) == "" {
		return fmt.Errorf("empty message_id")
	}
	if _, ok := model.ParseStatus(row.ClaimStatus); !ok {
		return fmt.Errorf("message %s: unknown claim_status %q", row.MessageID, row.ClaimStatus)
	}
	return nil
}
