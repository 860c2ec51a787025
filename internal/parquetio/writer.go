package parquetio

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimledger/internal/model"
)

// WriteFile writes records to path as a snapshot and returns the row count.
func WriteFile(path string, records []model.ClaimRecord) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	defer out.Close()

	rows := make([]model.ClaimParquetRow, len(records))
	for i := range records {
		rows[i] = records[i].ToParquetRow()
	}

	writer := parquet.NewGenericWriter[model.ClaimParquetRow](out)
	n, err := writer.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write snapshot: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("close snapshot writer: %w", err)
	}
	return n, out.Close()
}
