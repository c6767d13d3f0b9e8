package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/crmlens/crmlens/internal/crm"
)

// Encoded is a parquet rendition of a query result, ready for upload.
type Encoded struct {
	Data        []byte
	RecordCount int64
}

// Encode converts a tabular query result into a parquet file. The schema is
// inferred per column from the first non-nil value; all columns are optional
// so NULLs survive the round trip.
func Encode(name string, result crm.Result) (Encoded, error) {
	if len(result.Columns) == 0 {
		return Encoded{}, fmt.Errorf("result has no columns")
	}

	group := parquet.Group{}
	for i, column := range result.Columns {
		if column == "" {
			return Encoded{}, fmt.Errorf("column %d has an empty name", i)
		}
		group[column] = parquet.Optional(columnNode(i, result.Rows))
	}
	schema := parquet.NewSchema(name, group)

	records := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := make(map[string]any, len(result.Columns))
		for i, column := range result.Columns {
			if i >= len(row) || row[i] == nil {
				continue
			}
			record[column] = normalizeValue(row[i])
		}
		records = append(records, record)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	if _, err := writer.Write(records); err != nil {
		return Encoded{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Encoded{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return Encoded{Data: buf.Bytes(), RecordCount: int64(len(records))}, nil
}

func columnNode(index int, rows [][]any) parquet.Node {
	for _, row := range rows {
		if index >= len(row) || row[index] == nil {
			continue
		}
		switch row[index].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return parquet.Int(64)
		case float32, float64:
			return parquet.Leaf(parquet.DoubleType)
		case bool:
			return parquet.Leaf(parquet.BooleanType)
		default:
			return parquet.String()
		}
	}
	return parquet.String()
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case bool:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
