package gateway

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
)

// Cursor is the forward-only row source Materialize reads. *sql.Rows
// satisfies it.
type Cursor interface {
	Columns() ([]string, error)
	ColumnTypes() ([]*sql.ColumnType, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Materialize reads every remaining row of the cursor's current result set.
// Column order follows the cursor metadata. On error no rows are returned.
// The cursor is not closed.
func Materialize(rows Cursor) (ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, newError(ErrMaterialization, err)
	}
	dbTypes, err := columnTypeNames(rows, len(cols))
	if err != nil {
		return nil, newError(ErrMaterialization, err)
	}
	slots, width := fieldSlots(cols)

	set := make(ResultSet, 0)
	values := make([]any, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, newError(ErrMaterialization, err)
		}
		fields := make([]Field, width)
		for i, col := range cols {
			v, err := convertColumn(values[i], dbTypes[i])
			if err != nil {
				return nil, newError(ErrMaterialization, fmt.Errorf("column %q: %w", col, err))
			}
			fields[slots[i]] = Field{Name: col, Value: v}
		}
		set = append(set, Record{fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrExecution, err)
	}
	return set, nil
}

func columnTypeNames(rows Cursor, n int) ([]string, error) {
	names := make([]string, n)
	if n == 0 {
		return names, nil
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n && i < len(types); i++ {
		names[i] = strings.ToUpper(types[i].DatabaseTypeName())
	}
	return names, nil
}

// fieldSlots maps each column index to its position in the row record.
// A repeated column name shares the slot of its first occurrence, so the
// last value read wins.
func fieldSlots(cols []string) ([]int, int) {
	slots := make([]int, len(cols))
	seen := make(map[string]int, len(cols))
	width := 0
	for i, col := range cols {
		if slot, ok := seen[col]; ok {
			slots[i] = slot
			continue
		}
		seen[col] = width
		slots[i] = width
		width++
	}
	return slots, width
}

func isDecimalType(dbType string) bool {
	switch dbType {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return true
	}
	return false
}

func isBinaryType(dbType string) bool {
	switch dbType {
	case "BINARY", "VARBINARY", "IMAGE", "TIMESTAMP", "ROWVERSION":
		return true
	}
	return false
}

func convertColumn(src any, dbType string) (Value, error) {
	switch v := src.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(int64(v)), nil
	case int:
		return Int(int64(v)), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case bool:
		return Bool(v), nil
	case string:
		if isDecimalType(dbType) {
			return parseDecimal(v)
		}
		return String(v), nil
	case []byte:
		switch {
		case isDecimalType(dbType):
			return parseDecimal(string(v))
		case dbType == "UNIQUEIDENTIFIER":
			var id mssql.UniqueIdentifier
			if err := id.Scan(v); err != nil {
				return Value{}, err
			}
			return String(id.String()), nil
		case isBinaryType(dbType):
			return Bytes(v), nil
		}
		return String(string(v)), nil
	case time.Time:
		switch dbType {
		case "DATETIMEOFFSET":
			return Time(v), nil
		case "TIME":
			// time of day only; the driver dates it 0001-01-01
			return String(v.Format(timeOfDayLayout)), nil
		}
		return LocalTime(v), nil
	case decimal.Decimal:
		return Decimal(v), nil
	}
	return Value{}, fmt.Errorf("unsupported driver type %T", src)
}

// timeOfDayLayout renders TIME with up to its 100ns precision.
const timeOfDayLayout = "15:04:05.9999999"

func parseDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Value{}, err
	}
	return Decimal(d), nil
}
