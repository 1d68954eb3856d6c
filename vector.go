package ponder

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Vector is a pgvector embedding. The pgvector text form "[0.1,0.2,0.3]"
// is also a JSON array of numbers, so both directions go through
// encoding/json.
type Vector []float32

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	var data []byte
	switch val := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}

	var elems []float32
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("invalid vector %q: %w", data, err)
	}
	if len(elems) == 0 {
		elems = nil
	}
	*v = elems
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, fmt.Errorf("invalid vector: %w", err)
	}
	return string(b), nil
}

// JSONValue stores a working-memory Value in a jsonb column.
type JSONValue struct {
	Data Value
}

// Scan implements sql.Scanner.
func (j *JSONValue) Scan(src any) error {
	var data []byte
	switch val := src.(type) {
	case nil:
		j.Data = Text("")
		return nil
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		return fmt.Errorf("cannot scan %T into JSONValue", src)
	}
	return json.Unmarshal(data, &j.Data)
}

// Value implements driver.Valuer.
func (j JSONValue) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
