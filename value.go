package sqlitedb

import (
	"fmt"
	"time"
)

// ValueKind identifies one of the five SQLite storage classes.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindText
	KindBlob
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged union over the closed SQLite value set
// {null, int64, float64, text, blob}. The zero Value is NULL.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Int64 returns an integer value.
func Int64(v int64) Value { return Value{kind: KindInt, i: v} }

// Int returns an integer value from a plain int.
func Int(v int) Value { return Int64(int64(v)) }

// Float returns a real value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a binary value. The slice is not copied.
func Blob(v []byte) Value { return Value{kind: KindBlob, b: v} }

// Kind reports the value's storage class.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the integer content, or 0 for any other kind.
func (v Value) Int64() int64 { return v.i }

// Float returns the real content, or 0 for any other kind.
func (v Value) Float() float64 { return v.f }

// Text returns the text content, or "" for any other kind.
func (v Value) Text() string { return v.s }

// Blob returns the binary content, or nil for any other kind.
func (v Value) Blob() []byte { return v.b }

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return v.s
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.b))
	default:
		return "invalid"
	}
}

// driverArg converts the value for the database/sql boundary. The switch
// is exhaustive over ValueKind.
func (v Value) driverArg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBlob:
		return v.b
	default:
		return nil
	}
}

// valueOf converts a scanned driver value into a Value.
func valueOf(src any) Value {
	switch v := src.(type) {
	case nil:
		return Null()
	case int64:
		return Int64(v)
	case float64:
		return Float(v)
	case string:
		return Text(v)
	case []byte:
		// The driver reuses scan buffers, so copy.
		b := make([]byte, len(v))
		copy(b, v)
		return Blob(b)
	case bool:
		if v {
			return Int64(1)
		}
		return Int64(0)
	case time.Time:
		// Columns declared with a date/time affinity come back as
		// time.Time from the driver.
		return Text(v.Format(time.RFC3339Nano))
	default:
		return Text(fmt.Sprint(v))
	}
}
