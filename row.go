package sqlite

/*
#include <sqlite3.h>
*/
import "C"

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Blob is a byte-sequence column value. Values read from a row are copied
// out of the engine's buffers and stay valid after the next step.
type Blob []byte

// Row is a read-only view over the statement's current cursor position.
// Column indexes are 0-based. A Row is only valid until the next Step,
// Reset or Finalize call on its statement; it must not be retained across
// them.
type Row struct {
	stmt *Stmt
}

// ColumnCount returns the number of columns in the row.
func (r *Row) ColumnCount() int {
	return r.stmt.ColumnCount()
}

// ColumnType returns the storage class of the 0-based column.
func (r *Row) ColumnType(i int) ColumnType {
	return ColumnType(C.sqlite3_column_type(r.stmt.stmt, C.int(i)))
}

// Int returns the column value as a 64-bit integer.
func (r *Row) Int(i int) int64 {
	return int64(C.sqlite3_column_int64(r.stmt.stmt, C.int(i)))
}

// Float returns the column value as a float64.
func (r *Row) Float(i int) float64 {
	return float64(C.sqlite3_column_double(r.stmt.stmt, C.int(i)))
}

// Bool returns the column value as a bool; any non-zero integer is true.
func (r *Row) Bool(i int) bool {
	return r.Int(i) != 0
}

// Text returns the column value as a string. A zero-length value yields an
// empty string, not a null.
func (r *Row) Text(i int) string {
	p := C.sqlite3_column_text(r.stmt.stmt, C.int(i))
	if p == nil {
		return ""
	}
	n := C.sqlite3_column_bytes(r.stmt.stmt, C.int(i))
	return C.GoStringN((*C.char)(unsafe.Pointer(p)), n)
}

// Blob returns the column value as a copied byte slice. A zero-length value
// yields an empty, non-nil slice.
func (r *Row) Blob(i int) []byte {
	p := C.sqlite3_column_blob(r.stmt.stmt, C.int(i))
	if p == nil {
		// The engine returns a nil pointer for both NULL and zero-length
		// blobs; the storage class tells them apart.
		return []byte{}
	}
	n := C.sqlite3_column_bytes(r.stmt.stmt, C.int(i))
	return C.GoBytes(unsafe.Pointer(p), n)
}

// NullableInt returns the column value, or nil when the column is NULL.
func (r *Row) NullableInt(i int) *int64 {
	if r.ColumnType(i) == TypeNull {
		return nil
	}
	v := r.Int(i)
	return &v
}

// NullableFloat returns the column value, or nil when the column is NULL.
func (r *Row) NullableFloat(i int) *float64 {
	if r.ColumnType(i) == TypeNull {
		return nil
	}
	v := r.Float(i)
	return &v
}

// NullableBool returns the column value, or nil when the column is NULL.
func (r *Row) NullableBool(i int) *bool {
	if r.ColumnType(i) == TypeNull {
		return nil
	}
	v := r.Bool(i)
	return &v
}

// NullableText returns the column value, or nil when the column is NULL.
func (r *Row) NullableText(i int) *string {
	if r.ColumnType(i) == TypeNull {
		return nil
	}
	v := r.Text(i)
	return &v
}

// NullableBlob returns the column value, or nil when the column is NULL.
func (r *Row) NullableBlob(i int) []byte {
	if r.ColumnType(i) == TypeNull {
		return nil
	}
	return r.Blob(i)
}

// Read decodes the current row into dest, which must be a pointer to a
// struct whose field count equals the row's column count. Fields are decoded
// positionally in declaration order with the inverse rules of BindValue;
// pointer fields decode to nil exactly when the column is NULL.
func (r *Row) Read(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return NewError(ErrorTypeDecode, fmt.Sprintf("cannot decode row into %T, want a pointer to a struct", dest))
	}
	sv := rv.Elem()
	if sv.NumField() != r.ColumnCount() {
		return NewError(ErrorTypeDecode, fmt.Sprintf(
			"%s has %d fields but the row has %d columns", sv.Type(), sv.NumField(), r.ColumnCount()))
	}
	for i := 0; i < sv.NumField(); i++ {
		field := sv.Type().Field(i)
		if !field.IsExported() {
			return NewError(ErrorTypeDecode, fmt.Sprintf("cannot decode into unexported field %s", field.Name))
		}
		if err := r.readColumn(i, sv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Row) readColumn(i int, fv reflect.Value) error {
	if fv.Kind() == reflect.Ptr {
		if r.ColumnType(i) == TypeNull {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		p := reflect.New(fv.Type().Elem())
		if err := r.readScalar(i, p.Elem()); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	}
	return r.readScalar(i, fv)
}

func (r *Row) readScalar(i int, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(r.Int(i))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := r.Int(i)
		if v < 0 {
			return NewError(ErrorTypeDecode, fmt.Sprintf("column %d holds negative value %d for unsigned field", i, v))
		}
		fv.SetUint(uint64(v))
	case reflect.Float32, reflect.Float64:
		fv.SetFloat(r.Float(i))
	case reflect.Bool:
		fv.SetBool(r.Bool(i))
	case reflect.String:
		fv.SetString(r.Text(i))
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			fv.SetBytes(r.Blob(i))
			return nil
		}
		return NewError(ErrorTypeDecode, fmt.Sprintf("cannot decode column %d into %s", i, fv.Type()))
	case reflect.Array:
		// The inverse of the fixed-size byte array bind: text of exactly
		// the array's length.
		if fv.Type().Elem().Kind() != reflect.Uint8 {
			return NewError(ErrorTypeDecode, fmt.Sprintf("cannot decode column %d into %s", i, fv.Type()))
		}
		text := r.Text(i)
		if len(text) != fv.Len() {
			return NewError(ErrorTypeDecode, fmt.Sprintf(
				"column %d holds %d bytes but field is %s", i, len(text), fv.Type()))
		}
		reflect.Copy(fv, reflect.ValueOf([]byte(text)))
	default:
		return NewError(ErrorTypeDecode, fmt.Sprintf("cannot decode column %d into %s", i, fv.Type()))
	}
	return nil
}
