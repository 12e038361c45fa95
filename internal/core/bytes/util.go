package bytes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// BytesFromStruct serializes the fields of a struct to a little-endian byte slice in the
// order in which the fields are declared and returns the total number of bytes written.
// Nested structs are flattened. Slices are written as-is with no length prefix, so a
// variable-length field only makes sense as the last one.
//
// Panics if data is not a struct or pointer to struct, or if a field cannot be encoded.
func BytesFromStruct(data interface{}) ([]byte, int) {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		panic("BytesFromStruct(): data must of type struct " +
			"or ptr to struct, got: " + val.Kind().String())
	}

	buf := new(bytes.Buffer)
	writeStruct(buf, val)
	return buf.Bytes(), buf.Len()
}

func writeStruct(buf *bytes.Buffer, val reflect.Value) {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		switch field.Kind() {
		case reflect.Struct:
			writeStruct(buf, field)
		case reflect.Ptr:
			writeStruct(buf, field.Elem())
		default:
			if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
				panic(err.Error())
			}
		}
	}
}

// StructFromBytes populates the struct pointed to by targetStruct by reading data in
// declaration order. A trailing []byte field receives whatever is left of data. An error
// is returned if data is too short to fill the fixed-size fields.
//
// Panics if targetStruct is not a pointer to a struct.
func StructFromBytes(data []byte, targetStruct interface{}) error {
	targetVal := reflect.ValueOf(targetStruct)
	if targetVal.Kind() != reflect.Ptr || targetVal.Elem().Kind() != reflect.Struct {
		panic("StructFromBytes(): targetStruct must be a " +
			"ptr to struct, got: " + targetVal.Kind().String())
	}

	reader := bytes.NewReader(data)
	if err := readStruct(reader, targetVal.Elem()); err != nil {
		return err
	}
	return nil
}

func readStruct(reader *bytes.Reader, val reflect.Value) error {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		switch {
		case field.Kind() == reflect.Struct:
			if err := readStruct(reader, field); err != nil {
				return err
			}
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
			rest := make([]byte, reader.Len())
			_, _ = reader.Read(rest)
			field.SetBytes(rest)
		default:
			if err := binary.Read(reader, binary.LittleEndian, field.Addr().Interface()); err != nil {
				return fmt.Errorf("reading field %s: %w", val.Type().Field(i).Name, err)
			}
		}
	}
	return nil
}
