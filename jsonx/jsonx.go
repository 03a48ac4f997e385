// Package jsonx decodes JSON objects into ordered attrs.Attrs values so that
// key order survives a decode/encode round trip.
package jsonx

import (
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/zoobzio/ruco/attrs"
)

// ErrInvalidJSON is returned when the input is not a single valid JSON value.
var ErrInvalidJSON = errors.New("invalid json")

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Loads decodes s. Objects become *attrs.Attrs, arrays []any, integral
// numbers int64, other numbers float64, null nil.
func Loads[T ~string | ~[]byte](s T) (any, error) {
	// The input is decoded as the only element of an array, so a bare
	// scalar is terminated like any other value and trailing values show
	// up as extra elements.
	data := make([]byte, 0, len(s)+2)
	data = append(data, '[')
	data = append(data, []byte(s)...)
	data = append(data, ']')
	if !api.Valid(data) {
		return nil, ErrInvalidJSON
	}

	iter := api.BorrowIterator(data)
	defer api.ReturnIterator(iter)

	var values []any
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		values = append(values, readValue(it))
		return it.Error == nil
	})
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, iter.Error)
	}
	if iter.Error == nil {
		// Only the end of input may follow the array.
		iter.WhatIsNext()
		if !errors.Is(iter.Error, io.EOF) {
			return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
		}
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: expected one value, got %d", ErrInvalidJSON, len(values))
	}
	return values[0], nil
}

// Dumps encodes v. *attrs.Attrs values keep their key order.
func Dumps(v any) (string, error) {
	data, err := api.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readValue(iter *jsoniter.Iterator) any {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		obj := attrs.New()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			obj.Set(field, readValue(it))
			return it.Error == nil
		})
		return obj
	case jsoniter.ArrayValue:
		arr := make([]any, 0)
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr = append(arr, readValue(it))
			return it.Error == nil
		})
		return arr
	case jsoniter.StringValue:
		return iter.ReadString()
	case jsoniter.NumberValue:
		return number(iter.ReadNumber().String())
	case jsoniter.BoolValue:
		return iter.ReadBool()
	case jsoniter.NilValue:
		iter.ReadNil()
		return nil
	default:
		iter.ReportError("readValue", "unexpected token")
		return nil
	}
}

func number(raw string) any {
	if !strings.ContainsAny(raw, ".eE") {
		var i int64
		if err := api.UnmarshalFromString(raw, &i); err == nil {
			return i
		}
	}
	var f float64
	if err := api.UnmarshalFromString(raw, &f); err != nil {
		return raw
	}
	return f
}
