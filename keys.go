package expiringcache

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
)

// KeyEncoder maps a key to the string used as its primary index. It must
// return equal strings exactly for keys that are ==.
type KeyEncoder[K comparable] func(K) string

// nanSeq numbers NaN keys. NaN != NaN, so every NaN gets an index of its own
// and can never be found again, as with a Go map.
var nanSeq atomic.Uint64

// EncodeKey is the default KeyEncoder. Two keys encode equally exactly when
// they are ==: pointers and channels encode by address, interface values by
// dynamic type and value, structs and arrays element by element, and -0
// equals +0.
//
// Like ==, EncodeKey panics if an interface inside the key holds an
// uncomparable value such as a slice or map.
func EncodeKey[K comparable](key K) string {
	switch k := any(key).(type) {
	case string:
		return "string:" + k
	case int:
		return "int:" + strconv.Itoa(k)
	case int64:
		return "int64:" + strconv.FormatInt(k, 10)
	case uint64:
		return "uint64:" + strconv.FormatUint(k, 10)
	case bool:
		return "bool:" + strconv.FormatBool(k)
	}

	var b strings.Builder
	encodeValue(&b, reflect.ValueOf(any(key)), true)
	return b.String()
}

func encodeValue(b *strings.Builder, v reflect.Value, tagged bool) {
	if !v.IsValid() {
		b.WriteString("nil")
		return
	}
	if tagged {
		writeType(b, v.Type())
		b.WriteByte(':')
	}

	switch v.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		writeFloat(b, v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		writeFloat(b, real(c))
		b.WriteByte('+')
		writeFloat(b, imag(c))
		b.WriteByte('i')
	case reflect.String:
		s := v.String()
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte('"')
		b.WriteString(s)
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		b.WriteString("0x")
		b.WriteString(strconv.FormatUint(uint64(v.Pointer()), 16))
	case reflect.Interface:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		b.WriteByte('(')
		encodeValue(b, v.Elem(), true)
		b.WriteByte(')')
	case reflect.Struct:
		t := v.Type()
		b.WriteByte('{')
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).Name == "_" {
				continue
			}
			encodeValue(b, v.Field(i), false)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	case reflect.Array:
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			encodeValue(b, v.Index(i), false)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	default:
		panic(fmt.Sprintf("expiringcache: key contains uncomparable type %s", v.Type()))
	}
}

// writeType writes a type name that also separates same-named types declared
// in different packages.
func writeType(b *strings.Builder, t reflect.Type) {
	if pkg := t.PkgPath(); pkg != "" {
		b.WriteString(pkg)
		b.WriteByte('#')
	}
	b.WriteString(t.String())
}

func writeFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN#")
		b.WriteString(strconv.FormatUint(nanSeq.Add(1), 10))
	case f == 0:
		b.WriteByte('0')
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}
