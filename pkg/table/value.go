package table

import (
	"fmt"
	"strconv"
	"time"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

const (
	DateLayout      = "20060102"
	TimestampLayout = "20060102150405"
)

// Value is a single typed cell, the zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	time time.Time
}

func Null() Value {
	return Value{}
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, flt: f}
}

// Date keeps only the calendar day of t, in t's location.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, time: t}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Int() (int64, bool) {
	return v.num, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	return v.flt, v.kind == KindFloat
}

func (v Value) Time() (time.Time, bool) {
	return v.time, v.kind == KindDate || v.kind == KindTimestamp
}

// Text is the canonical textual form of the value, dates are YYYYMMDD and
// timestamps YYYYMMDDHHMMSS in the value's own location. Null is "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'f', -1, 64)
	case KindDate:
		return v.time.Format(DateLayout)
	case KindTimestamp:
		return v.time.Format(TimestampLayout)
	}
	return ""
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Equal compares kind and canonical text.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.Text() == other.Text()
}

// key is used to hash rows, it differentiates kinds so that
// String("1") and Int(1) never collide.
func (v Value) key() string {
	return strconv.Itoa(int(v.kind)) + ":" + v.Text()
}
