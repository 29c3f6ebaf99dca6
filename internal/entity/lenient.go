package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The types below decode vendor fields without ever failing. A value of the
// wrong JSON type leaves the field unset, so one odd field costs that field
// and not the record or the response around it.

// FlexString accepts a string, number or bool. Objects, arrays and null
// leave it empty.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if json.Unmarshal(b, &v) == nil {
			*s = FlexString(strings.TrimSpace(v))
		}
	case 't', 'f':
		if v, err := strconv.ParseBool(string(b)); err == nil {
			*s = FlexString(strconv.FormatBool(v))
		}
	case '{', '[', 'n':
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err == nil {
			*s = FlexString(b)
		}
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexList accepts an array of scalars or a single delimited string such as
// "American, BBQ". Non-scalar elements are dropped.
type FlexList []string

func (l *FlexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	if b[0] != '[' {
		var s FlexString
		_ = s.UnmarshalJSON(b)
		*l = SplitList(string(s))
		return nil
	}
	var items []FlexString
	if json.Unmarshal(b, &items) != nil {
		return nil
	}
	var out []string
	for _, it := range items {
		if it != "" {
			out = append(out, string(it))
		}
	}
	*l = out
	return nil
}

// FlexFloat accepts a JSON number or numeric string.
type FlexFloat struct{ Val *float64 }

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	if v, err := strconv.ParseFloat(strings.Trim(string(bytes.TrimSpace(b)), `"`), 64); err == nil {
		f.Val = &v
	}
	return nil
}

// FlexBool accepts true/false or loose strings like "yes".
type FlexBool struct{ Val *bool }

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	f.Val = ParseBool(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	return nil
}

// True reports whether the flag is present and set.
func (f FlexBool) True() bool { return f.Val != nil && *f.Val }

// Lenient wraps a nested value. When it cannot be decoded as T, OK stays
// false and Val is the zero value.
type Lenient[T any] struct {
	Val T
	OK  bool
}

func (l *Lenient[T]) UnmarshalJSON(b []byte) error {
	var v T
	if json.Unmarshal(b, &v) == nil {
		l.Val, l.OK = v, true
	}
	return nil
}
