package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueText
	valueNumber
	valueList
)

// Value is a response payload: a text, a number, or a list of labels.
// The zero Value is absent.
type Value struct {
	kind valueKind
	text string
	num  float64
	list []string
}

func TextValue(s string) Value { return Value{kind: valueText, text: s} }
func NumberValue(n float64) Value { return Value{kind: valueNumber, num: n} }
func ListValue(items ...string) Value {
	return Value{kind: valueList, list: append([]string{}, items...)}
}

// IsEmpty reports an absent value, the empty string, or an empty list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case valueText:
		return v.text == ""
	case valueNumber:
		return false
	case valueList:
		return len(v.list) == 0
	default:
		return true
	}
}

// IsBlank is IsEmpty that also treats whitespace-only text as empty.
func (v Value) IsBlank() bool {
	if v.kind == valueText {
		return strings.TrimSpace(v.text) == ""
	}
	return v.IsEmpty()
}

// IsList reports whether the value was sent as a list of labels.
func (v Value) IsList() bool { return v.kind == valueList }

// Number coerces the value to a float64. Lists and unparseable text do not
// coerce.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case valueNumber:
		return v.num, true
	case valueText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Labels returns the selected labels: every list item, or the single
// text/number form.
func (v Value) Labels() []string {
	switch v.kind {
	case valueList:
		return append([]string(nil), v.list...)
	case valueText, valueNumber:
		return []string{v.String()}
	default:
		return nil
	}
}

// String renders the value for CSV cells and text listings.
func (v Value) String() string {
	switch v.kind {
	case valueText:
		return v.text
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueList:
		return strings.Join(v.list, "; ")
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueText:
		return json.Marshal(v.text)
	case valueNumber:
		return json.Marshal(v.num)
	case valueList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

var errUnsupportedValue = errors.New("response value must be a string, number, list of strings or null")

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var item Value
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			if item.kind == valueList {
				return errUnsupportedValue
			}
			if item.kind != valueAbsent {
				items = append(items, item.String())
			}
		}
		*v = Value{kind: valueList, list: items}
	case 't', 'f', '{':
		return errUnsupportedValue
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*v = NumberValue(f)
	}
	return nil
}
