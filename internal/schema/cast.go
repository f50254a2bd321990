package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func coerce(name string, kind Kind, raw any) (Value, error) {
	var (
		v   Value
		err error
	)
	switch kind {
	case KindInt:
		v, err = toInt(raw)
	case KindFloat:
		v, err = toFloat(raw)
	case KindString:
		v, err = toString(raw)
	case KindBool:
		v, err = toBool(raw)
	case KindStringList:
		v, err = toStringList(raw)
	default:
		err = fmt.Errorf("kind %s is not castable", kind)
	}
	if err != nil {
		return Value{}, newSchemaError(ErrTypeMismatch, name, "want "+kind.String(), err)
	}
	return v, nil
}

// Coerce converts raw into a value of kind. Name is used for error context.
func Coerce(name string, kind Kind, raw any) (Value, error) {
	return coerce(name, kind, raw)
}

// Infer picks the natural kind of a plain Go value.
func Infer(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		if x.IsZero() {
			return Value{}, fmt.Errorf("unset value")
		}
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(norm.NFC.String(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case []string, []any:
		return toStringList(x)
	}
	if i, ok := integer(raw); ok {
		return Int(i), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

func integer(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	}
	return 0, false
}

func toInt(raw any) (Value, error) {
	if i, ok := integer(raw); ok {
		return Int(i), nil
	}
	switch x := raw.(type) {
	case Value:
		return toInt(x.Interface())
	case float32:
		return toInt(float64(x))
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return Value{}, fmt.Errorf("%v is not integral", x)
		}
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return Value{}, fmt.Errorf("%v overflows int64", x)
		}
		return Int(int64(x)), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	}
	return Value{}, fmt.Errorf("cannot use %T as int", raw)
}

func toFloat(raw any) (Value, error) {
	if i, ok := integer(raw); ok {
		return Float(float64(i)), nil
	}
	switch x := raw.(type) {
	case Value:
		return toFloat(x.Interface())
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	return Value{}, fmt.Errorf("cannot use %T as float", raw)
}

func toString(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		if x.Kind() == KindStringList || x.IsZero() {
			return Value{}, fmt.Errorf("cannot use %s as str", x.Kind())
		}
		return String(norm.NFC.String(x.String())), nil
	case string:
		return String(norm.NFC.String(x)), nil
	case bool:
		return String(strconv.FormatBool(x)), nil
	case float32:
		return String(strconv.FormatFloat(float64(x), 'g', -1, 32)), nil
	case float64:
		return String(strconv.FormatFloat(x, 'g', -1, 64)), nil
	}
	if i, ok := integer(raw); ok {
		return String(strconv.FormatInt(i, 10)), nil
	}
	return Value{}, fmt.Errorf("cannot use %T as str", raw)
}

func toBool(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		return toBool(x.Interface())
	case bool:
		return Bool(x), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "t", "1":
			return Bool(true), nil
		case "false", "f", "0":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("%q is not a boolean", x)
	}
	if i, ok := integer(raw); ok {
		switch i {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		}
		return Value{}, fmt.Errorf("%d is not a boolean", i)
	}
	return Value{}, fmt.Errorf("cannot use %T as bool", raw)
}

func toStringList(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		if list, ok := x.AsStringList(); ok {
			return StringList(list...), nil
		}
		return toStringList(x.Interface())
	case []string:
		items := make([]string, len(x))
		for i, s := range x {
			items[i] = norm.NFC.String(s)
		}
		return StringList(items...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, elem := range x {
			if _, nested := elem.([]any); nested {
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
			s, err := toString(elem)
			if err != nil {
				return Value{}, err
			}
			items = append(items, s.s)
		}
		return StringList(items...), nil
	case string:
		return StringList(splitList(norm.NFC.String(x))...), nil
	}
	return Value{}, fmt.Errorf("cannot use %T as list", raw)
}

// splitList splits on commas and whitespace, dropping empty fields and an
// optional enclosing pair of brackets.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if fields == nil {
		return []string{}
	}
	return fields
}
