package vdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// IsEvent reports whether an attribute name binds a listener.
func IsEvent(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on")
}

// EventType returns the lower-cased event type of a listener attribute
// ("onClick" → "click").
func EventType(name string) string {
	return strings.ToLower(name[2:])
}

// IsProperty reports whether an attribute name is applied as a host property.
func IsProperty(name string) bool {
	return name != ChildrenAttr && !IsEvent(name)
}

// SameValue compares two attribute values for the update diff.
// Listeners compare by identity; functions never compare equal.
func SameValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case *Listener:
		bv, ok := b.(*Listener)
		return ok && av == bv
	case nil:
		return b == nil
	}
	if reflect.TypeOf(a).Kind() == reflect.Func {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// FormatValue converts an attribute value to its string form.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
