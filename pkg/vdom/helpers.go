package vdom

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *Element) *Element {
	if condition {
		return node
	}
	return nil
}

// IfElse returns the first node if condition is true, the second otherwise.
func IfElse(condition bool, ifTrue, ifFalse *Element) *Element {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// When is like If but with lazy evaluation.
// The function is only called if condition is true.
func When(condition bool, fn func() *Element) *Element {
	if condition {
		return fn()
	}
	return nil
}

// Unless is the inverse of If.
func Unless(condition bool, node *Element) *Element {
	if !condition {
		return node
	}
	return nil
}

// Range maps a slice to elements, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) *Element) []*Element {
	result := make([]*Element, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// Repeat creates n elements using the given function.
func Repeat(n int, fn func(i int) *Element) []*Element {
	if n <= 0 {
		return nil
	}
	result := make([]*Element, 0, n)
	for i := 0; i < n; i++ {
		if node := fn(i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// Count returns the number of elements in the tree rooted at e,
// not counting what component render functions would produce.
func Count(e *Element) int {
	if e == nil {
		return 0
	}
	n := 1
	for _, c := range e.Children {
		n += Count(c)
	}
	return n
}
