// Package locator finds shapes by identity in nested shape trees.
package locator

import (
	"fmt"

	"pptx-translator/internal/types"
)

// Node is a shape that may contain other shapes. Both the live document
// shapes and content tree records implement it.
type Node[T any] interface {
	ShapeID() int
	Children() []T
}

// Find searches roots depth-first for id. Group members are searched
// before the next sibling. The stack is explicit, so nesting depth is
// bounded only by memory.
func Find[T Node[T]](roots []T, id int) (T, bool) {
	stack := make([]T, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ShapeID() == id {
			return n, true
		}
		kids := n.Children()
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	var zero T
	return zero, false
}

// Count returns the number of shapes in the tree, group members included.
func Count[T Node[T]](roots []T) int {
	n := 0
	stack := append([]T(nil), roots...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, top.Children()...)
	}
	return n
}

// Locator hands out each identity of one shape tree at most once.
type Locator[T Node[T]] struct {
	scope   string
	roots   []T
	claimed map[int]bool
}

// New creates a locator over roots. scope names the container in errors,
// e.g. "slide[3]".
func New[T Node[T]](scope string, roots []T) *Locator[T] {
	return &Locator[T]{scope: scope, roots: roots, claimed: make(map[int]bool)}
}

// Claim returns the shape with id. It fails with IDENTITY_NOT_FOUND when
// no such shape exists and with STRUCTURAL_MISMATCH when the identity was
// already handed out.
func (l *Locator[T]) Claim(id int) (T, error) {
	var zero T
	if l.claimed[id] {
		return zero, types.NewAppErrorWithDetails(types.ErrStructuralMismatch, "shape identity already claimed",
			fmt.Sprintf("%s/shape[%d]", l.scope, id), nil)
	}
	n, ok := Find(l.roots, id)
	if !ok {
		return zero, types.NewAppErrorWithDetails(types.ErrIdentityNotFound, "shape identity not found",
			fmt.Sprintf("%s/shape[%d]", l.scope, id), nil)
	}
	l.claimed[id] = true
	return n, nil
}

// Claimed reports whether id was handed out.
func (l *Locator[T]) Claimed(id int) bool {
	return l.claimed[id]
}
