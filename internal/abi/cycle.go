package abi

import (
	"strings"

	"github.com/abramin/abilens/internal/cairo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// checkForCycles fails if any composite type can reach itself. Every
// reference counts, including ones behind Array, Option, NonZero or a tuple.
// A node reached twice through different branches is fine; only a node that
// is still open on the current path closes a cycle.
func checkForCycles(types *orderedmap.OrderedMap[string, cairo.Named]) error {
	c := &cycleChecker{
		open: make(map[cairo.Named]bool),
		done: make(map[cairo.Named]bool),
	}
	for pair := types.Oldest(); pair != nil; pair = pair.Next() {
		if err := c.visitNamed(pair.Value); err != nil {
			return err
		}
	}
	return nil
}

type cycleChecker struct {
	open map[cairo.Named]bool
	done map[cairo.Named]bool
	path []string
}

func (c *cycleChecker) visitNamed(n cairo.Named) error {
	if c.done[n] {
		return nil
	}
	if c.open[n] {
		return c.cycleError(n.TypeName())
	}
	c.open[n] = true
	c.path = append(c.path, n.TypeName())

	for _, child := range cairo.Children(n) {
		if err := c.visit(child); err != nil {
			return err
		}
	}

	c.path = c.path[:len(c.path)-1]
	delete(c.open, n)
	c.done[n] = true
	return nil
}

func (c *cycleChecker) visit(t cairo.Type) error {
	if n, ok := t.(cairo.Named); ok {
		return c.visitNamed(n)
	}
	for _, child := range cairo.Children(t) {
		if err := c.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *cycleChecker) cycleError(name string) error {
	start := 0
	for i, p := range c.path {
		if p == name {
			start = i
			break
		}
	}
	cause := &CycleError{Path: append(append([]string{}, c.path[start:]...), name)}
	return newError(KindCyclicType, cause, "Circular reference detected: %s.", strings.Join(cause.Path, " -> "))
}

// CycleError is the structural cause of a cyclic type error. Path starts and
// ends with the same type name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular reference: " + strings.Join(e.Path, " -> ")
}
