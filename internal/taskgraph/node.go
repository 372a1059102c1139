// Package taskgraph describes task execution order as data.
//
// A graph is a tree of leaves (tasks), parallel groups and series chains. Building a
// graph runs nothing; an Executor walks it. Keeping the two apart lets ordering be
// tested without any I/O and lets the same graph be rendered for humans.
package taskgraph

import "context"

// Kind distinguishes graph nodes.
type Kind int

const (
	KindLeaf Kind = iota
	KindParallel
	KindSeries
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "task"
	case KindParallel:
		return "parallel"
	case KindSeries:
		return "series"
	default:
		return "unknown"
	}
}

// Func is the body of a leaf task.
type Func func(ctx context.Context) error

// Node is one vertex of a task graph.
type Node struct {
	Name     string
	Kind     Kind
	Fn       Func
	Children []*Node
}

// Leaf wraps fn as a named task.
func Leaf(name string, fn Func) *Node {
	return &Node{Name: name, Kind: KindLeaf, Fn: fn}
}

// Parallel groups nodes that run concurrently. The group fails if any member fails,
// after every member has finished.
func Parallel(name string, nodes ...*Node) *Node {
	return &Node{Name: name, Kind: KindParallel, Children: nodes}
}

// Series chains nodes that run one after another. The first failure skips the rest.
func Series(name string, nodes ...*Node) *Node {
	return &Node{Name: name, Kind: KindSeries, Children: nodes}
}

// Leaves lists leaf names depth first.
func (n *Node) Leaves() []string {
	var out []string
	n.walk(func(c *Node) {
		if c.Kind == KindLeaf {
			out = append(out, c.Name)
		}
	})
	return out
}

// Find returns the first node named name, depth first.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.walk(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}
