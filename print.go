package btr

import (
	"fmt"

	tp "github.com/xlab/treeprint"
)

// TreePrint renders a compiled spec as a static tree, as littlealbert's
// print.go does for its Node hierarchy.
func TreePrint(spec *NodeSpec) string {
	tree := tp.New()
	printSpec(spec, tree)
	return tree.String()
}

func printSpec(spec *NodeSpec, tree tp.Tree) {
	label := nodeLabel(spec)
	if len(spec.Children) == 0 {
		tree.AddNode(label)
		return
	}
	branch := tree.AddBranch(label)
	for _, child := range spec.Children {
		printSpec(child, branch)
	}
}

// TreePrintLive renders a spawned tree's current state, pairing each
// node's label with its live Status so a running tree can be inspected the
// way littlealbert's TreePrint inspects a static one.
func TreePrintLive(h *TreeHandle) string {
	tree := tp.New()
	printLive(h.root, tree)
	return tree.String()
}

func printLive(w *worker, tree tp.Tree) {
	label := fmt.Sprintf("%s [%s]", nodeLabel(w.spec), w.StatusNow())
	if len(w.children) == 0 {
		tree.AddNode(label)
		return
	}
	branch := tree.AddBranch(label)
	for _, c := range w.children {
		printLive(c, branch)
	}
}

func nodeLabel(spec *NodeSpec) string {
	label := spec.Kind.String()
	if spec.Kind == Action {
		label = fmt.Sprintf("%s(%s)", label, spec.ActionRef)
	}
	if spec.Name != "" {
		label = fmt.Sprintf("%s: %s", label, spec.Name)
	} else {
		label = fmt.Sprintf("%s <%s>", label, spec.ID)
	}
	return label
}
