package common

// Path is the chain of ancestors of a node: the node is the child at
// SiblingPosition of Parent, and Others continues with the parent's path.
type Path struct {
	SiblingPosition int // Position among siblings
	Parent          *Node
	Others          *Path
}

func (p *Path) Node() *Node {
	return p.Parent.Children[p.SiblingPosition]
}

// Depth is the number of ancestors on the path.
func (p *Path) Depth() int {
	depth := 0
	for q := p; q != nil; q = q.Others {
		depth++
	}
	return depth
}

// Ancestors returns the ancestors nearest first.
func (p *Path) Ancestors() []*Node {
	var result []*Node
	for q := p; q != nil; q = q.Others {
		result = append(result, q.Parent)
	}
	return result
}
