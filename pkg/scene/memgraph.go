package scene

import(
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/abworrall/slicestack/pkg/emath"
	"github.com/abworrall/slicestack/pkg/raster"
	"github.com/abworrall/slicestack/pkg/texcache"
)

// MemGraph is a Graph that just keeps the nodes in memory. It is what the
// command line tool and the tests build into.
type MemGraph struct {
	root    *MemNode
	Uploads int
}

type MemNode struct {
	name     string
	parent   *MemNode
	children []*MemNode
	pos      r3.Vec
	scale    float64
	hidden   bool
	Card     *Card
}

func NewMemGraph() *MemGraph { return &MemGraph{} }

func (n *MemNode)Name() string         { return n.name }
func (n *MemNode)Pos() r3.Vec          { return n.pos }
func (n *MemNode)SetPos(p r3.Vec)      { n.pos = p }
func (n *MemNode)Scale() float64       { return n.scale }
func (n *MemNode)SetScale(s float64)   { n.scale = s }
func (n *MemNode)Show()                { n.hidden = false }
func (n *MemNode)Hide()                { n.hidden = true }
func (n *MemNode)IsHidden() bool       { return n.hidden }
func (n *MemNode)Children() []*MemNode { return n.children }

func (n *MemNode)String() string {
	return fmt.Sprintf("%s[%d children, pos (%.3f,%.3f,%.3f), scale %.3f, hidden=%v]",
		n.name, len(n.children), n.pos.X, n.pos.Y, n.pos.Z, n.scale, n.hidden)
}

// Find returns the first child with the given name, or nil.
func (n *MemNode)Find(name string) *MemNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (g *MemGraph)Root() *MemNode { return g.root }

func (g *MemGraph)NewRoot(name string) Node {
	g.root = &MemNode{name: name, scale: 1}
	return g.root
}

func (g *MemGraph)AttachNode(parent Node, name string) Node {
	p := parent.(*MemNode)
	n := &MemNode{name: name, parent: p, scale: 1}
	p.children = append(p.children, n)
	return n
}

func (g *MemGraph)AttachCard(parent Node, c Card) Node {
	n := g.AttachNode(parent, c.Name).(*MemNode)
	n.pos = c.Offset
	n.Card = &c
	return n
}

func (g *MemGraph)RemoveChildren(n Node) {
	n.(*MemNode).children = nil
}

func (g *MemGraph)UploadTexture(t raster.Texture) texcache.Handle {
	g.Uploads++
	return t
}

func (g *MemGraph)Bounds(n Node) emath.Box {
	box := emath.Box{}
	for _, c := range n.(*MemNode).children {
		box = box.Union(c.boundsInParent())
	}
	return box
}

// boundsInParent is the box around n and its subtree, after n's own transform.
func (n *MemNode)boundsInParent() emath.Box {
	local := emath.Box{}
	if n.Card != nil {
		for _, corner := range n.Card.corners() {
			local = local.Grow(corner)
		}
	}
	for _, c := range n.children {
		local = local.Union(c.boundsInParent())
	}
	if local.Empty() {
		return local
	}

	box := emath.Box{}
	for _, p := range []r3.Vec{local.Min, local.Max} {
		box = box.Grow(r3.Add(n.pos, r3.Scale(n.scale, p)))
	}
	return box
}

// corners are the card's frame corners after the roll, in the card node's
// own coords.
func (c Card)corners() []r3.Vec {
	roll := emath.Identity().Rotate(c.Roll)
	ret := []r3.Vec{}
	for _, x := range []float64{c.Left, c.Right} {
		for _, z := range []float64{c.Bottom, c.Top} {
			rx, rz := roll.Apply(x, z)
			ret = append(ret, r3.Vec{X: rx, Z: rz})
		}
	}
	return ret
}
