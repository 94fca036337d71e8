package scene

import(
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/abworrall/slicestack/pkg/emath"
	"github.com/abworrall/slicestack/pkg/palette"
	"github.com/abworrall/slicestack/pkg/raster"
	"github.com/abworrall/slicestack/pkg/texcache"
)

// BinTransparent is the back-to-front sorted render bin.
const BinTransparent = "transparent"

// A Node is a transform in the engine's scene graph.
type Node interface {
	Name() string
	Pos() r3.Vec
	SetPos(p r3.Vec)
	SetScale(s float64)
	Show()
	Hide()
	IsHidden() bool
}

// A Card is a textured rectangle in the XZ plane of its layer node.
type Card struct {
	Name       string
	Left       float64
	Right      float64
	Bottom     float64
	Top        float64
	Roll       float64  // degrees about the stacking (Y) axis
	Offset     r3.Vec

	Texture    texcache.Handle
	Tint       palette.Tint
	AlphaScale float64
	TwoSided   bool
	Blend      bool     // alpha transparency
	DepthWrite bool
	Bin        string
}

// Graph is the part of the 3D engine the builder drives. All of it must
// be called from the thread that owns the graphics context.
type Graph interface {
	// NewRoot removes any previous root, and everything under it.
	NewRoot(name string) Node
	AttachNode(parent Node, name string) Node
	AttachCard(parent Node, c Card) Node
	RemoveChildren(n Node)

	UploadTexture(t raster.Texture) texcache.Handle

	// Bounds is the box around everything below n, in n's own coords.
	Bounds(n Node) emath.Box
}
