package scene

import(
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/abworrall/slicestack/pkg/palette"
	"github.com/abworrall/slicestack/pkg/stack"
	"github.com/abworrall/slicestack/pkg/texcache"
	"github.com/abworrall/slicestack/pkg/workpool"
)

// Params control the layout of the stack.
type Params struct {
	BatchSize        int     `yaml:"batch_size"`          // layers prepared per worker job
	Epsilon          float64 `yaml:"epsilon"`             // offset between cards of one layer
	RealProportion   float64 `yaml:"real_proportion"`     // layer pitch / pixel pitch
	ImageScaleFactor float64 `yaml:"image_scale_factor"`
}

func DefaultParams() Params {
	return Params{
		BatchSize:        10,
		Epsilon:          1e-5,
		RealProportion:   10.0 / 7.6,
		ImageScaleFactor: 0.00075,
	}
}

type layerNode struct {
	rec   stack.Record
	node  Node
	cards []cardNode
	stale bool   // textures predate the current filter
}

type cardNode struct {
	node Node
	tex  stack.Texture
}

// Builder turns layer records into scene nodes, a batch at a time. The
// CPU side of each batch (cache lookups, rasterizing) runs on the pool; the
// nodes and textures are created in Tick, which the owner calls once per
// frame from the graphics thread. Nothing in Builder blocks.
type Builder struct {
	Params
	Verbosity int

	graph    Graph
	pool     *workpool.Pool
	cache    *texcache.Cache
	colors   palette.Assigner
	reporter stack.Reporter

	filter   RenderFilterState
	table    palette.Table
	records  []stack.Record
	root     Node
	layers   []*layerNode
	top      *int
	bottom   *int

	generation     int
	batch          *workpool.Future[batchResult]
	building       bool
	restyle        *workpool.Future[batchResult]
	restylePending bool
}

func NewBuilder(g Graph, pool *workpool.Pool, cache *texcache.Cache, colors palette.Assigner, r stack.Reporter, p Params) *Builder {
	if r == nil {
		r = stack.Discard{}
	}
	if p.BatchSize < 1 {
		p.BatchSize = DefaultParams().BatchSize
	}
	return &Builder{
		Params:   p,
		graph:    g,
		pool:     pool,
		cache:    cache,
		colors:   colors,
		reporter: r,
		filter:   DefaultFilter(),
	}
}

func (b *Builder)String() string {
	state := "idle"
	if b.building { state = "building" }
	if b.restyle != nil { state = "restyling" }
	return fmt.Sprintf("Builder[%d/%d layers, %s, %s]", len(b.layers), len(b.records), state, b.filter)
}

func (b *Builder)Busy() bool              { return b.building || b.restyle != nil }
func (b *Builder)Root() Node              { return b.root }
func (b *Builder)Table() palette.Table    { return b.table }
func (b *Builder)Filter() RenderFilterState { return b.filter }
func (b *Builder)NumLayers() int          { return len(b.layers) }

// {{{ b.Start

// Start throws away the current scene and begins building records under
// a fresh root. Any batch still in flight from a previous Start is ignored
// when it completes.
func (b *Builder)Start(records []stack.Record, filter RenderFilterState) {
	b.generation++
	b.records = records
	b.filter = filter
	b.table = b.colors.Assign(stack.ExposureTimes(records), filter.Opacity)
	b.cache.Clear()

	b.root = b.graph.NewRoot("root")
	b.layers = nil
	b.restyle = nil
	b.restylePending = false
	b.building = true

	b.reporter.Status(fmt.Sprintf("Building %d layers", len(records)))
	b.submitBatch(0)
}
// }}}

func (b *Builder)submitBatch(start int) {
	end := start + b.BatchSize
	if end > len(b.records) {
		end = len(b.records)
	}
	job := batchJob{
		gen:     b.generation,
		start:   start,
		end:     end,
		records: b.records,
		filter:  b.filter,
		cache:   b.cache,
	}
	b.batch = workpool.Submit(b.pool, job.run)
}

// {{{ b.Tick

// Tick applies whatever background work has finished. It returns true
// while there is still work outstanding.
func (b *Builder)Tick() bool {
	if b.batch != nil && b.batch.Done() {
		res, err := b.batch.Result()
		b.batch = nil
		if err != nil {
			b.building = false
			b.reporter.Status(fmt.Sprintf("Scene build failed: %v", err))
		} else if res.gen == b.generation {
			b.applyBatch(res)
		}
	}

	if b.restyle != nil && b.restyle.Done() {
		res, err := b.restyle.Result()
		b.restyle = nil
		if err != nil {
			b.reporter.Status(fmt.Sprintf("Re-render failed: %v", err))
		} else if res.gen == b.generation {
			b.applyRestyle(res)
			if b.restyle == nil {
				b.reporter.Status("Done")
			}
		}
	}

	return b.Busy()
}
// }}}

func (b *Builder)applyBatch(res batchResult) {
	for _, pl := range res.layers {
		b.createLayer(pl)
	}
	n := len(b.records)
	if n > 0 {
		b.reporter.Progress(res.end * 100 / n, fmt.Sprintf("%d/%d layers built", res.end, n))
	}

	if res.end < n {
		b.submitBatch(res.end)
		return
	}

	// Last batch is in; move the pivot to the middle of the stack
	b.building = false
	if box := b.graph.Bounds(b.root); !box.Empty() {
		b.root.SetPos(r3.Scale(-1, box.Center()))
		if b.Verbosity > 0 {
			log.Printf("Scene bounds %s, root moved to %v\n", box, b.root.Pos())
		}
	}
	b.reporter.Status(fmt.Sprintf("Built %d layers", len(b.layers)))

	if b.restylePending {
		b.restylePending = false
		b.startRestyle(b.staleVisible())
	}
}

// texture resolves a prepared card to an uploaded texture handle, going
// through the cache. Cards prepared under an older filter bypass the cache,
// since the key does not capture every switch. Returns false if the card
// has nothing to upload: it was cached at prep time and the cache has been
// cleared since.
func (b *Builder)texture(pc preparedCard, f RenderFilterState) (texcache.Handle, bool) {
	current := !f.TexturesDiffer(b.filter)
	if current {
		if h, ok := b.cache.Get(pc.key); ok {
			return h, true
		}
	}
	if pc.raster == nil {
		return nil, false
	}

	h := b.graph.UploadTexture(*pc.raster)
	if current {
		h = b.cache.Put(pc.key, h)
	}
	return h, true
}

func (b *Builder)createLayer(pl preparedLayer) {
	rec := pl.rec
	ln := &layerNode{rec: rec}
	ln.node = b.graph.AttachNode(b.root, fmt.Sprintf("layer_%d", rec.LayerNumber))

	if len(rec.Textures) > 0 {
		m := rec.Textures[0].Mask
		spacing := b.RealProportion * float64(m.MinDim()) * b.ImageScaleFactor
		ln.node.SetPos(r3.Vec{Y: -float64(rec.SequenceNumber) * spacing})
		ln.node.SetScale(float64(m.H))
	}

	b.attachCards(ln, pl)
	b.layers = append(b.layers, ln)
	b.applyRange(ln)
}

func (b *Builder)attachCards(ln *layerNode, pl preparedLayer) {
	b.graph.RemoveChildren(ln.node)
	ln.cards = nil

	skipped := 0
	for _, pc := range pl.cards {
		tex, ok := b.texture(pc, pl.filter)
		if !ok {
			skipped++
			continue
		}
		i := len(ln.cards)
		card := Card{
			Name:       fmt.Sprintf("exposure_%d", i),
			Left:       -pc.tex.AspectRatio / 2,
			Right:      pc.tex.AspectRatio / 2,
			Bottom:     -0.5,
			Top:        0.5,
			Roll:       90,
			Offset:     r3.Vec{Y: float64(i) * b.Epsilon},
			Texture:    tex,
			Tint:       b.table.Lookup(pc.tex.ExposureTime),
			AlphaScale: pl.filter.Opacity,
			TwoSided:   true,
			Blend:      true,
			DepthWrite: false,
			Bin:        BinTransparent,
		}
		node := b.graph.AttachCard(ln.node, card)
		if !b.filter.ExposureEnabled(pc.tex.ExposureTime) || !b.filter.TypeEnabled(pc.tex.ImageType) {
			node.Hide()
		}
		ln.cards = append(ln.cards, cardNode{node: node, tex: pc.tex})
	}
	ln.stale = skipped > 0 || pl.filter.TexturesDiffer(b.filter) || b.missingCards(ln)
}

// SetLayerRange shows only the layers whose sequence number is within
// [bottom, top]; a nil bound is open. Stale layers that come into view
// are re-rendered.
func (b *Builder)SetLayerRange(top, bottom *int) {
	b.top, b.bottom = top, bottom
	for _, ln := range b.layers {
		b.applyRange(ln)
	}
	if !b.building {
		if stale := b.staleVisible(); len(stale) > 0 && b.restyle == nil {
			b.startRestyle(stale)
		}
	}
}

func (b *Builder)InRange(seq int) bool {
	if b.top != nil && seq > *b.top { return false }
	if b.bottom != nil && seq < *b.bottom { return false }
	return true
}

func (b *Builder)applyRange(ln *layerNode) {
	if b.InRange(ln.rec.SequenceNumber) {
		ln.node.Show()
	} else {
		ln.node.Hide()
	}
}

// ApplyVisibility takes the type and exposure switches from f, and shows
// or hides the existing cards to match. Layers built while a now-enabled
// type was off have no cards for it; those are regenerated.
func (b *Builder)ApplyVisibility(f RenderFilterState) {
	b.filter.disabledTypes = f.disabledTypes
	b.filter.disabledExposures = f.disabledExposures

	for _, ln := range b.layers {
		for _, c := range ln.cards {
			if b.filter.TypeEnabled(c.tex.ImageType) && b.filter.ExposureEnabled(c.tex.ExposureTime) {
				c.node.Show()
			} else {
				c.node.Hide()
			}
		}
		if b.missingCards(ln) {
			ln.stale = true
		}
	}

	if !b.building && b.restyle == nil {
		if stale := b.staleVisible(); len(stale) > 0 {
			b.startRestyle(stale)
		}
	}
}

func (b *Builder)missingCards(ln *layerNode) bool {
	want := 0
	for _, t := range ln.rec.Textures {
		if b.filter.TypeEnabled(t.ImageType) {
			want++
		}
	}
	have := 0
	for _, c := range ln.cards {
		if b.filter.TypeEnabled(c.tex.ImageType) {
			have++
		}
	}
	return have < want
}

// {{{ b.Restyle

// Restyle switches to a new filter. The texture cache is dropped and the
// visible layers are regenerated in the background; hidden layers are
// regenerated when they next come into view. Records are not reloaded.
func (b *Builder)Restyle(f RenderFilterState) {
	opacityChanged := f.Opacity != b.filter.Opacity
	b.filter = f
	b.cache.Clear()
	if opacityChanged {
		b.table = b.colors.Assign(stack.ExposureTimes(b.records), f.Opacity)
	}
	for _, ln := range b.layers {
		ln.stale = true
	}

	b.reporter.Status("Re-rendering...")
	if b.building {
		// batches submitted from now on use the new filter
		b.restylePending = true
		return
	}
	b.startRestyle(b.staleVisible())
}
// }}}

func (b *Builder)staleVisible() []int {
	ret := []int{}
	for i, ln := range b.layers {
		if ln.stale && !ln.node.IsHidden() {
			ret = append(ret, i)
		}
	}
	return ret
}

func (b *Builder)startRestyle(layerIdx []int) {
	recs := make([]stack.Record, len(layerIdx))
	for i, idx := range layerIdx {
		recs[i] = b.layers[idx].rec
	}
	job := batchJob{
		gen:      b.generation,
		start:    0,
		end:      len(recs),
		records:  recs,
		filter:   b.filter,
		cache:    b.cache,
		layerIdx: layerIdx,
	}
	b.restyle = workpool.Submit(b.pool, job.run)
}

func (b *Builder)applyRestyle(res batchResult) {
	for i, pl := range res.layers {
		idx := res.layerIdx[i]
		if idx >= len(b.layers) {
			continue
		}
		b.attachCards(b.layers[idx], pl)
	}
	if b.Verbosity > 0 {
		log.Printf("Re-rendered %d layers with %s\n", len(res.layers), res.filter)
	}

	// the filter may have moved on while this was in flight
	if stale := b.staleVisible(); len(stale) > 0 {
		b.startRestyle(stale)
	}
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
