package scene

import(
	"github.com/abworrall/slicestack/pkg/raster"
	"github.com/abworrall/slicestack/pkg/stack"
	"github.com/abworrall/slicestack/pkg/texcache"
)

type preparedCard struct {
	tex    stack.Texture
	key    texcache.Key
	raster *raster.Texture  // nil if the key was already cached
}

type preparedLayer struct {
	rec    stack.Record
	cards  []preparedCard
	filter RenderFilterState
}

type batchResult struct {
	gen      int
	end      int
	layers   []preparedLayer
	layerIdx []int
	filter   RenderFilterState
}

// batchJob is the worker side of building: everything that does not touch
// the graphics context.
type batchJob struct {
	gen      int
	start    int
	end      int
	records  []stack.Record
	filter   RenderFilterState
	cache    *texcache.Cache
	layerIdx []int
}

func (j batchJob)run() (batchResult, error) {
	res := batchResult{gen: j.gen, end: j.end, layerIdx: j.layerIdx, filter: j.filter}
	rendered := map[texcache.Key]*raster.Texture{}

	for _, rec := range j.records[j.start:j.end] {
		pl := preparedLayer{rec: rec, filter: j.filter}
		for _, t := range rec.Textures {
			if !j.filter.TypeEnabled(t.ImageType) {
				continue
			}
			pc := preparedCard{
				tex: t,
				key: texcache.NewKey(t.Key(j.filter.ShowPositive), j.filter.HighQuality, j.filter.Opacity),
			}
			if _, ok := j.cache.Get(pc.key); !ok {
				if rt, ok := rendered[pc.key]; ok {
					pc.raster = rt
				} else {
					rt := raster.Rasterize(t.Mask, j.filter.Mode)
					rendered[pc.key] = &rt
					pc.raster = &rt
				}
			}
			pl.cards = append(pl.cards, pc)
		}
		res.layers = append(res.layers, pl)
	}

	return res, nil
}
