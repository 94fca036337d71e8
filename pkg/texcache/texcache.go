package texcache

import(
	"fmt"
	"sync"

	"github.com/abworrall/slicestack/pkg/emath"
	"github.com/abworrall/slicestack/pkg/mask"
)

// A Key addresses one rendered texture: the mask content (which already
// folds in the pixel mode), the quality mode, and the opacity quantized to
// two decimals.
type Key struct {
	Content      mask.Key
	HighQuality  bool
	OpacityCents int
}

func (k Key)String() string {
	return fmt.Sprintf("%s_%v_%d", k.Content, k.HighQuality, k.OpacityCents)
}

func NewKey(content mask.Key, highQuality bool, opacity float64) Key {
	return Key{Content: content, HighQuality: highQuality, OpacityCents: emath.Cents(opacity)}
}

// A Handle is whatever the graphics side uses to refer to an uploaded
// texture. The cache never looks inside it.
type Handle interface{}

// Cache maps keys to texture handles. It is shared by the render loop and
// the loader workers, so every operation takes the one lock; the lock is
// only held for the map access itself.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]Handle
}

func New() *Cache {
	return &Cache{entries: map[Key]Handle{}}
}

func (c *Cache)Get(k Key) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[k]
	return h, ok
}

// Put stores h under k unless k is already present, in which case the
// existing handle is kept. Returns whichever handle the cache now holds.
func (c *Cache)Put(k Key, h Handle) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[k]; ok {
		return existing
	}
	c.entries[k] = h
	return h
}

func (c *Cache)Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[Key]Handle{}
}

func (c *Cache)Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
