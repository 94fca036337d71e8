package mask

import(
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// A Mask is a greyscale slice image: one byte per pixel, row major. A
// zero pixel is void (unexposed); anything else is exposed.
type Mask struct {
	W, H int
	Pix  []uint8
}

// A Key identifies the content of a mask, as rendered in one pixel
// mode. Identical bitmaps share a Key across layers and across reloads.
type Key [md5.Size]byte

func (k Key)String() string { return hex.EncodeToString(k[:]) }

func New(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

func (m *Mask)At(x, y int) uint8     { return m.Pix[y*m.W + x] }
func (m *Mask)Set(x, y int, v uint8) { m.Pix[y*m.W + x] = v }
func (m *Mask)AspectRatio() float64  { return float64(m.W) / float64(m.H) }
func (m *Mask)MinDim() int {
	if m.W < m.H { return m.W }
	return m.H
}

func (m *Mask)String() string {
	return fmt.Sprintf("Mask[%dx%d, %.1f%% set]", m.W, m.H, m.Coverage())
}

// Key hashes the raw pixel bytes followed by the pixel mode flag.
func (m *Mask)Key(showPositive bool) Key {
	h := md5.New()
	h.Write(m.Pix)
	if showPositive {
		h.Write([]byte("True"))
	} else {
		h.Write([]byte("False"))
	}

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Coverage is the percentage of non-zero pixels.
func (m *Mask)Coverage() float64 {
	if len(m.Pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return 100.0 * float64(n) / float64(len(m.Pix))
}

// DownSample shrinks the mask by an integer factor, averaging each
// factor x factor block (area interpolation) and rounding to the nearest
// value. Partial blocks at the right and bottom edges are dropped.
func (m *Mask)DownSample(factor int) *Mask {
	if factor <= 1 {
		return m
	}
	w, h := m.W/factor, m.H/factor
	if w < 1 { w = 1 }
	if h < 1 { h = 1 }
	out := New(w, h)

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			sum, n := 0, 0
			for dy:=0; dy<factor; dy++ {
				for dx:=0; dx<factor; dx++ {
					sx, sy := x*factor+dx, y*factor+dy
					if sx >= m.W || sy >= m.H {
						continue
					}
					sum += int(m.At(sx, sy))
					n++
				}
			}
			out.Set(x, y, uint8((sum + n/2) / n))
		}
	}

	return out
}

// FromImage converts any image into a Mask via its greyscale value.
func FromImage(img image.Image) *Mask {
	b := img.Bounds()

	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(b)
		draw.Draw(gray, b, img, b.Min, draw.Src)
	}

	m := New(b.Dx(), b.Dy())
	for y:=0; y<b.Dy(); y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		row := gray.Pix[off : off+b.Dx()]
		copy(m.Pix[y*m.W:], row)
	}
	return m
}

// Load decodes a PNG, TIFF or BMP slice image.
func Load(filename string) (*Mask, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r mask '%s': %w", filename, err)
	}
	defer reader.Close()

	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mask '%s': %v", filepath.Base(filename), err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("mask '%s' (%s) is empty", filepath.Base(filename), format)
	}

	return FromImage(img), nil
}
