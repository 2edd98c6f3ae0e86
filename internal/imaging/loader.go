package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode reports that the input is not a supported raster image.
var ErrDecode = errors.New("unsupported or corrupt image")

// Photo is a decoded upload with its orientation already corrected.
type Photo struct {
	// Image is the decoded, upright image.
	Image image.Image

	// Format is the registered decoder name: "png", "jpeg", "gif", "bmp",
	// "tiff" or "webp".
	Format string
}

// Width returns the upright width in pixels.
func (p *Photo) Width() int { return p.Image.Bounds().Dx() }

// Height returns the upright height in pixels.
func (p *Photo) Height() int { return p.Image.Bounds().Dy() }

// Decode reads a whole image from r and applies its EXIF orientation.
//
// Phone cameras store portrait shots as landscape pixels plus an orientation
// tag; without applying it Tesseract would read the card edges sideways.
// The returned error wraps ErrDecode when the data is not an image.
func Decode(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &Photo{Image: img, Format: format}, nil
}

// Open decodes the image file at path. See Decode.
func Open(path string) (*Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// ImageCache keeps decoded photos keyed by file path so repeated scans of the
// same file (CLI retries, MCP tool calls) skip disk reads and decoding.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	photos map[string]*Photo
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		photos: make(map[string]*Photo),
	}
}

// Load returns the cached photo for path, opening it on first use.
//
// The path string is the key, so a relative and an absolute path to the same
// file are cached separately.
func (c *ImageCache) Load(path string) (*Photo, error) {
	c.mu.RLock()
	if p, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.photos[path] = p
	c.mu.Unlock()

	return p, nil
}

// Evict removes path from the cache. Missing paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// Clear drops every cached photo.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]*Photo)
	c.mu.Unlock()
}

// Len returns the number of cached photos.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.photos)
}
