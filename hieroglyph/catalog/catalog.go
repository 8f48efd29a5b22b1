package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSize is the number of bundled grapheme images.
	DefaultSize = 444
	// ManifestName is the optional manifest file under the assets base.
	ManifestName = "manifest.yaml"
	// ImageExt is the extension of grapheme image assets.
	ImageExt = ".png"
	// ImageMimeType is served for grapheme image assets.
	ImageMimeType = "image/png"

	assetPrefix = "grapheme_"
)

var (
	// ErrUnknownGrapheme is returned when a reference does not resolve to a catalog entry.
	ErrUnknownGrapheme = errors.New("unknown grapheme")
	// ErrNoAssets is returned when images are requested but no assets base is configured.
	ErrNoAssets = errors.New("grapheme assets base is not configured")
)

// Grapheme is one selectable tile of the grid.
type Grapheme struct {
	ID    int    `json:"id" yaml:"id"`
	Asset string `json:"asset" yaml:"-"`
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

type manifest struct {
	Size      int        `yaml:"size"`
	Graphemes []Grapheme `yaml:"graphemes"`
}

// Catalog holds graphemes in grid order and gives access to their images.
type Catalog struct {
	base    string
	fs      afs.Service
	items   []Grapheme
	byValue map[string]int
}

// AssetName returns the bundled asset name for a grapheme number, e.g. grapheme_007.
func AssetName(id int) string { return fmt.Sprintf("%s%03d", assetPrefix, id) }

// DefaultValue returns the wire value used for a grapheme when the manifest gives none.
func DefaultValue(id int) string { return fmt.Sprintf("%03d", id) }

// New builds the default catalog of DefaultSize graphemes without touching storage.
func New(base string) *Catalog {
	ret, _ := build(strings.TrimRight(base, "/"), afs.New(), DefaultSize, nil)
	return ret
}

// Load builds the catalog, applying base/manifest.yaml when present.
func Load(ctx context.Context, base string) (*Catalog, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	fs := afs.New()
	if base == "" {
		return build(base, fs, DefaultSize, nil)
	}
	URL := base + "/" + ManifestName
	ok, err := fs.Exists(ctx, URL)
	if err != nil || !ok {
		return build(base, fs, DefaultSize, nil)
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", URL, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", URL, err)
	}
	size := m.Size
	if size <= 0 {
		size = DefaultSize
	}
	return build(base, fs, size, m.Graphemes)
}

func build(base string, fs afs.Service, size int, overrides []Grapheme) (*Catalog, error) {
	items := make([]Grapheme, size)
	for i := range items {
		id := i + 1
		items[i] = Grapheme{ID: id, Asset: AssetName(id), Value: DefaultValue(id)}
	}
	for _, o := range overrides {
		if o.ID < 1 || o.ID > size {
			return nil, fmt.Errorf("manifest grapheme id %d out of range 1..%d", o.ID, size)
		}
		item := &items[o.ID-1]
		if v := strings.TrimSpace(o.Value); v != "" {
			item.Value = v
		}
		item.Label = o.Label
	}
	byValue := make(map[string]int, size)
	for i, item := range items {
		if prev, ok := byValue[item.Value]; ok {
			return nil, fmt.Errorf("duplicate grapheme value %q for ids %d and %d", item.Value, items[prev].ID, item.ID)
		}
		byValue[item.Value] = i
	}
	return &Catalog{base: base, fs: fs, items: items, byValue: byValue}, nil
}

// Len returns the number of graphemes.
func (c *Catalog) Len() int { return len(c.items) }

// Base returns the assets base URL.
func (c *Catalog) Base() string { return c.base }

// Page returns up to limit graphemes starting at offset, plus the total count.
func (c *Catalog) Page(offset, limit int) ([]Grapheme, int) {
	total := len(c.items)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Grapheme{}, total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	out := make([]Grapheme, end-offset)
	copy(out, c.items[offset:end])
	return out, total
}

// ByID returns the grapheme with the given number.
func (c *Catalog) ByID(id int) (Grapheme, bool) {
	if id < 1 || id > len(c.items) {
		return Grapheme{}, false
	}
	return c.items[id-1], true
}

// ByValue returns the grapheme with the given wire value.
func (c *Catalog) ByValue(value string) (Grapheme, bool) {
	i, ok := c.byValue[value]
	if !ok {
		return Grapheme{}, false
	}
	return c.items[i], true
}

// Resolve accepts a wire value, an asset name (grapheme_007) or a grapheme number (7).
func (c *Catalog) Resolve(ref string) (Grapheme, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Grapheme{}, fmt.Errorf("%w: empty reference", ErrUnknownGrapheme)
	}
	if g, ok := c.ByValue(ref); ok {
		return g, nil
	}
	num := strings.TrimSuffix(strings.TrimPrefix(ref, assetPrefix), ImageExt)
	if id, err := strconv.Atoi(num); err == nil {
		if g, ok := c.ByID(id); ok {
			return g, nil
		}
	}
	return Grapheme{}, fmt.Errorf("%w: %q", ErrUnknownGrapheme, ref)
}

// Layout arranges grapheme numbers into rows of the given column count.
func (c *Catalog) Layout(columns int) [][]int {
	if columns <= 0 {
		columns = DefaultColumns
	}
	if columns > len(c.items) {
		columns = max(len(c.items), 1)
	}
	rows := make([][]int, 0, (len(c.items)+columns-1)/columns)
	for start := 0; start < len(c.items); start += columns {
		end := start + columns
		if end > len(c.items) {
			end = len(c.items)
		}
		row := make([]int, 0, end-start)
		for _, item := range c.items[start:end] {
			row = append(row, item.ID)
		}
		rows = append(rows, row)
	}
	return rows
}

// ImageURL returns the storage URL of a grapheme image.
func (c *Catalog) ImageURL(id int) (string, error) {
	g, ok := c.ByID(id)
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrUnknownGrapheme, id)
	}
	if c.base == "" {
		return "", ErrNoAssets
	}
	return c.base + "/" + g.Asset + ImageExt, nil
}

// OpenImage opens the image stream of a grapheme; the caller must close it.
func (c *Catalog) OpenImage(ctx context.Context, id int) (io.ReadCloser, error) {
	URL, err := c.ImageURL(id)
	if err != nil {
		return nil, err
	}
	rc, err := c.fs.OpenURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", URL, err)
	}
	return rc, nil
}

// ReadImage reads a whole grapheme image and releases the stream.
func (c *Catalog) ReadImage(ctx context.Context, id int) ([]byte, error) {
	rc, err := c.OpenImage(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
