package service

import (
	"context"
	"fmt"

	"github.com/viant/mcp-hieroglyph/hieroglyph/catalog"
)

const defaultPageSize = 100

// ListGraphemes returns a catalog page annotated with grid position and the caller's selection state.
func (s *Service) ListGraphemes(ctx context.Context, in *ListGraphemesInput) *ListGraphemesOutput {
	if in == nil {
		in = &ListGraphemesInput{}
	}
	out := &ListGraphemesOutput{Columns: s.columns}
	if in.ScreenWidth > 0 {
		tile := catalog.Metrics(in.ScreenWidth)
		out.Tile = &tile
		out.Columns = catalog.ColumnsFor(in.ScreenWidth)
	}
	if in.Columns > 0 {
		out.Columns = in.Columns
	}
	limit := in.Limit
	if limit <= 0 && in.Offset > 0 {
		limit = defaultPageSize
	}

	sess := s.acquire(ctx)
	st := sess.state.clone()
	sess.mu.Unlock()

	page, total := s.catalog.Page(in.Offset, limit)
	out.Total = total
	out.Graphemes = make([]GraphemeView, 0, len(page))
	for _, g := range page {
		view := GraphemeView{
			ID:         g.ID,
			Asset:      g.Asset,
			Value:      g.Value,
			Label:      g.Label,
			Row:        (g.ID - 1) / out.Columns,
			Column:     (g.ID - 1) % out.Columns,
			Selected:   st.count(g.Value),
			Selectable: !st.Synced || st.isAvailable(g.Value),
		}
		if in.SelectableOnly && !view.Selectable {
			continue
		}
		out.Graphemes = append(out.Graphemes, view)
	}
	return out
}

// GraphemeImage reads the image of a grapheme given by number or reference.
func (s *Service) GraphemeImage(ctx context.Context, in *GraphemeImageInput) (*GraphemeImageOutput, error) {
	if in == nil {
		in = &GraphemeImageInput{}
	}
	var g catalog.Grapheme
	switch {
	case in.ID > 0:
		var ok bool
		if g, ok = s.catalog.ByID(in.ID); !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownGrapheme, in.ID)
		}
	default:
		var err error
		if g, err = s.catalog.Resolve(normalize(in.Grapheme)); err != nil {
			return nil, err
		}
	}
	data, err := s.catalog.ReadImage(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return &GraphemeImageOutput{ID: g.ID, Asset: g.Asset, MimeType: catalog.ImageMimeType, Content: data}, nil
}
