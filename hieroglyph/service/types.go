package service

import (
	"time"

	"github.com/viant/mcp-hieroglyph/hieroglyph/adapter"
	"github.com/viant/mcp-hieroglyph/hieroglyph/catalog"
)

// SessionState is the composition state of one learner namespace.
type SessionState struct {
	ID        string   `json:"id"`
	Namespace string   `json:"namespace"`
	Selected  []string `json:"selected"`
	// Available lists graphemes the backend reported as combinable with Selected.
	Available []string `json:"available,omitempty"`
	// AllAvailable is set while nothing is selected: every catalog grapheme may be picked.
	AllAvailable bool `json:"allAvailable,omitempty"`
	Synced       bool `json:"synced"`
	// SyncError holds the last backend failure while Synced is false.
	SyncError  string         `json:"syncError,omitempty"`
	Target     string         `json:"target,omitempty"`
	Confirmed  string         `json:"confirmed,omitempty"`
	LastResult *ConfirmResult `json:"lastResult,omitempty"`
	Attempts   int            `json:"attempts"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

type ConfirmResult struct {
	Hieroglyph string    `json:"hieroglyph"`
	Graphemes  []string  `json:"graphemes"`
	Confirmed  bool      `json:"confirmed"`
	At         time.Time `json:"at"`
}

type GraphemeView struct {
	ID         int    `json:"id"`
	Asset      string `json:"asset"`
	Value      string `json:"value"`
	Label      string `json:"label,omitempty"`
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	Selected   int    `json:"selected,omitempty" description:"how many times the grapheme is in the selection"`
	Selectable bool   `json:"selectable"`
}

type ListGraphemesInput struct {
	Offset  int `json:"offset,omitempty"`
	Limit   int `json:"limit,omitempty" description:"page size (default 100, 0 lists all when offset is 0)"`
	Columns int `json:"columns,omitempty" description:"grid width used for row/column (default from config)"`
	// ScreenWidth, when set, derives columns and tile metrics for a screen of that many pixels.
	ScreenWidth int `json:"screenWidth,omitempty"`
	// SelectableOnly hides graphemes that cannot be combined with the current selection.
	SelectableOnly bool `json:"selectableOnly,omitempty"`
}

type ListGraphemesOutput struct {
	Total     int                  `json:"total"`
	Columns   int                  `json:"columns"`
	Tile      *catalog.TileMetrics `json:"tile,omitempty"`
	Graphemes []GraphemeView       `json:"graphemes"`
}

type GraphemeImageInput struct {
	ID       int    `json:"id,omitempty" description:"grapheme number 1..444"`
	Grapheme string `json:"grapheme,omitempty" description:"wire value, asset name or number"`
}

type GraphemeImageOutput struct {
	ID       int    `json:"id"`
	Asset    string `json:"asset"`
	MimeType string `json:"mimeType"`
	Content  []byte `json:"content"`
}

type SessionStateInput struct {
	Refresh bool `json:"refresh,omitempty" description:"re-query available graphemes from the backend"`
}

type SelectGraphemeInput struct {
	Grapheme string `json:"grapheme" description:"wire value, asset name (grapheme_007) or number (7)"`
}

type RemoveGraphemeInput struct {
	Position int    `json:"position,omitempty" description:"1-based position in the selection"`
	Grapheme string `json:"grapheme,omitempty" description:"removes the last occurrence when position is not set"`
	Last     bool   `json:"last,omitempty" description:"remove the most recently selected grapheme; overrides position and grapheme"`
}

type ClearSelectionInput struct{}

type ResetSessionInput struct{}

type NewChallengeInput struct{}

type SessionOutput struct {
	Session SessionState `json:"session"`
}

type ConfirmInput struct {
	Hieroglyph string `json:"hieroglyph,omitempty" description:"defaults to the challenge target"`
}

type ConfirmOutput struct {
	Result   ConfirmResult `json:"result"`
	Attempts int           `json:"attempts"`
	// Discarded is set when the session changed while the backend answered; the answer is not recorded.
	Discarded bool `json:"discarded,omitempty"`
}

type RandomInput struct{}

type RandomOutput struct {
	Hieroglyph string `json:"hieroglyph"`
}

type TranslateInput struct {
	Text string `json:"text,omitempty" description:"defaults to the confirmed or target hieroglyph"`
}

type TranslateOutput struct {
	Text      string          `json:"text"`
	Tokens    []adapter.Token `json:"tokens"`
	Primary   adapter.Token   `json:"primary"`
	Formatted string          `json:"formatted"`
}
