package service

import (
	"errors"

	"github.com/viant/mcp-hieroglyph/hieroglyph/catalog"
)

var (
	// ErrUnknownGrapheme is returned when a grapheme reference is not in the catalog.
	ErrUnknownGrapheme = catalog.ErrUnknownGrapheme
	// ErrGraphemeUnavailable is returned when a grapheme cannot be combined with the current selection.
	ErrGraphemeUnavailable = errors.New("grapheme is not available for the current selection")
	// ErrNotSelected is returned when removing a grapheme that is not part of the selection.
	ErrNotSelected = errors.New("grapheme is not selected")
	// ErrEmptySelection is returned when an operation needs at least one selected grapheme.
	ErrEmptySelection = errors.New("no graphemes selected")
	// ErrNoTarget is returned when confirming without a hieroglyph and without a challenge target.
	ErrNoTarget = errors.New("no hieroglyph to confirm against; pass one or start a challenge")
	// ErrTranslationNotFound is returned when the backend has no tokens for the text.
	ErrTranslationNotFound = errors.New("translation not found")
)
