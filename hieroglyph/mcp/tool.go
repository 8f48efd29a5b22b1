package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-hieroglyph/hieroglyph/adapter"
	hgservice "github.com/viant/mcp-hieroglyph/hieroglyph/service"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"
)

//go:embed tools/hieroglyphListGraphemes.md
var descListGraphemes string

//go:embed tools/hieroglyphGraphemeImage.md
var descGraphemeImage string

//go:embed tools/hieroglyphSessionState.md
var descSessionState string

//go:embed tools/hieroglyphSelectGrapheme.md
var descSelectGrapheme string

//go:embed tools/hieroglyphRemoveGrapheme.md
var descRemoveGrapheme string

//go:embed tools/hieroglyphClearSelection.md
var descClearSelection string

//go:embed tools/hieroglyphResetSession.md
var descResetSession string

//go:embed tools/hieroglyphNewChallenge.md
var descNewChallenge string

//go:embed tools/hieroglyphConfirm.md
var descConfirm string

//go:embed tools/hieroglyphRandom.md
var descRandom string

//go:embed tools/hieroglyphTranslate.md
var descTranslate string

func registerTools(base *protoserver.DefaultHandler, h *Handler) error {
	// Grid
	if err := protoserver.RegisterTool[*hgservice.ListGraphemesInput, *hgservice.ListGraphemesOutput](base.Registry, "hieroglyphListGraphemes", descListGraphemes, h.listGraphemes); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.GraphemeImageInput, *hgservice.GraphemeImageOutput](base.Registry, "hieroglyphGraphemeImage", descGraphemeImage, h.graphemeImage); err != nil {
		return err
	}

	// Session
	if err := protoserver.RegisterTool[*hgservice.SessionStateInput, *hgservice.SessionOutput](base.Registry, "hieroglyphSessionState", descSessionState, h.sessionState); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.SelectGraphemeInput, *hgservice.SessionOutput](base.Registry, "hieroglyphSelectGrapheme", descSelectGrapheme, h.selectGrapheme); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.RemoveGraphemeInput, *hgservice.SessionOutput](base.Registry, "hieroglyphRemoveGrapheme", descRemoveGrapheme, h.removeGrapheme); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.ClearSelectionInput, *hgservice.SessionOutput](base.Registry, "hieroglyphClearSelection", descClearSelection, h.clearSelection); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.ResetSessionInput, *hgservice.SessionOutput](base.Registry, "hieroglyphResetSession", descResetSession, h.resetSession); err != nil {
		return err
	}

	// Challenge
	if err := protoserver.RegisterTool[*hgservice.NewChallengeInput, *hgservice.SessionOutput](base.Registry, "hieroglyphNewChallenge", descNewChallenge, h.newChallenge); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.ConfirmInput, *hgservice.ConfirmOutput](base.Registry, "hieroglyphConfirm", descConfirm, h.confirm); err != nil {
		return err
	}

	// Lookup
	if err := protoserver.RegisterTool[*hgservice.RandomInput, *hgservice.RandomOutput](base.Registry, "hieroglyphRandom", descRandom, h.random); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*hgservice.TranslateInput, *hgservice.TranslateOutput](base.Registry, "hieroglyphTranslate", descTranslate, h.translate); err != nil {
		return err
	}
	return nil
}

func (h *Handler) listGraphemes(ctx context.Context, in *hgservice.ListGraphemesInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in != nil && (in.Offset < 0 || in.Limit < 0 || in.Columns < 0 || in.ScreenWidth < 0) {
		return buildErrorResult("offset, limit, columns and screenWidth must not be negative")
	}
	return buildSuccessResult(h.service, h.service.ListGraphemes(ctx, in))
}

func (h *Handler) graphemeImage(ctx context.Context, in *hgservice.GraphemeImageInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in == nil || (in.ID == 0 && strings.TrimSpace(in.Grapheme) == "") {
		return buildErrorResult("id or grapheme is required")
	}
	if in.ID < 0 {
		return buildErrorResult("id must be positive")
	}
	out, err := h.service.GraphemeImage(ctx, in)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, out)
}

func (h *Handler) sessionState(ctx context.Context, in *hgservice.SessionStateInput) (*schema.CallToolResult, *jsonrpc.Error) {
	refresh := in != nil && in.Refresh
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: h.service.State(ctx, refresh)})
}

func (h *Handler) selectGrapheme(ctx context.Context, in *hgservice.SelectGraphemeInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in == nil || strings.TrimSpace(in.Grapheme) == "" {
		return buildErrorResult("grapheme is required")
	}
	st, err := h.service.Select(ctx, in.Grapheme)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: st})
}

func (h *Handler) removeGrapheme(ctx context.Context, in *hgservice.RemoveGraphemeInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in != nil && in.Position < 0 {
		return buildErrorResult("position is 1-based")
	}
	st, err := h.service.Remove(ctx, in)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: st})
}

func (h *Handler) clearSelection(ctx context.Context, _ *hgservice.ClearSelectionInput) (*schema.CallToolResult, *jsonrpc.Error) {
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: h.service.Clear(ctx)})
}

func (h *Handler) resetSession(ctx context.Context, _ *hgservice.ResetSessionInput) (*schema.CallToolResult, *jsonrpc.Error) {
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: h.service.Reset(ctx)})
}

func (h *Handler) newChallenge(ctx context.Context, _ *hgservice.NewChallengeInput) (*schema.CallToolResult, *jsonrpc.Error) {
	st, err := h.service.NewChallenge(ctx)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, &hgservice.SessionOutput{Session: st})
}

func (h *Handler) confirm(ctx context.Context, in *hgservice.ConfirmInput) (*schema.CallToolResult, *jsonrpc.Error) {
	hieroglyph := ""
	if in != nil {
		hieroglyph = in.Hieroglyph
	}
	out, err := h.service.Confirm(ctx, hieroglyph)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, out)
}

func (h *Handler) random(ctx context.Context, _ *hgservice.RandomInput) (*schema.CallToolResult, *jsonrpc.Error) {
	out, err := h.service.Random(ctx)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, out)
}

func (h *Handler) translate(ctx context.Context, in *hgservice.TranslateInput) (*schema.CallToolResult, *jsonrpc.Error) {
	text := ""
	if in != nil {
		text = in.Text
	}
	out, err := h.service.Translate(ctx, text)
	if err != nil {
		return toolError(h.service, err)
	}
	return buildSuccessResult(h.service, out)
}

// invalidInput lists errors caused by the caller's arguments or session state.
var invalidInput = []error{
	hgservice.ErrUnknownGrapheme,
	hgservice.ErrGraphemeUnavailable,
	hgservice.ErrNotSelected,
	hgservice.ErrEmptySelection,
	hgservice.ErrNoTarget,
}

// toolError maps caller mistakes to InvalidParams and reports backend failures as tool errors.
func toolError(service *hgservice.Service, err error) (*schema.CallToolResult, *jsonrpc.Error) {
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return buildErrorResult(err.Error())
		}
	}
	message := err.Error()
	var apiErr *adapter.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		message = "server error: " + apiErr.Body
	}
	return buildToolErrorResult(service, message), nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(service *hgservice.Service, payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	if service.UseTextField() {
		b, _ := json.Marshal(payload)
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: string(b)}}}, nil
	}
	return &schema.CallToolResult{StructuredContent: map[string]any{"result": payload}}, nil
}

func buildToolErrorResult(service *hgservice.Service, message string) *schema.CallToolResult {
	isErr := true
	if service.UseTextField() {
		return &schema.CallToolResult{IsError: &isErr, Content: []schema.CallToolResultContentElem{{Type: "text", Text: message}}}
	}
	return &schema.CallToolResult{IsError: &isErr, StructuredContent: map[string]any{"error": message}}
}
