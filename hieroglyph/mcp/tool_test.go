package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-hieroglyph/hieroglyph/adapter"
	hgservice "github.com/viant/mcp-hieroglyph/hieroglyph/service"
	"github.com/viant/mcp-protocol/schema"
)

func newTestService(t *testing.T, useData bool) *hgservice.Service {
	t.Helper()
	svc, err := hgservice.NewService(context.Background(), &hgservice.Config{UseData: useData})
	require.NoError(t, err)
	return svc
}

func TestToolError(t *testing.T) {
	svc := newTestService(t, false)

	var testCases = []struct {
		description   string
		err           error
		expectInvalid bool
		expectText    string
	}{
		{description: "unknown grapheme", err: fmt.Errorf("%w: %q", hgservice.ErrUnknownGrapheme, "x"), expectInvalid: true},
		{description: "empty selection", err: hgservice.ErrEmptySelection, expectInvalid: true},
		{description: "no target", err: hgservice.ErrNoTarget, expectInvalid: true},
		{description: "server body", err: fmt.Errorf("failed to translate 字: %w", &adapter.APIError{StatusCode: 500, Status: "500 Internal Server Error", Body: "db down"}), expectText: "server error: db down"},
		{description: "transport", err: errors.New("connection refused"), expectText: "connection refused"},
	}
	for _, tc := range testCases {
		result, rpcErr := toolError(svc, tc.err)
		if tc.expectInvalid {
			require.NotNil(t, rpcErr, tc.description)
			assert.Nil(t, result, tc.description)
			assert.EqualValues(t, jsonrpc.InvalidParams, rpcErr.Code, tc.description)
			assert.Equal(t, tc.err.Error(), rpcErr.Message, tc.description)
			continue
		}
		require.Nil(t, rpcErr, tc.description)
		require.NotNil(t, result, tc.description)
		require.NotNil(t, result.IsError, tc.description)
		assert.True(t, *result.IsError, tc.description)
		require.Len(t, result.Content, 1, tc.description)
		assert.Equal(t, tc.expectText, result.Content[0].Text, tc.description)
	}
}

func TestBuildSuccessResult(t *testing.T) {
	payload := &hgservice.RandomOutput{Hieroglyph: "字"}

	result, rpcErr := buildSuccessResult(newTestService(t, false), payload)
	require.Nil(t, rpcErr)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.JSONEq(t, `{"hieroglyph":"字"}`, result.Content[0].Text)

	result, rpcErr = buildSuccessResult(newTestService(t, true), payload)
	require.Nil(t, rpcErr)
	assert.Empty(t, result.Content)
	assert.Equal(t, payload, result.StructuredContent["result"])
}

func TestHandler_Validation(t *testing.T) {
	h := &Handler{service: newTestService(t, true)}
	ctx := context.Background()

	var testCases = []struct {
		description string
		call        func() (*schema.CallToolResult, *jsonrpc.Error)
	}{
		{description: "negative offset", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.listGraphemes(ctx, &hgservice.ListGraphemesInput{Offset: -1})
		}},
		{description: "negative limit", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.listGraphemes(ctx, &hgservice.ListGraphemesInput{Limit: -5})
		}},
		{description: "image without reference", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.graphemeImage(ctx, &hgservice.GraphemeImageInput{})
		}},
		{description: "image negative id", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.graphemeImage(ctx, &hgservice.GraphemeImageInput{ID: -3})
		}},
		{description: "empty grapheme", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.selectGrapheme(ctx, &hgservice.SelectGraphemeInput{Grapheme: " "})
		}},
		{description: "unknown grapheme", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.selectGrapheme(ctx, &hgservice.SelectGraphemeInput{Grapheme: "nope"})
		}},
		{description: "negative position", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.removeGrapheme(ctx, &hgservice.RemoveGraphemeInput{Position: -1})
		}},
		{description: "remove from empty selection", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.removeGrapheme(ctx, &hgservice.RemoveGraphemeInput{Last: true})
		}},
		{description: "confirm without target", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.confirm(ctx, &hgservice.ConfirmInput{})
		}},
		{description: "translate without target", call: func() (*schema.CallToolResult, *jsonrpc.Error) {
			return h.translate(ctx, nil)
		}},
	}
	for _, tc := range testCases {
		result, rpcErr := tc.call()
		assert.Nil(t, result, tc.description)
		if assert.NotNil(t, rpcErr, tc.description) {
			assert.EqualValues(t, jsonrpc.InvalidParams, rpcErr.Code, tc.description)
		}
	}
}

func TestHandler_Session(t *testing.T) {
	h := &Handler{service: newTestService(t, true)}
	ctx := context.Background()

	result, rpcErr := h.listGraphemes(ctx, &hgservice.ListGraphemesInput{Offset: 1, Limit: math.MaxInt})
	require.Nil(t, rpcErr)
	list, ok := result.StructuredContent["result"].(*hgservice.ListGraphemesOutput)
	require.True(t, ok)
	assert.Equal(t, 444, list.Total)
	assert.Len(t, list.Graphemes, 443)

	for _, call := range []func() (*schema.CallToolResult, *jsonrpc.Error){
		func() (*schema.CallToolResult, *jsonrpc.Error) { return h.sessionState(ctx, nil) },
		func() (*schema.CallToolResult, *jsonrpc.Error) { return h.clearSelection(ctx, nil) },
		func() (*schema.CallToolResult, *jsonrpc.Error) { return h.resetSession(ctx, nil) },
	} {
		result, rpcErr = call()
		require.Nil(t, rpcErr)
		out, ok := result.StructuredContent["result"].(*hgservice.SessionOutput)
		require.True(t, ok)
		assert.Equal(t, "default", out.Session.Namespace)
		assert.Empty(t, out.Session.Selected)
		assert.True(t, out.Session.AllAvailable)
	}
}

func TestHandler_BackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer backend.Close()
	svc, err := hgservice.NewService(context.Background(), &hgservice.Config{BackendURL: backend.URL})
	require.NoError(t, err)
	h := &Handler{service: svc}

	result, rpcErr := h.random(context.Background(), nil)
	require.Nil(t, rpcErr)
	require.NotNil(t, result.IsError)
	assert.True(t, *result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "server error: db down", result.Content[0].Text)
}
