package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/relation"
	"github.com/roach88/factstore/internal/seed"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"item_id": "todo-1"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeNotFound, "no fact for todo-1.title", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "no fact for todo-1.title", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeUsage, "bad drive", map[string]string{"drive": "archive"}))
	assert.Contains(t, buf.String(), "Error [E002]: bad drive")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(ErrCodeUsage, "bad drive", map[string]string{"drive": "archive"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("opening %s", "user.sqlite")

			assert.Empty(t, out.String(), "diagnostics never corrupt stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "opening user.sqlite")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestWriteFacts(t *testing.T) {
	c := ir.NewFactsCollection(ir.Fact{Ordinal: 1, FactID: "f-1", ItemID: "todo-1", Attribute: "title", Value: "Buy milk", Type: ir.TypeString, Timestamp: "2024-01-01 09:00:00"})

	buf := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).writeFacts(c))
	assert.Equal(t, "[1 todo-1 title=\"Buy milk\" (string) 2024-01-01 09:00:00]\n", buf.String())

	buf.Reset()
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).writeFacts(ir.NewFactsCollection()))
	assert.Equal(t, "No facts\n", buf.String())

	buf.Reset()
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: buf}).writeFacts(ir.NewFactsCollection()))
	assert.JSONEq(t, `{"status":"ok","data":{"count":0,"facts":[]}}`, buf.String())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("open: %w", itemstore.ErrConnection), ErrCodeConnection},
		{fmt.Errorf("recent: %w", itemstore.ErrNotFound), ErrCodeNotFound},
		{itemstore.ErrUnsupportedQueryShape, ErrCodeQueryShape},
		{relation.ErrNoFilters, ErrCodeQueryShape},
		{itemstore.ErrWrite, ErrCodeWriteFailed},
		{relation.ErrInvalidEdge, ErrCodeWriteFailed},
		{seed.ErrDigestMismatch, ErrCodeSeed},
		{itemstore.ErrUnknownDrive, ErrCodeUsage},
		{usageError("bad"), ErrCodeUsage},
		{context.Canceled, ErrCodeCancelled},
		{errors.New("boom"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			code, msg := errorCode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), msg)
		})
	}
}

func TestExitFor(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(exitFor("recent failed", itemstore.ErrNotFound)))
	assert.Equal(t, ExitCommandError, GetExitCode(exitFor("insert failed", itemstore.ErrWrite)))

	inner := NewExitError(ExitSuccess, "already classified")
	assert.Same(t, inner, exitFor("outer", inner))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.ErrorIs(t, exitFor("x", itemstore.ErrWrite), itemstore.ErrWrite)
}
