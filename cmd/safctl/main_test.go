package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

// fakeServer records execute requests and answers with respond
func fakeServer(t *testing.T, respond func(types.ExecuteRequest) string) (*httptest.Server, *[]types.ExecuteRequest) {
	t.Helper()
	var seen []types.ExecuteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ExecuteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respond(req)))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"safctl", "--server", srv.URL}, args...))
	return out.String(), err
}

func TestCallParsesParams(t *testing.T) {
	srv, seen := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"count":1}}`
	})

	out, err := run(t, srv, "--app-id", "notes", "call",
		"--json", `{"uri":"content://docbridge.local/tree/primary/a.txt"}`,
		"--param", "force=true", "--param", "label=plain, text",
		"documents.deleteFile")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 1`)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "documents.deleteFile", req.ToolID)
	assert.Equal(t, "content://docbridge.local/tree/primary/a.txt", req.Params["uri"])
	assert.Equal(t, true, req.Params["force"])
	assert.Equal(t, "plain, text", req.Params["label"])
	require.NotNil(t, req.AppID)
	assert.Equal(t, "notes", *req.AppID)
}

func TestWriteMediaSendsBase64(t *testing.T) {
	srv, seen := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"uri":"content://docbridge.local/media/images/1"}}`
	})
	file := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(file, []byte("Hello"), 0o644))

	out, err := run(t, srv, "write-media", "--mime", "image/jpeg", "Pictures/photo.jpg", file)
	require.NoError(t, err)
	assert.Contains(t, out, "content://docbridge.local/media/images/1")

	req := (*seen)[0]
	assert.Equal(t, "documents.writeMedia", req.ToolID)
	assert.Equal(t, "Pictures/photo.jpg", req.Params["path"])
	assert.Equal(t, "SGVsbG8=", req.Params["data"])
	assert.Equal(t, "image/jpeg", req.Params["mimeType"])
}

func TestReadDecodesToFile(t *testing.T) {
	srv, _ := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"data":"SGVsbG8=","type":"text/plain","size":5}}`
	})
	out := filepath.Join(t.TempDir(), "a.txt")

	_, err := run(t, srv, "read", "--out", out, "content://docbridge.local/tree/primary/a.txt")
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(content))
}

func TestReadCorruptDataLeavesNoFile(t *testing.T) {
	srv, _ := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"data":"***","type":"text/plain","size":3}}`
	})
	dir := t.TempDir()

	_, err := run(t, srv, "read", "--out", filepath.Join(dir, "a.txt"), "content://docbridge.local/tree/primary/a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed encoded data")

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReadToStdout(t *testing.T) {
	srv, _ := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"data":"SGVsbG8=","type":"text/plain","size":5}}`
	})

	out, err := run(t, srv, "read", "content://docbridge.local/tree/primary/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestToolFailureExitCode(t *testing.T) {
	srv, _ := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":false,"error":"no such document","kind":"not_found"}`
	})

	_, err := run(t, srv, "info", "content://docbridge.local/tree/primary/missing.txt")
	require.Error(t, err)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, exitToolFailure, exit.ExitCode())
	assert.Contains(t, err.Error(), "not_found: no such document")
}

func TestMediaList(t *testing.T) {
	srv, seen := fakeServer(t, func(types.ExecuteRequest) string {
		return `{"success":true,"data":{"items":[],"count":0}}`
	})

	_, err := run(t, srv, "media", "list", "--collection", "audio")
	require.NoError(t, err)
	assert.Equal(t, "media.list", (*seen)[0].ToolID)
	assert.Equal(t, "audio", (*seen)[0].Params["collection"])
}

func TestParseParamsRejectsBadPair(t *testing.T) {
	_, err := parseParams("", []string{"novalue"})
	assert.ErrorContains(t, err, "want key=value")

	_, err = parseParams("{", nil)
	assert.ErrorContains(t, err, "invalid --json")
}
