package progress

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncWriterAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.jsonl")
	w := NewSyncWriter(path)

	require.NoError(t, w.Append(Event{Kind: "start", Step: 1, Total: 2, Label: "nodejs"}))
	require.NoError(t, w.Append(Event{Kind: "done", Step: 1, Total: 2, Label: "nodejs"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var events []Event
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	require.Equal(t, "start", events[0].Kind)
	require.Equal(t, "done", events[1].Kind)
}

type recordingHandler struct{ calls []string }

func (r *recordingHandler) Start(step, total int, label string) { r.calls = append(r.calls, "start") }
func (r *recordingHandler) Update(message string)                { r.calls = append(r.calls, "update") }
func (r *recordingHandler) Done(step, total int, label string)  { r.calls = append(r.calls, "done") }
func (r *recordingHandler) Fail(step, total int, label string, err error) {
	r.calls = append(r.calls, "fail")
}
func (r *recordingHandler) Sub(prefix string) Handler { return r }

func TestHandlerMirrorForwardsAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.jsonl")
	inner := &recordingHandler{}
	h := Mirror(inner, path)

	h.Start(1, 1, "nodejs")
	h.Done(1, 1, "nodejs")

	require.Equal(t, []string{"start", "done"}, inner.calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"start"`)
	require.Contains(t, string(data), `"kind":"done"`)
}
