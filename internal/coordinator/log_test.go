// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/log"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) entries(t *testing.T, msg string) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		if entry["message"] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	buf := &lockedBuffer{}
	log.Reconfigure(log.Config{Level: "debug", Output: buf})
	t.Cleanup(func() { log.Reconfigure(log.Config{Level: "info"}) })
	return buf
}

func TestLogsBandAndPoolFields(t *testing.T) {
	buf := captureLogs(t)
	h := newHarness(t, 2)
	h.enter("a", "")

	h.event("a", 0, 1, 1, t0)

	applied := buf.entries(t, "band applied")
	require.Len(t, applied, 1)
	assert.Equal(t, "a", applied[0][log.FieldItemID])
	assert.Equal(t, twoBand.BandName(0), applied[0][log.FieldOldBand])
	assert.Equal(t, twoBand.BandName(1), applied[0][log.FieldNewBand])
	assert.EqualValues(t, 1, applied[0][log.FieldBand])
	assert.EqualValues(t, 0.5, applied[0][log.FieldFraction])

	acquired := buf.entries(t, "handle acquired")
	require.Len(t, acquired, 1)
	assert.EqualValues(t, 1, acquired[0][log.FieldFree])

	h.event("a", 1, 0, 2, t0.Add(1))
	released := buf.entries(t, "handle released")
	require.Len(t, released, 1)
	assert.EqualValues(t, 2, released[0][log.FieldFree])
}
