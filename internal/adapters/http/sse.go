package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// sseWriter streams answer increments as server-sent events. Each increment is
// one `data:` event carrying a JSON object; the stream ends with `data: [DONE]`.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming is not supported by response writer")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) started() bool { return s.opened }

func (s *sseWriter) open() {
	if s.opened {
		return
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.opened = true
}

func (s *sseWriter) emitDelta(delta string) error {
	s.open()
	return s.event(struct {
		Delta string `json:"delta"`
	}{Delta: delta})
}

func (s *sseWriter) emitError(err error) error {
	s.open()
	return s.event(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func (s *sseWriter) event(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) done() error {
	s.open()
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
