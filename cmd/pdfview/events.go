package main

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Events are line-delimited JSON so a supervising process can stream them.
type outputEvent struct {
	Type     string           `json:"type"`
	Progress *progressPayload `json:"progress,omitempty"`
	Render   *renderPayload   `json:"render,omitempty"`
	Payload  map[string]any   `json:"payload,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type progressPayload struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

type renderPayload struct {
	Page    int `json:"page"`
	Mounted int `json:"mounted"`
}

type eventWriter struct {
	enc *json.Encoder
	w   *bufio.Writer
	mu  sync.Mutex
}

func newEventWriter(writer io.Writer) *eventWriter {
	buf := bufio.NewWriter(writer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &eventWriter{enc: enc, w: buf}
}

func (e *eventWriter) emit(ev outputEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(ev)
	_ = e.w.Flush()
}

func (e *eventWriter) Progress(p progressPayload) {
	if p.Percent <= 0 && p.Total > 0 {
		p.Percent = float64(p.Current) / float64(p.Total) * 100
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	e.emit(outputEvent{Type: "progress", Progress: &p})
}

func (e *eventWriter) Render(page, mounted int) {
	e.emit(outputEvent{Type: "render", Render: &renderPayload{Page: page, Mounted: mounted}})
}

func (e *eventWriter) Done(payload map[string]any) {
	e.emit(outputEvent{Type: "done", Payload: payload})
}

func (e *eventWriter) Fail(err error) {
	e.emit(outputEvent{Type: "error", Error: err.Error()})
}
