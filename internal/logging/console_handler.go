package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2026-03-01 10:00:00 WARN  [harvest] #1a2b3c4d u-42/CACHING_ASSETS avatar skipped  username=ann error=...
//
// Component, run, entry and stage attributes are lifted out of the field list
// into the prefix. Run IDs are shortened to their first eight characters.
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// prefix holds the attributes rendered ahead of the message.
type prefix struct {
	component string
	runID     string
	entryID   string
	stage     string
}

func (p *prefix) take(key string, value slog.Value) bool {
	var slot *string
	switch key {
	case FieldComponent:
		slot = &p.component
	case FieldRunID:
		slot = &p.runID
	case FieldEntryID:
		slot = &p.entryID
	case FieldStage:
		slot = &p.stage
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(plainString(value))
	}
	return true
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&fields, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})

	var head prefix
	body := fields[:0]
	for _, f := range fields {
		if !head.take(f.key, f.value) {
			body = append(body, f)
		}
	}
	body = dedupeKVsByKey(body)

	var buf bytes.Buffer
	buf.Grow(96 + len(body)*24)
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if head.component != "" {
		buf.WriteString(" [")
		buf.WriteString(head.component)
		buf.WriteByte(']')
	}
	if head.runID != "" {
		buf.WriteString(" #")
		buf.WriteString(shortID(head.runID))
	}
	if label := subject(head.entryID, head.stage); label != "" {
		buf.WriteByte(' ')
		buf.WriteString(label)
	}
	buf.WriteByte(' ')
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if len(body) > 0 {
		buf.WriteByte(' ')
	}
	for _, f := range body {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(f.value))
	}
	if h.addSource {
		if src := recordSource(record); src != nil && src.File != "" {
			buf.WriteString(" (")
			buf.WriteString(filepath.Base(src.File))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(src.Line))
			buf.WriteByte(')')
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func subject(entryID, stage string) string {
	switch {
	case entryID != "" && stage != "":
		return entryID + "/" + stage
	case entryID != "":
		return entryID
	default:
		return stage
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		mu:        h.mu,
		writer:    h.writer,
		level:     h.level,
		addSource: h.addSource,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

type kv struct {
	key   string
	value slog.Value
}

// dedupeKVsByKey keeps the first position of each key and the last value.
func dedupeKVsByKey(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	positions := make(map[string]int, len(fields))
	out := make([]kv, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if pos, ok := positions[f.key]; ok {
			out[pos].value = f.value
			continue
		}
		positions[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func flattenAttrs(dst *[]kv, groups []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, groups, attr)
	}
}

func flattenAttr(dst *[]kv, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := groups
		if attr.Key != "" {
			next = append(append([]string(nil), groups...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		parts := append(append([]string(nil), groups...), key)
		if key == "" {
			parts = groups
		}
		key = strings.Join(parts, ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

// levelLabel pads to five characters so messages line up.
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

// recordSource mirrors slog.Record.Source (Go 1.25+) for older toolchains.
func recordSource(r slog.Record) *slog.Source {
	if r.PC == 0 {
		return nil
	}
	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()
	return &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
}
