package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewSlogRespectsConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	sl := NewSlog(&zl)

	sl.Debug("quiet")
	sl.Info("also quiet")
	sl.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("below-level records should be dropped: %s", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn record missing: %s", out)
	}
}

func TestNewSlogFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug"}, &buf)
	sl := NewSlog(&zl)

	sl.WithGroup("tile").Info("fetched", "key", "temperature/3/4/2", "age", 250*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, `"tile.key":"temperature/3/4/2"`) {
		t.Fatalf("expected group-prefixed key, got: %s", out)
	}
	if !strings.Contains(out, `"tile.age":250`) {
		t.Fatalf("expected duration attr, got: %s", out)
	}
}

func TestNewSlogWithAttrsDoesNotShareBackingArray(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug"}, &buf)
	sl := NewSlog(&zl)

	base := sl.With("a", 1)
	l1 := base.With("b", 2)
	l2 := base.With("c", 3)

	l1.Info("one")
	l2.Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if strings.Contains(lines[1], `"b":2`) {
		t.Fatalf("sibling logger leaked attrs: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"c":3`) {
		t.Fatalf("expected own attr on sibling logger: %s", lines[1])
	}
}
