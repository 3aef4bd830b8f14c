package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(buf, "debug", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.WithField("ledger_id", 7).Debug("recomputed ledger")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode json log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "recomputed ledger" || line["level"] != "debug" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if line["ledger_id"] != float64(7) {
		t.Fatalf("expected ledger_id field, got %v", line["ledger_id"])
	}
}

func TestNewDefaultsToWarnText(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(buf, "", "")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}
