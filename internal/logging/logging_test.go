package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSplitStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	log, err := New(LevelNormal, &out, &errOut)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("built site")
	log.Error("page failed")
	_ = log.Sync()

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug record written at normal level")
	}
	if !strings.Contains(out.String(), "INFO") || !strings.Contains(out.String(), "built site") {
		t.Errorf("stdout = %q", out.String())
	}
	if strings.Contains(out.String(), "page failed") {
		t.Error("error record written to stdout")
	}
	if !strings.Contains(errOut.String(), "ERROR") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestLevels(t *testing.T) {
	var out bytes.Buffer
	log, err := New(LevelDebug, &out, &out)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("shown")
	if !strings.Contains(out.String(), "shown") {
		t.Error("debug level should write debug records")
	}

	out.Reset()
	log, err = New(LevelNone, &out, &out)
	if err != nil {
		t.Fatal(err)
	}
	log.Error("quiet")
	if out.Len() != 0 {
		t.Errorf("none level wrote %q", out.String())
	}

	if _, err := New("loud", &out, &out); err == nil {
		t.Error("expected error for unknown level")
	}
}
