package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestEventFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 5, 4, 13, 14, 15, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "access denied",
		Data:    logrus.Fields{"user_id": "u1", "project_id": "p1"},
	}

	out, err := (&EventFormatter{SystemName: "synergy"}).Format(entry)
	if err != nil {
		t.Fatal(err)
	}

	want := "Date: 2026-05-04, Time: 13:14:15, Event Source: synergy, Event Type: WARNING, " +
		"Message: access denied, project_id=p1, user_id=u1\n"
	if string(out) != want {
		t.Errorf("Format() =\n%q\nwant\n%q", out, want)
	}
}

func TestInitWritesRotatingFile(t *testing.T) {
	defer Logger.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "logs", "synergy.log")
	if err := Init(Config{Level: "debug", Format: "json", File: path}, "synergy"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Logger.WithField("k", "v").Debug("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestInitRejectsBadConfig(t *testing.T) {
	if err := Init(Config{Level: "loud"}, "x"); err == nil {
		t.Error("expected error for bad level")
	}
	if err := Init(Config{Format: "xml"}, "x"); err == nil {
		t.Error("expected error for bad format")
	}
}
