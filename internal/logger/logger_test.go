package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewStderrOnly(t *testing.T) {
	lg, closer := Config{}.New()
	if lg == nil {
		t.Fatal("expected a logger")
	}
	if closer != nil {
		t.Fatal("no file configured, no closer expected")
	}
	lg.Info("hello")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dormant.log")
	lg, closer := Config{Path: path, Level: "debug"}.New()
	if closer == nil {
		t.Fatal("expected a closer for the file writer")
	}
	lg.Debug("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created at %s: %v", path, err)
	}
}

func TestLevelParsing(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG", "info": "INFO", "warn": "WARN",
		"error": "ERROR", "": "INFO", "bogus": "INFO",
	}
	for in, want := range cases {
		if got := (Config{Level: in}).level().String(); got != want {
			t.Fatalf("level(%q) = %s, want %s", in, got, want)
		}
	}
}
