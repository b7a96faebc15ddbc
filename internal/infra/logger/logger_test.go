package logger

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "dev"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewBuildsLogger(t *testing.T) {
	for _, env := range []string{"dev", "local", "prod"} {
		log, err := New("INFO", env)
		if err != nil {
			t.Fatalf("new logger for %s: %v", env, err)
		}
		if log.Core().Enabled(-1) {
			t.Fatalf("expected debug disabled at info level for %s", env)
		}
	}
}
