package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HintNumFilesPerDir != 64 {
		t.Errorf("expected default hint of 64, got %d", cfg.HintNumFilesPerDir)
	}
	if cfg.NotifySleepMS != 0 {
		t.Errorf("expected default notify sleep of 0, got %d", cfg.NotifySleepMS)
	}
	if !cfg.CaseSensitive {
		t.Error("expected case sensitivity to default to true")
	}
}

func TestBiggestTimeoutDefaultsTo24Hours(t *testing.T) {
	cfg := RootConfiguration{}
	if got := cfg.BiggestTimeout(); got != 24*time.Hour {
		t.Errorf("expected 24h default, got %s", got)
	}
}

func TestBiggestTimeoutPrefersLowerIdleReapAge(t *testing.T) {
	cfg := RootConfiguration{
		GCInterval:  time.Hour,
		IdleReapAge: 10 * time.Minute,
	}
	if got := cfg.BiggestTimeout(); got != 10*time.Minute {
		t.Errorf("expected idle reap age to take precedence, got %s", got)
	}
}

func TestBiggestTimeoutIgnoresHigherIdleReapAge(t *testing.T) {
	cfg := RootConfiguration{
		GCInterval:  10 * time.Minute,
		IdleReapAge: time.Hour,
	}
	if got := cfg.BiggestTimeout(); got != 10*time.Minute {
		t.Errorf("expected gc_interval to win when smaller, got %s", got)
	}
}
