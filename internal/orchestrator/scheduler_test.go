package orchestrator

import (
	"testing"
	"time"
)

func TestNextIntervalLiveUsesLiveInterval(t *testing.T) {
	got := nextInterval(DefaultCadence, StatusLive, time.Now())
	if got != DefaultCadence.LiveInterval {
		t.Errorf("expected live interval %v, got %v", DefaultCadence.LiveInterval, got)
	}
}

func TestNextIntervalFinalStopsPolling(t *testing.T) {
	got := nextInterval(DefaultCadence, StatusFinal, time.Now())
	if got != 0 {
		t.Errorf("expected 0 to signal stop, got %v", got)
	}
}

func TestNextIntervalUpcomingFarOutUsesBaseInterval(t *testing.T) {
	commence := time.Now().Add(6 * time.Hour)
	got := nextInterval(DefaultCadence, StatusUpcoming, commence)
	if got != DefaultCadence.UpcomingInterval {
		t.Errorf("expected base upcoming interval %v, got %v", DefaultCadence.UpcomingInterval, got)
	}
}

func TestNextIntervalUpcomingNearCommenceRampsUp(t *testing.T) {
	commence := time.Now().Add(5 * time.Minute)
	got := nextInterval(DefaultCadence, StatusUpcoming, commence)
	if got != time.Minute {
		t.Errorf("expected 1-minute rampup poll inside the pre-game window, got %v", got)
	}
}
