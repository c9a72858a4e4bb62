package sportconfig_test

import (
	"testing"

	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestValidateMarketContract(t *testing.T) {
	r := sportconfig.NewRegistry()

	if err := r.ValidateMarketContract(models.SportNFL, models.MarketSpread, models.SettlementFullGame); err != nil {
		t.Errorf("NFL spread/full_game should be legal: %v", err)
	}
	if err := r.ValidateMarketContract(models.Sport("XFL"), models.MarketSpread, models.SettlementFullGame); err == nil {
		t.Error("unknown sport should fail contract validation")
	}
}

func TestKeyNumbersForNFL(t *testing.T) {
	r := sportconfig.NewRegistry()
	nums, buffer, err := r.KeyNumbersFor(models.SportNFL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nums) == 0 || buffer <= 0 {
		t.Error("expected NFL to have key numbers and a positive buffer")
	}
}

func TestOverrideUnknownSportRejected(t *testing.T) {
	r := sportconfig.NewRegistry()
	if err := r.Override(models.Sport("XFL"), sportconfig.Config{}); err == nil {
		t.Error("expected override of unknown sport to fail")
	}
}
