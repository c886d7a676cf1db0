package llm

import (
	"math"
	"testing"
)

func TestEstimateCostKnownModel(t *testing.T) {
	// For a known model, 1000 input + 1000 output tokens costs exactly
	// the sum of the per-1K rates.
	p := defaultModelPricing["gpt-4o-mini"]
	want := p.InputPer1K + p.OutputPer1K

	got := EstimateCost(1000, 1000, "gpt-4o-mini")
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EstimateCost = %g, want %g", got, want)
	}
}

func TestEstimateCostUnknownModelUsesDefault(t *testing.T) {
	got := EstimateCost(1000, 1000, "some-model-nobody-heard-of")
	want := defaultPricing.InputPer1K + defaultPricing.OutputPer1K
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EstimateCost = %g, want default %g", got, want)
	}
}

func TestEstimateCostZeroTokens(t *testing.T) {
	if got := EstimateCost(0, 0, "gpt-4o"); got != 0 {
		t.Errorf("EstimateCost(0,0) = %g, want 0", got)
	}
}

func TestEstimateCostScalesLinearly(t *testing.T) {
	one := EstimateCost(1000, 1000, "claude-3-5-sonnet-20241022")
	ten := EstimateCost(10000, 10000, "claude-3-5-sonnet-20241022")
	if math.Abs(ten-10*one) > 1e-12 {
		t.Errorf("cost does not scale linearly: %g vs %g", ten, 10*one)
	}
}

func TestPricingLoaderDefaultsWithoutS3(t *testing.T) {
	loader := NewPricingLoader(PricingLoaderConfig{})

	got := loader.EstimateCost(1000, 1000, "gpt-4o-mini")
	want := EstimateCost(1000, 1000, "gpt-4o-mini")
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("loader cost = %g, static cost = %g", got, want)
	}

	// Unknown model falls back to the conservative default rate
	unknown := loader.GetModelPricing("nope")
	if unknown != defaultPricing {
		t.Errorf("unknown model pricing = %+v, want default", unknown)
	}
}
