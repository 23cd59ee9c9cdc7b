package qdrantindex

import (
	"strings"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

func TestStagingNameIsFreshPerRun(t *testing.T) {
	base := "archivista-docs"
	first := stagingName(base, time.Unix(100, 0))
	second := stagingName(base, time.Unix(100, 1))

	if !strings.HasPrefix(first, base+"-") {
		t.Fatalf("staging name %q does not carry the serving name", first)
	}
	if first == base {
		t.Fatal("staging collection must not shadow the serving name")
	}
	if first == second {
		t.Fatalf("two runs produced the same staging collection %q", first)
	}
}

func TestPlanPromotionFirstPublish(t *testing.T) {
	p := planPromotion(nil, "archivista-docs", false)
	if p.dropBare || p.previous != "" {
		t.Fatalf("first publish should have nothing to clean up: %+v", p)
	}
}

func TestPlanPromotionReplacesPublishedCollection(t *testing.T) {
	aliases := []*qdrant.AliasDescription{
		{AliasName: "other", CollectionName: "other-123"},
		{AliasName: "archivista-docs", CollectionName: "archivista-docs-456"},
	}
	p := planPromotion(aliases, "archivista-docs", false)
	if p.dropBare {
		t.Fatal("no plain collection occupies the name, nothing bare to drop")
	}
	if p.previous != "archivista-docs-456" {
		t.Fatalf("previous collection = %q, want archivista-docs-456", p.previous)
	}
}

func TestPlanPromotionDropsBareCollection(t *testing.T) {
	// A collection created under the serving name itself blocks the
	// alias and must be dropped before the flip.
	p := planPromotion(nil, "archivista-docs", true)
	if !p.dropBare {
		t.Fatal("expected the bare collection to be scheduled for removal")
	}
}
