package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aryankumar/multikube/internal/util"
)

func TestRegionStore_RoundTrip(t *testing.T) {
	store := NewRegionStore(filepath.Join(t.TempDir(), "regions.yaml"))

	regions, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("expected no regions, got %v", regions)
	}

	if err := store.Save([]string{"us-east-1", " eu-west-1 "}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	regions, err = store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(regions, []string{"us-east-1", "eu-west-1"}) {
		t.Errorf("unexpected regions: %v", regions)
	}
}

func TestRegionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	if err := os.WriteFile(path, []byte("regions: [unterminated"), 0o600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	regions, err := NewRegionStore(path).Load()
	if !errors.Is(err, util.ErrCacheCorrupt) {
		t.Errorf("expected ErrCacheCorrupt, got %v", err)
	}
	if regions != nil {
		t.Errorf("expected nil regions, got %v", regions)
	}
}

func TestRegionStore_SaveEmpty(t *testing.T) {
	store := NewRegionStore(filepath.Join(t.TempDir(), "regions.yaml"))
	if err := store.Save([]string{" ", ""}); !errors.Is(err, util.ErrNoRegions) {
		t.Errorf("expected ErrNoRegions, got %v", err)
	}
}

func TestParseRegionList(t *testing.T) {
	got := ParseRegionList("us-east-1, eu-west-1,,ap-south-1 ")
	want := []string{"us-east-1", "eu-west-1", "ap-south-1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRegionList() = %v, want %v", got, want)
	}
}
