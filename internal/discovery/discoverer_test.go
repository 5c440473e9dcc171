package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryankumar/multikube/internal/util"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inventory maps "profile/region" to the clusters visible there
type inventory map[string][]Descriptor

func (inv inventory) provider(failing ...string) Provider {
	fail := make(map[string]bool)
	for _, f := range failing {
		fail[f] = true
	}
	return ProviderFunc(func(ctx context.Context, profile, region string) ([]Descriptor, error) {
		key := profile + "/" + region
		if fail[key] {
			return nil, errors.New("AccessDeniedException")
		}
		return inv[key], nil
	})
}

func TestDiscoverer_Discover(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := inventory{
		"prod/us-east-1": {
			{Name: "prod-b-001", Account: "111", Profile: "prod", Region: "us-east-1"},
			{Name: "prod-a-001", Account: "111", Profile: "prod", Region: "us-east-1"},
		},
		"prod/eu-west-1": {
			{Name: "prod-c-001", Account: "111", Profile: "prod", Region: "eu-west-1"},
		},
		// Same account visible through a second profile: deduplicated.
		"admin/us-east-1": {
			{Name: "prod-a-001", Account: "111", Profile: "admin", Region: "us-east-1"},
			{Name: "dev-a-001", Account: "222", Profile: "admin", Region: "us-east-1"},
		},
	}

	tests := []struct {
		name         string
		failing      []string
		wantNames    []string
		wantFailures int
	}{
		{
			name:      "all pairs succeed",
			wantNames: []string{"dev-a-001", "prod-a-001", "prod-b-001", "prod-c-001"},
		},
		{
			name:         "failed pair is skipped",
			failing:      []string{"prod/eu-west-1"},
			wantNames:    []string{"dev-a-001", "prod-a-001", "prod-b-001"},
			wantFailures: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiscoverer(inv.provider(tt.failing...), testLogger(),
				WithClock(func() time.Time { return fixed }),
				WithParallelism(2))

			result, err := d.Discover(context.Background(),
				[]string{"prod", "admin"},
				[]string{"us-east-1", "eu-west-1"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Queried != 4 {
				t.Errorf("expected 4 queries, got %d", result.Queried)
			}
			if len(result.Failures) != tt.wantFailures {
				t.Errorf("expected %d failures, got %d", tt.wantFailures, len(result.Failures))
			}

			names := make([]string, len(result.Clusters))
			for i, c := range result.Clusters {
				names[i] = c.Name
				if !c.DiscoveredAt.Equal(fixed) {
					t.Errorf("cluster %s: expected discoveredAt %v, got %v", c.Name, fixed, c.DiscoveredAt)
				}
			}
			if len(names) != len(tt.wantNames) {
				t.Fatalf("expected clusters %v, got %v", tt.wantNames, names)
			}
			for i := range names {
				if names[i] != tt.wantNames[i] {
					t.Errorf("cluster %d: expected %s, got %s", i, tt.wantNames[i], names[i])
				}
			}

			// The first profile listed wins on duplicates.
			for _, c := range result.Clusters {
				if c.Name == "prod-a-001" && c.Profile != "prod" {
					t.Errorf("expected prod-a-001 from profile prod, got %s", c.Profile)
				}
			}

			for _, f := range result.Failures {
				if !errors.Is(f, util.ErrDiscovery) {
					t.Errorf("failure should match ErrDiscovery: %v", f)
				}
			}
		})
	}
}

func TestDiscoverer_SameNameDifferentAccounts(t *testing.T) {
	inv := inventory{
		"a/us-east-1": {{Name: "shared", Account: "111"}},
		"b/us-east-1": {{Name: "shared", Account: "222"}},
	}

	result, err := NewDiscoverer(inv.provider(), testLogger()).
		Discover(context.Background(), []string{"a", "b"}, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Clusters) != 2 {
		t.Fatalf("expected both accounts kept, got %d clusters", len(result.Clusters))
	}
	if result.Clusters[0].Account != "111" || result.Clusters[1].Account != "222" {
		t.Errorf("expected accounts ordered 111, 222, got %s, %s",
			result.Clusters[0].Account, result.Clusters[1].Account)
	}
}

func TestDiscoverer_EmptyIsValid(t *testing.T) {
	result, err := NewDiscoverer(inventory{}.provider(), testLogger()).
		Discover(context.Background(), []string{"prod"}, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("zero clusters must not be an error: %v", err)
	}
	if len(result.Clusters) != 0 {
		t.Errorf("expected no clusters, got %d", len(result.Clusters))
	}
}

func TestDiscoverer_AllPairsFail(t *testing.T) {
	_, err := NewDiscoverer(inventory{}.provider("prod/us-east-1", "prod/eu-west-1"), testLogger()).
		Discover(context.Background(), []string{"prod"}, []string{"us-east-1", "eu-west-1"})
	if err == nil {
		t.Fatal("expected error when every query fails")
	}
	if !errors.Is(err, util.ErrDiscovery) {
		t.Errorf("expected ErrDiscovery, got %v", err)
	}
}

func TestDiscoverer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	provider := ProviderFunc(func(ctx context.Context, profile, region string) ([]Descriptor, error) {
		calls.Add(1)
		cancel()
		return []Descriptor{{Name: "x", Account: "1"}}, nil
	})

	_, err := NewDiscoverer(provider, testLogger(), WithParallelism(1)).
		Discover(ctx, []string{"a", "b", "c"}, []string{"us-east-1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected queries to stop after cancellation, got %d calls", calls.Load())
	}
}

func TestDiscoverer_NoPairs(t *testing.T) {
	result, err := NewDiscoverer(inventory{}.provider(), testLogger()).
		Discover(context.Background(), nil, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Queried != 0 || len(result.Clusters) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
