package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" || info.Commit == "" || info.GoVersion == "" {
		t.Errorf("expected populated info, got %+v", info)
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("Platform = %s, want %s", info.Platform, expectedPlatform)
	}
}

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		info Info
		bi   debug.BuildInfo
		want Info
	}{
		{
			name: "fills unset values",
			info: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
			bi: debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				},
			},
			want: Info{Version: "v1.2.0", Commit: "abc123", BuildTime: "2026-01-02T03:04:05Z"},
		},
		{
			name: "ldflags win",
			info: Info{Version: "v2.0.0", Commit: "def456", BuildTime: "yesterday"},
			bi: debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
			},
			want: Info{Version: "v2.0.0", Commit: "def456", BuildTime: "yesterday"},
		},
		{
			name: "devel build keeps dev",
			info: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
			bi:   debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info
			fromBuildInfo(&got, &tt.bi)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abc123"}
	output := info.String()

	for _, want := range []string{"MultiKube CLI", "v1.0.0", "abc123"} {
		if !strings.Contains(output, want) {
			t.Errorf("String output should contain %q:\n%s", want, output)
		}
	}
}
