package aggregate

import "strings"

// Mode is how per-cluster output is merged
type Mode string

const (
	// ModeTabular merges column-aligned tables under one header
	ModeTabular Mode = "tabular"

	// ModeStream concatenates prefixed lines cluster by cluster
	ModeStream Mode = "stream"
)

var tabularVerbs = map[string]bool{
	"get":           true,
	"top":           true,
	"api-resources": true,
	"events":        true,
}

// flags that consume the following argument when not written as --flag=value
var valueFlags = map[string]bool{
	"-n": true, "--namespace": true,
	"--context": true, "--cluster": true, "--user": true,
	"-s": true, "--server": true,
	"--kubeconfig": true, "--request-timeout": true,
	"--as": true, "--as-group": true, "--as-uid": true,
	"--token": true, "--certificate-authority": true,
	"--client-certificate": true, "--client-key": true,
	"--tls-server-name": true, "--cache-dir": true,
	"-v": true, "--v": true,
	"-l": true, "--selector": true,
	"--field-selector": true, "--sort-by": true,
	"-c": true, "--container": true,
	"--template": true,
}

// Classify picks the merge mode for a kubectl argument list. Commands outside
// the known tabular verbs, and tabular verbs whose output flags change the
// table shape, are treated as streams.
func Classify(args []string) Mode {
	verb := Verb(args)
	if !tabularVerbs[verb] {
		return ModeStream
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return ModeTabular
		case arg == "--no-headers" || arg == "--no-headers=true":
			return ModeStream
		case arg == "-w" || arg == "--watch" || arg == "--watch-only" ||
			strings.HasPrefix(arg, "--watch=true") || strings.HasPrefix(arg, "--watch-only=true"):
			return ModeStream
		case arg == "-o" || arg == "--output":
			if i+1 < len(args) {
				i++
				if !tabularOutput(args[i]) {
					return ModeStream
				}
			}
		case strings.HasPrefix(arg, "--output="):
			if !tabularOutput(strings.TrimPrefix(arg, "--output=")) {
				return ModeStream
			}
		case strings.HasPrefix(arg, "-o") && !strings.HasPrefix(arg, "--"):
			if !tabularOutput(strings.TrimPrefix(strings.TrimPrefix(arg, "-o"), "=")) {
				return ModeStream
			}
		}
	}

	return ModeTabular
}

func tabularOutput(format string) bool {
	return format == "wide" || strings.HasPrefix(format, "custom-columns")
}

// Verb returns the first positional argument, skipping flags and their values
func Verb(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return arg
		}
		if !strings.Contains(arg, "=") && valueFlags[arg] {
			i++
		}
	}
	return ""
}
