package aggregate

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Mode
	}{
		{name: "get pods", args: []string{"get", "pods"}, want: ModeTabular},
		{name: "get wide", args: []string{"get", "pods", "-o", "wide"}, want: ModeTabular},
		{name: "get owide", args: []string{"get", "pods", "-owide"}, want: ModeTabular},
		{name: "get custom columns", args: []string{"get", "pods", "--output=custom-columns=NAME:.metadata.name"}, want: ModeTabular},
		{name: "namespace flag before verb", args: []string{"-n", "kube-system", "get", "pods"}, want: ModeTabular},
		{name: "top nodes", args: []string{"top", "nodes"}, want: ModeTabular},
		{name: "api-resources", args: []string{"api-resources"}, want: ModeTabular},
		{name: "events", args: []string{"events", "-A"}, want: ModeTabular},
		{name: "get yaml", args: []string{"get", "pods", "-o", "yaml"}, want: ModeStream},
		{name: "get json equals", args: []string{"get", "pods", "--output=json"}, want: ModeStream},
		{name: "get name short", args: []string{"get", "pods", "-oname"}, want: ModeStream},
		{name: "get no headers", args: []string{"get", "pods", "--no-headers"}, want: ModeStream},
		{name: "get watch", args: []string{"get", "pods", "-w"}, want: ModeStream},
		{name: "logs", args: []string{"logs", "deploy/web"}, want: ModeStream},
		{name: "describe", args: []string{"describe", "node", "x"}, want: ModeStream},
		{name: "unknown verb", args: []string{"frobnicate"}, want: ModeStream},
		{name: "no args", args: nil, want: ModeStream},
		{name: "flag value that looks like a verb", args: []string{"--context", "get", "logs", "x"}, want: ModeStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.args); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.args, got, tt.want)
			}
		})
	}
}

func TestVerb(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"get", "pods"}, want: "get"},
		{args: []string{"--namespace=x", "logs", "p"}, want: "logs"},
		{args: []string{"-A", "get"}, want: "get"},
		{args: []string{"--", "get"}, want: ""},
		{args: nil, want: ""},
	}

	for _, tt := range tests {
		if got := Verb(tt.args); got != tt.want {
			t.Errorf("Verb(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
