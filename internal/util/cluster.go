package util

import "strings"

// ShortClusterName extracts the short cluster name from an EKS ARN or returns the original name.
// EKS ARNs have the format arn:<partition>:eks:<region>:<account>:cluster/<name>.
func ShortClusterName(name string) string {
	if !strings.HasPrefix(name, "arn:") {
		return name
	}

	if idx := strings.LastIndex(name, "cluster/"); idx != -1 {
		return name[idx+len("cluster/"):]
	}

	if idx := strings.LastIndex(name, "/"); idx != -1 {
		return name[idx+1:]
	}

	if idx := strings.LastIndex(name, ":"); idx != -1 {
		return name[idx+1:]
	}

	return name
}

// AccountFromARN returns the account id segment of an ARN, or "" if name is not an ARN.
func AccountFromARN(name string) string {
	if !strings.HasPrefix(name, "arn:") {
		return ""
	}
	parts := strings.SplitN(name, ":", 6)
	if len(parts) < 6 {
		return ""
	}
	return parts[4]
}

// NormalizeClusterNames trims, shortens ARNs and drops empty or repeated entries,
// preserving the first occurrence order.
func NormalizeClusterNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = ShortClusterName(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
