// Package output renders multikube results.
//
// Three formats are supported. Text renders merged tables kubectl-style
// through tablewriter, prefixes stream lines with their cluster name, and
// writes mismatch warnings and passthrough stderr to a separate writer. JSON
// and YAML encode the result document as-is for scripting.
//
//	f := output.NewFormatter(output.FormatText,
//	    output.WithNoColor(noColor),
//	    output.WithErrOut(os.Stderr),
//	)
//	f.Format(os.Stdout, report)
//
// Colors are enabled only when the destination is a terminal and
// WithNoColor is not set.
package output
