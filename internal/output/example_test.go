package output_test

import (
	"os"

	"github.com/aryankumar/multikube/internal/aggregate"
	"github.com/aryankumar/multikube/internal/output"
)

func ExampleTableFormatter_Format() {
	report := &aggregate.Report{
		Mode: aggregate.ModeStream,
		Lines: []aggregate.Line{
			{Cluster: "prod-a-001", Text: "Kubernetes control plane is running"},
			{Cluster: "dev-a-001", Text: "ERROR exit code 1: error: forbidden", Diagnostic: true},
		},
	}

	f := output.NewFormatter(output.FormatText, output.WithNoColor(true), output.WithErrOut(os.Stdout))
	_ = f.Format(os.Stdout, report)
	// Output:
	// prod-a-001: Kubernetes control plane is running
	// dev-a-001: ERROR exit code 1: error: forbidden
}
