package bench

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Report writes results as an aligned table.
func Report(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "case\titerations\tchecks\tmin\tmean\tmax\tper op\tsuccess\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%.1f%%\t\n",
			r.Case.Name(),
			r.Iterations,
			r.Checks,
			r.Min,
			r.Mean,
			r.Max,
			r.PerOperation(),
			100*r.SuccessRatio(),
		)
	}
	return tw.Flush()
}
