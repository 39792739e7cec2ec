package evbench

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"evhandler/pkg/types"
)

// printReport writes rep as an aligned, optionally coloured summary.
func printReport(w io.Writer, rep types.RunReport, colored bool) {
	head := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	warnc := color.New(color.FgYellow)
	for _, c := range []*color.Color{head, good, bad, warnc} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	head.Fprintf(w, "run %s\n", rep.RunID)
	fmt.Fprintf(w, "  listeners   %d\n", rep.Listeners)
	fmt.Fprintf(w, "  events      %d\n", rep.Events)
	fmt.Fprintf(w, "  producers   %d\n", rep.Producers)
	fmt.Fprintf(w, "  produced    %d\n", rep.Produced)
	fmt.Fprintf(w, "  accepted    %d\n", rep.Accepted)
	if rep.Dropped > 0 {
		warnc.Fprintf(w, "  dropped     %d\n", rep.Dropped)
	} else {
		fmt.Fprintf(w, "  dropped     %d\n", rep.Dropped)
	}
	fmt.Fprintf(w, "  delivered   %d\n", rep.Delivered)
	fmt.Fprintf(w, "  callbacks   %d\n", rep.Callbacks)
	fmt.Fprintf(w, "  elapsed     %s\n", rep.Elapsed)
	if secs := rep.Elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(w, "  throughput  %.0f dispatches/s\n", float64(rep.Delivered)/secs)
	}
	if rep.Drained {
		good.Fprintln(w, "  drained     yes")
	} else {
		bad.Fprintln(w, "  drained     no")
	}
}

func printReportJSON(w io.Writer, rep types.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
