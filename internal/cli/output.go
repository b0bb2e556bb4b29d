package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/state"
)

// Output formats accepted by -o
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (valid: text, json, yaml)", format)
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("invalid output format: %s", format)
}

func writeReports(w io.Writer, format string, reports []domain.StatusReport) error {
	if format != OutputText {
		return writeStructured(w, format, reports)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tDOWNLOADED\tSIZE\tPATH")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Status,
			yesNo(r.FullyDownloaded),
			formatSize(r.ByteSize),
			r.Path,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range reports {
		switch {
		case r.Status.Undetermined() && r.Error != "":
			fmt.Fprintf(w, "%s: sync state undetermined (%s): %s\n", r.Path, r.Status, r.Error)
		case r.Status.Undetermined():
			fmt.Fprintf(w, "%s: sync state undetermined (%s)\n", r.Path, r.Status)
		case r.Error != "":
			fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error)
		}
	}
	return nil
}

func writeObservations(w io.Writer, format string, obs []state.Observation) error {
	if format != OutputText {
		if obs == nil {
			obs = []state.Observation{}
		}
		return writeStructured(w, format, obs)
	}

	if len(obs) == 0 {
		fmt.Fprintln(w, "No observations recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBSERVED\tPROVIDER\tSTATUS\tDOWNLOADED\tPATH")
	for _, o := range obs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.ObservedAt.Local().Format(time.DateTime),
			o.Provider,
			o.Status,
			yesNo(o.FullyDownloaded),
			o.Path,
		)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatSize formats bytes into human-readable format
func formatSize(size *int64) string {
	if size == nil {
		return "-"
	}

	const unit = 1024
	bytes := *size
	if bytes < unit {
		return strconv.FormatInt(bytes, 10) + " B"
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// undeterminedError collects the paths whose state could not be settled
func undeterminedError(reports []domain.StatusReport) error {
	var paths []string
	var cause error
	for _, r := range reports {
		if r.Status.Undetermined() {
			paths = append(paths, r.Path)
			if cause == nil {
				cause = r.Status.Err()
			}
		}
	}
	if len(paths) == 0 {
		return nil
	}
	if errors.Is(cause, domain.ErrAmbiguous) {
		return fmt.Errorf("%s: %w", strings.Join(paths, ", "), cause)
	}
	return fmt.Errorf("sync state undetermined: %s: %w", strings.Join(paths, ", "), cause)
}
