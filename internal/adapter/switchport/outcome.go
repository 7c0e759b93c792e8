package switchport

import (
	"errors"
	"strings"

	"golang-switchport/internal/types"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

// ErrorDetail is the failure surface shown to the caller.
type ErrorDetail struct {
	Message string `json:"msg"`
	Code    int    `json:"code"`
}

// Report is the caller-facing record of a reconciliation pass.
type Report struct {
	Interface string                   `json:"interface"`
	Changed   bool                     `json:"changed"`
	Action    types.Action             `json:"action"`
	DryRun    bool                     `json:"dry_run"`
	ChangeSet types.ChangeSet          `json:"change_set"`
	Result    *types.InterfaceResource `json:"result"`
	Diff      string                   `json:"diff,omitempty"`
	Error     *ErrorDetail             `json:"error,omitempty"`
}

// Failed reports whether the pass ended in an error.
func (r Report) Failed() bool {
	return r.Error != nil
}

// NewReport turns a pass outcome and its error into a Report.
// Changed is true only when an action other than none was taken (or would be, in dry-run mode) and succeeded.
func NewReport(outcome *types.Outcome, err error) Report {
	var r Report
	if outcome != nil {
		r = Report{
			Interface: outcome.InterfaceID,
			Action:    outcome.Action,
			DryRun:    outcome.DryRun,
			ChangeSet: outcome.ChangeSet,
			Result:    outcome.After,
		}
	}
	if r.ChangeSet == nil {
		r.ChangeSet = types.ChangeSet{}
	}

	if err != nil {
		r.Error = errorDetail(err)
		r.Result = nil
		if outcome != nil {
			r.Result = outcome.Before
		}
		return r
	}

	r.Changed = outcome.Changed()
	return r
}

// WithDiff adds a rendered before/after diff of the resource.
func (r Report) WithDiff(outcome *types.Outcome) Report {
	if outcome == nil {
		return r
	}
	r.Diff = RenderDiff(outcome.Before, outcome.After)
	return r
}

// errorDetail keeps device text verbatim and carries the device status as the code.
func errorDetail(err error) *ErrorDetail {
	var rejected *DeviceRejectedError
	if errors.As(err, &rejected) {
		return &ErrorDetail{Message: rejected.Message, Code: rejected.Status}
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return &ErrorDetail{Message: transportErr.Error(), Code: transportErr.ExitStatus}
	}
	return &ErrorDetail{Message: err.Error()}
}

// RenderDiff renders the YAML form of before and after as "-"/"+" lines.
func RenderDiff(before, after *types.InterfaceResource) string {
	from := renderResource(before)
	to := renderResource(after)
	if from == to {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.Split(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + line + "\n")
		}
	}
	return sb.String()
}

func renderResource(res *types.InterfaceResource) string {
	if res == nil {
		return ""
	}
	out, err := yaml.Marshal(res)
	if err != nil {
		return ""
	}
	return string(out)
}
