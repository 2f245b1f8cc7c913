package uploader

import (
	"fmt"

	"github.com/filedrop/backend/internal/rules"
)

// Outcome is the validation result for a single candidate.
type Outcome struct {
	Candidate Candidate
	Accepted  bool
	Reason    string // human-readable, set only when rejected
}

// validate screens one candidate against the rule set. Pure; no state is
// touched here.
func validate(c Candidate, r *rules.Rules) Outcome {
	if c.Name == "" {
		return rejected(c, "missing file name")
	}
	if len(c.Data) == 0 {
		return rejected(c, "file is empty")
	}
	if int64(len(c.Data)) > r.MaxFileSize {
		return rejected(c, fmt.Sprintf("file exceeds %d bytes", r.MaxFileSize))
	}
	if !r.AllowsExtension(c.Name) {
		return rejected(c, "file type not allowed")
	}
	return Outcome{Candidate: c, Accepted: true}
}

func rejected(c Candidate, reason string) Outcome {
	return Outcome{Candidate: c, Reason: reason}
}

// validateAll applies validate to every candidate unconditionally. Every
// candidate yields exactly one outcome; a rejection never short-circuits
// its siblings.
func validateAll(cs []Candidate, r *rules.Rules) (accepted []Candidate, rejections []string) {
	for _, c := range cs {
		out := validate(c, r)
		if out.Accepted {
			accepted = append(accepted, out.Candidate)
		} else {
			rejections = append(rejections, fmt.Sprintf("%s: %s", c.Name, out.Reason))
		}
	}
	return accepted, rejections
}
