package report

import (
	"fmt"

	"github.com/serpent-os/ent/pkg/errors"
)

// Kind classifies one recipe's check result.
type Kind string

const (
	KindUpToDate        Kind = "up-to-date"
	KindUpdateAvailable Kind = "update-available"
	KindError           Kind = "error"
	KindSkipped         Kind = "skipped"
)

// Outcome is the result of checking one recipe. From and To are set for
// update-available; Reason is set for error and skipped.
type Outcome struct {
	Kind    Kind        `json:"kind"`
	From    string      `json:"from,omitempty"`
	To      string      `json:"to,omitempty"`
	Reason  errors.Code `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
}

// UpToDate reports that no newer upstream version exists.
func UpToDate() Outcome { return Outcome{Kind: KindUpToDate} }

// UpdateAvailable reports that upstream has moved from -> to.
func UpdateAvailable(from, to string) Outcome {
	return Outcome{Kind: KindUpdateAvailable, From: from, To: to}
}

// Skipped reports a recipe that was not checked.
func Skipped(reason errors.Code) Outcome {
	return Outcome{Kind: KindSkipped, Reason: reason}
}

// Failed converts err into an error outcome. Uncoded errors are reported
// as INTERNAL_ERROR.
func Failed(err error) Outcome {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Outcome{Kind: KindError, Reason: code, Message: errors.UserMessage(err)}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindUpdateAvailable:
		return fmt.Sprintf("%s (%s -> %s)", o.Kind, o.From, o.To)
	case KindError, KindSkipped:
		return fmt.Sprintf("%s (%s)", o.Kind, o.Reason)
	default:
		return string(o.Kind)
	}
}
