package syntax

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Severity indicates how serious a diagnostic is
type Severity string

const (
	SeverityError   Severity = "error"   // the token will not filter as written
	SeverityWarning Severity = "warning" // the token is kept but not understood
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// DiagnosticKind categorizes diagnostics for programmatic handling
type DiagnosticKind string

const (
	KindUnknownKey         DiagnosticKind = "unknown_key"
	KindInvalidValue       DiagnosticKind = "invalid_value"
	KindFreeTextNotAllowed DiagnosticKind = "free_text_not_allowed"
)

// FormatContext selects how a diagnostic renders
type FormatContext int

const (
	FormatTerminal FormatContext = iota // pterm colours
	FormatPlain                         // web UI, logs, LSP
)

// Diagnostic describes a problem with one token of a query
type Diagnostic struct {
	Kind        DiagnosticKind `json:"kind"`
	Severity    Severity       `json:"severity"`
	Message     string         `json:"message"`
	Reason      InvalidCode    `json:"reason"`
	Range       Range          `json:"range"`
	Token       string         `json:"token"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// NewDiagnostic creates an error-severity diagnostic
func NewDiagnostic(kind DiagnosticKind, message string) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  message,
	}
}

// WithRange sets the source range
func (d *Diagnostic) WithRange(r Range) *Diagnostic {
	d.Range = r
	return d
}

// WithToken records the offending token text
func (d *Diagnostic) WithToken(raw string) *Diagnostic {
	d.Token = raw
	return d
}

// WithReason sets the reason code
func (d *Diagnostic) WithReason(reason InvalidCode) *Diagnostic {
	d.Reason = reason
	return d
}

// WithSeverity sets the severity
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

// WithSuggestion adds a suggestion for fixing the problem
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, suggestion)
	return d
}

// Error implements error
func (d *Diagnostic) Error() string {
	return d.Format(FormatPlain)
}

// Format renders the diagnostic for ctx
func (d *Diagnostic) Format(ctx FormatContext) string {
	if ctx == FormatPlain {
		return d.formatPlain()
	}
	return d.formatTerminal()
}

func (d *Diagnostic) formatPlain() string {
	msg := d.Message
	if d.Range.Len() > 0 {
		msg += fmt.Sprintf(" (at %d-%d)", d.Range.Start.Offset, d.Range.End.Offset)
	}
	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(d.Suggestions, ", "))
	}
	return msg
}

func (d *Diagnostic) formatTerminal() string {
	var msg string
	switch d.Severity {
	case SeverityError:
		msg = pterm.Red(d.Message)
	case SeverityWarning:
		msg = pterm.Yellow(d.Message)
	case SeverityInfo:
		msg = pterm.Blue(d.Message)
	case SeverityHint:
		msg = pterm.LightCyan(d.Message)
	default:
		msg = d.Message
	}

	if d.Token != "" {
		msg += fmt.Sprintf("\n  %s '%s' %s", pterm.Yellow("Token:"), d.Token,
			pterm.Gray(fmt.Sprintf("(line %d, col %d)", d.Range.Start.Line, d.Range.Start.Character)))
	}
	if len(d.Suggestions) > 0 {
		msg += "\n  " + pterm.Green("Suggestions:")
		for _, s := range d.Suggestions {
			msg += "\n    • " + s
		}
	}
	return msg
}

// Diagnose returns a diagnostic for every invalid or unsupported token, in source order
func Diagnose(r *ParseResult) []*Diagnostic {
	var diags []*Diagnostic
	Walk(r.Tokens, func(tok Token) bool {
		switch t := tok.(type) {
		case *Filter:
			if d := filterDiagnostic(t); d != nil {
				diags = append(diags, d)
			}
		case *FreeText:
			if t.Invalid {
				diags = append(diags, NewDiagnostic(KindFreeTextNotAllowed, "free text is not allowed in this search").
					WithReason(t.Reason).
					WithRange(t.Range).
					WithToken(t.Raw).
					WithSuggestion("use key:value filters"))
			}
		}
		return true
	})
	return diags
}

func filterDiagnostic(f *Filter) *Diagnostic {
	switch f.State {
	case StateUnsupported:
		return NewDiagnostic(KindUnknownKey, fmt.Sprintf("unknown filter key %q", f.Key)).
			WithSeverity(SeverityWarning).
			WithReason(f.Reason).
			WithRange(f.KeyRange).
			WithToken(f.Raw)
	case StateInvalid:
		d := NewDiagnostic(KindInvalidValue, ReasonMessage(f)).
			WithReason(f.Reason).
			WithToken(f.Raw)
		switch f.Reason {
		case ReasonNegationNotAllowed:
			d.WithRange(f.Range).WithSuggestion(fmt.Sprintf("remove the ! before %s", f.Key))
		case ReasonOperatorNotAllowed:
			d.WithRange(f.OperatorRange()).WithSuggestion(fmt.Sprintf("remove %s", f.Operator))
		default:
			d.WithRange(f.ValueRange)
			if hint := valueHint(f.Reason); hint != "" {
				d.WithSuggestion(hint)
			}
		}
		return d
	}
	return nil
}

// ReasonMessage describes why f failed classification
func ReasonMessage(f *Filter) string {
	switch f.Reason {
	case ReasonUnknownKey:
		return fmt.Sprintf("unknown filter key %q", f.Key)
	case ReasonEmptyValue:
		return fmt.Sprintf("%s needs a value", f.Key)
	case ReasonNegationNotAllowed:
		return fmt.Sprintf("%s cannot be negated", f.Key)
	case ReasonOperatorNotAllowed:
		return fmt.Sprintf("%s does not support the %s operator", f.Key, f.Operator)
	case ReasonInvalidList:
		return fmt.Sprintf("invalid list for %s", f.Key)
	case ReasonFreeTextNotAllowed:
		return "free text is not allowed in this search"
	case "":
		return ""
	}
	return fmt.Sprintf("invalid %s value %q for %s", f.ValueType, f.Value, f.Key)
}

func valueHint(reason InvalidCode) string {
	switch reason {
	case ReasonInvalidNumber:
		return "use a number such as 10, 1.5k or 2mb"
	case ReasonInvalidPercentage:
		return "use a number or percentage such as 0.5 or 50%"
	case ReasonInvalidDate:
		return "use an ISO-8601 date such as 2025-01-15 or a relative offset such as -7d"
	case ReasonInvalidDuration:
		return "use a number followed by ms, s, m, h, d or w"
	case ReasonInvalidBoolean:
		return "use true or false"
	case ReasonInvalidList:
		return "use [a,b,c] with no empty elements"
	case ReasonInvalidVersion:
		return "use a semantic version such as 1.2.3 or latest"
	}
	return ""
}
