package syntax

import (
	"github.com/teranos/sqb/search/keys"
)

// InvalidCode explains why a token is invalid or unsupported
type InvalidCode string

const (
	ReasonUnknownKey         InvalidCode = "unknown_key"
	ReasonEmptyValue         InvalidCode = "empty_value"
	ReasonInvalidNumber      InvalidCode = "invalid_number"
	ReasonInvalidPercentage  InvalidCode = "invalid_percentage"
	ReasonInvalidDate        InvalidCode = "invalid_date"
	ReasonInvalidDuration    InvalidCode = "invalid_duration"
	ReasonInvalidBoolean     InvalidCode = "invalid_boolean"
	ReasonInvalidList        InvalidCode = "invalid_list"
	ReasonInvalidVersion     InvalidCode = "invalid_version"
	ReasonOperatorNotAllowed InvalidCode = "operator_not_allowed"
	ReasonNegationNotAllowed InvalidCode = "negation_not_allowed"
	ReasonFreeTextNotAllowed InvalidCode = "free_text_not_allowed"
)

// KeyLookup resolves filter keys. *keys.Registry and *keys.Holder implement it.
type KeyLookup interface {
	Lookup(key string) (keys.KeyMeta, bool)
}

// Classify returns a copy of f with State, Reason, ValueType and FieldKind set
// from reg. It depends only on the filter's own fields and the registry entry
// for its key. A nil reg knows no keys.
func Classify(f *Filter, reg KeyLookup) *Filter {
	out := *f
	out.Values = append([]string(nil), f.Values...)
	out.State, out.Reason = StateValid, ""

	var (
		meta keys.KeyMeta
		ok   bool
	)
	if reg != nil {
		meta, ok = reg.Lookup(f.Key)
	}
	if !ok {
		out.ValueType, out.FieldKind = "", ""
		out.State, out.Reason = StateUnsupported, ReasonUnknownKey
		return &out
	}

	out.ValueType, out.FieldKind = meta.ValueType, meta.Kind
	if reason := check(&out, meta); reason != "" {
		out.State, out.Reason = StateInvalid, reason
	}
	return &out
}

func check(f *Filter, meta keys.KeyMeta) InvalidCode {
	if f.Negated && meta.DisallowNegation {
		return ReasonNegationNotAllowed
	}

	list := f.Values != nil
	if f.Value == "" && !list && !f.Quoted {
		return ReasonEmptyValue
	}
	if f.Operator != "" && (list || !meta.ValueType.AllowsOperator()) {
		return ReasonOperatorNotAllowed
	}

	if meta.ValueType == keys.ValueList && !list {
		return ReasonInvalidList
	}
	if list {
		for _, v := range f.Values {
			if v == "" {
				return ReasonInvalidList
			}
			if reason := checkScalar(meta.ValueType, v); reason != "" {
				return reason
			}
		}
		return ""
	}

	// key:"" matches an empty value
	if f.Quoted && f.Value == "" {
		if meta.ValueType == keys.ValueText {
			return ""
		}
		return ReasonEmptyValue
	}
	return checkScalar(meta.ValueType, f.Value)
}

// checkScalar validates one value against the grammar of vt
func checkScalar(vt keys.ValueType, v string) InvalidCode {
	switch vt {
	case keys.ValueNumber:
		if !IsNumber(v) {
			return ReasonInvalidNumber
		}
	case keys.ValuePercentage:
		if !IsPercentage(v) {
			return ReasonInvalidPercentage
		}
	case keys.ValueDate:
		if !IsDate(v) {
			return ReasonInvalidDate
		}
	case keys.ValueDuration:
		if !IsDuration(v) {
			return ReasonInvalidDuration
		}
	case keys.ValueBoolean:
		if !IsBoolean(v) {
			return ReasonInvalidBoolean
		}
	case keys.ValueVersion:
		if !IsVersion(v) {
			return ReasonInvalidVersion
		}
	case keys.ValueText, keys.ValueList:
		if v == "" {
			return ReasonEmptyValue
		}
	}
	return ""
}
