package collection

import (
	"strconv"
	"strings"
	"time"

	"roster-manager/core/apperr"
	"roster-manager/feature/library"
)

// fieldType selects how a field's value and a rule literal are compared.
type fieldType int

const (
	typeText fieldType = iota
	typeNumber
	typeBool
	typeTime
)

// Evaluator filters index records through a smart collection's rule set.
// Evaluation is pure: it never touches the database or the filesystem.
type Evaluator struct {
	// Now is swapped in tests; zero means time.Now.
	Now func() time.Time
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Evaluate returns the records matching the rule set under the given
// combinator, preserving input order. With no rules, "all" matches every
// record and "any" matches none.
func (e *Evaluator) Evaluate(records []library.Record, rules []FilterRule, combinator Combinator) ([]library.Record, error) {
	if combinator != CombinatorAll && combinator != CombinatorAny {
		return nil, apperr.Invalid("unknown combinator "+string(combinator), nil)
	}
	if len(rules) == 0 {
		if combinator == CombinatorAll {
			return records, nil
		}
		return []library.Record{}, nil
	}
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, err
		}
	}
	matched := make([]library.Record, 0, len(records))
	for _, rec := range records {
		ok, err := e.matches(&rec, rules, combinator)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func (e *Evaluator) matches(rec *library.Record, rules []FilterRule, combinator Combinator) (bool, error) {
	for _, r := range rules {
		ok, err := e.apply(rec, r)
		if err != nil {
			return false, err
		}
		if combinator == CombinatorAll && !ok {
			return false, nil
		}
		if combinator == CombinatorAny && ok {
			return true, nil
		}
	}
	return combinator == CombinatorAll, nil
}

// validateRule rejects field/comparator pairs the type system cannot
// compare, so a bad rule fails the whole evaluation instead of silently
// matching nothing.
func validateRule(r FilterRule) error {
	typ, ok := fieldTypes[r.Field]
	if !ok {
		return apperr.Invalid("unknown rule field "+r.Field, nil)
	}
	switch r.Comparator {
	case CompIsEmpty, CompIsNotEmpty:
		return nil
	case CompEquals, CompNotEquals:
		// Exact comparison against a timestamp can never match a real
		// install instant; withinDays is the time comparator.
		if typ == typeTime {
			return apperr.Invalid("comparator "+string(r.Comparator)+" cannot target a timestamp field, use withinDays", nil)
		}
	case CompContains, CompNotContains:
		if typ != typeText {
			return apperr.Invalid("comparator "+string(r.Comparator)+" needs a text field, got "+r.Field, nil)
		}
	case CompGreaterThan, CompLessThan:
		if typ != typeNumber {
			return apperr.Invalid("comparator "+string(r.Comparator)+" needs a numeric field, got "+r.Field, nil)
		}
	case CompWithinDays:
		if typ != typeTime {
			return apperr.Invalid("comparator withinDays needs a timestamp field, got "+r.Field, nil)
		}
	default:
		return apperr.Invalid("unknown comparator "+string(r.Comparator), nil)
	}
	return nil
}

var fieldTypes = map[string]fieldType{
	FieldName:        typeText,
	FieldAuthor:      typeText,
	FieldTag:         typeText,
	FieldSourceGame:  typeText,
	FieldStyle:       typeText,
	FieldResolution:  typeText,
	FieldCameraWidth: typeNumber,
	FieldHasMusic:    typeBool,
	FieldInstalledAt: typeTime,
}

func (e *Evaluator) apply(rec *library.Record, r FilterRule) (bool, error) {
	switch fieldTypes[r.Field] {
	case typeNumber:
		return applyNumber(float64(numberField(rec, r.Field)), r)
	case typeBool:
		return applyBool(boolField(rec, r.Field), r)
	case typeTime:
		return e.applyTime(timeField(rec, r.Field), r)
	default:
		return applyText(textField(rec, r.Field), r)
	}
}

func textField(rec *library.Record, field string) string {
	switch field {
	case FieldName:
		return rec.Name
	case FieldAuthor:
		return rec.Author
	case FieldTag:
		return rec.Tags
	case FieldSourceGame:
		return rec.SourceGame
	case FieldStyle:
		return rec.Style
	case FieldResolution:
		return rec.Resolution
	}
	return ""
}

func numberField(rec *library.Record, field string) int {
	if field == FieldCameraWidth {
		return rec.CameraWidth
	}
	return 0
}

func boolField(rec *library.Record, field string) bool {
	if field == FieldHasMusic {
		return rec.HasMusic
	}
	return false
}

func timeField(rec *library.Record, field string) time.Time {
	if field == FieldInstalledAt {
		return rec.InstalledAt
	}
	return time.Time{}
}

// applyText compares case-insensitively. The tag field is stored as a
// comma-separated list, so equals matches any one tag while contains is a
// plain substring test.
func applyText(got string, r FilterRule) (bool, error) {
	want := strings.TrimSpace(r.Value)
	switch r.Comparator {
	case CompIsEmpty:
		return got == "", nil
	case CompIsNotEmpty:
		return got != "", nil
	case CompContains:
		return strings.Contains(strings.ToLower(got), strings.ToLower(want)), nil
	case CompNotContains:
		return !strings.Contains(strings.ToLower(got), strings.ToLower(want)), nil
	case CompEquals:
		if r.Field == FieldTag {
			return tagListHas(got, want), nil
		}
		return strings.EqualFold(got, want), nil
	case CompNotEquals:
		if r.Field == FieldTag {
			return !tagListHas(got, want), nil
		}
		return !strings.EqualFold(got, want), nil
	}
	return false, nil
}

func tagListHas(tags, want string) bool {
	for _, t := range strings.Split(tags, ",") {
		if strings.EqualFold(strings.TrimSpace(t), want) {
			return true
		}
	}
	return false
}

func applyNumber(got float64, r FilterRule) (bool, error) {
	switch r.Comparator {
	case CompIsEmpty:
		return got == 0, nil
	case CompIsNotEmpty:
		return got != 0, nil
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil {
		return false, apperr.Invalid("rule value "+r.Value+" is not a number", err)
	}
	switch r.Comparator {
	case CompEquals:
		return got == want, nil
	case CompNotEquals:
		return got != want, nil
	case CompGreaterThan:
		return got > want, nil
	case CompLessThan:
		return got < want, nil
	}
	return false, nil
}

func applyBool(got bool, r FilterRule) (bool, error) {
	switch r.Comparator {
	case CompIsEmpty:
		return !got, nil
	case CompIsNotEmpty:
		return got, nil
	}
	want, err := strconv.ParseBool(strings.TrimSpace(r.Value))
	if err != nil {
		return false, apperr.Invalid("rule value "+r.Value+" is not a boolean", err)
	}
	switch r.Comparator {
	case CompEquals:
		return got == want, nil
	case CompNotEquals:
		return got != want, nil
	}
	return false, nil
}

func (e *Evaluator) applyTime(got time.Time, r FilterRule) (bool, error) {
	switch r.Comparator {
	case CompIsEmpty:
		return got.IsZero(), nil
	case CompIsNotEmpty:
		return !got.IsZero(), nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(r.Value))
	if err != nil || days < 0 {
		return false, apperr.Invalid("rule value "+r.Value+" is not a day count", err)
	}
	if got.IsZero() {
		return false, nil
	}
	return !got.Before(e.now().AddDate(0, 0, -days)), nil
}
