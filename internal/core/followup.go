package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?i)```(?:json)?")

	errMissingNeedsFollowUp = errors.New(`required field "needs_followup" is missing`)
	errNotAnObject          = errors.New("follow-up output is not a JSON object")
)

// ExtractFollowUp parses raw model output into a follow-up decision.
// Code-fence markers and surrounding whitespace are stripped before a strict JSON parse.
// If that fails, the text between the first '{' and the last '}' is tried once.
// Any failure yields a *MalformedFollowUpError carrying raw.
func ExtractFollowUp(raw string) (*FollowUpDecision, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))

	fields, err := decodeObject(cleaned)
	if err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, &MalformedFollowUpError{Raw: raw, Err: err}
		}
		fields, err = decodeObject(cleaned[start : end+1])
		if err != nil {
			return nil, &MalformedFollowUpError{Raw: raw, Err: err}
		}
	}

	decision, err := decisionFromFields(fields)
	if err != nil {
		return nil, &MalformedFollowUpError{Raw: raw, Err: err}
	}
	return decision, nil
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse follow-up JSON: %w", err)
	}
	if fields == nil {
		return nil, errNotAnObject
	}
	return fields, nil
}

func decisionFromFields(fields map[string]json.RawMessage) (*FollowUpDecision, error) {
	needsRaw, ok := fields["needs_followup"]
	if !ok {
		return nil, errMissingNeedsFollowUp
	}
	needs, err := coerceBool(needsRaw)
	if err != nil {
		return nil, fmt.Errorf("needs_followup: %w", err)
	}

	reason, err := optionalString(fields["followup_reason"])
	if err != nil {
		return nil, fmt.Errorf("followup_reason: %w", err)
	}
	timeframe, err := optionalString(fields["suggested_timeframe"])
	if err != nil {
		return nil, fmt.Errorf("suggested_timeframe: %w", err)
	}
	items, err := optionalStrings(fields["action_items"])
	if err != nil {
		return nil, fmt.Errorf("action_items: %w", err)
	}

	return &FollowUpDecision{
		NeedsFollowUp: needs,
		Reason:        reason,
		TimeframeHint: timeframe,
		ActionItems:   items,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func coerceBool(raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, errors.New("value is null")
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return false, fmt.Errorf("cannot interpret %q as a boolean", s)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("cannot interpret %v as a boolean", n)
	}

	return false, fmt.Errorf("cannot interpret %s as a boolean", string(raw))
}

func optionalString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected a string: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func optionalStrings(raw json.RawMessage) ([]string, error) {
	items := []string{}
	if isNull(raw) {
		return items, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			items = append(items, single)
		}
		return items, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected a list of strings: %w", err)
	}
	for i, elem := range list {
		item, err := optionalString(elem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}
