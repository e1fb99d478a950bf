package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"TempoRelay/internal/model"
)

// Label maps a free-text color label to a Color. Both the French upstream
// labels (including suffix forms like TEMPO_BLEU) and the English names match.
func Label(text string) model.Color {
	v := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case v == "":
		return model.Unknown
	case strings.Contains(v, "BLEU") || v == "BLUE":
		return model.Blue
	case strings.Contains(v, "BLANC") || v == "WHITE":
		return model.White
	case strings.Contains(v, "ROUGE") || v == "RED":
		return model.Red
	}
	return model.Unknown
}

// Code maps a numeric day code (1 blue, 2 white, 3 red) to a Color.
// Values that are not integers yield Unknown.
func Code(v any) model.Color {
	n, ok := toInt(v)
	if !ok {
		return model.Unknown
	}
	switch n {
	case 1:
		return model.Blue
	case 2:
		return model.White
	case 3:
		return model.Red
	}
	return model.Unknown
}

// LabelOrCode prefers the label when present.
func LabelOrCode(label string, code any) model.Color {
	if label != "" {
		return Label(label)
	}
	return Code(code)
}

// CodeOrLabel treats digit-only values as codes and anything else as a label.
func CodeOrLabel(v any) model.Color {
	text := Text(v)
	if isDigits(text) {
		return Code(text)
	}
	return Label(text)
}

// Text renders a decoded JSON scalar the way it appeared on the wire.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
