package mailer

import (
	"encoding/json"
	"reflect"
)

// Optional interfaces a Sender outcome (or each element of a sequence
// outcome) may implement. Outcomes that implement none of them are passed
// through as is.
type (
	// StatusCoder exposes a provider status code.
	StatusCoder interface {
		StatusCode() int
	}

	// MessageIDer exposes a provider-assigned message id.
	MessageIDer interface {
		MessageID() string
	}

	// OriginalMessager exposes the message that was handed to the provider.
	OriginalMessager interface {
		OriginalMessage() *Email
	}
)

// SentDescriptor summarizes a sequence outcome.
type SentDescriptor struct {
	Message string `json:"message"`
}

// MailResult is the canonical send result.
type MailResult struct {
	MessageID  string `json:"messageId"`
	StatusCode int    `json:"statusCode"`
}

// Outcome is a normalized Sender outcome.
type Outcome struct {
	Sent   any
	Result any
	Status int
}

// NormalizeOutcome reduces whatever a Sender returned to a descriptor,
// a status code and a result. mid is used when the provider supplies
// no message id.
func NormalizeOutcome(raw any, mid string) Outcome {
	first, isSeq := firstElement(raw)

	out := Outcome{Sent: raw}
	if isSeq {
		out.Sent = SentDescriptor{Message: originalHTML(first)}
	}

	status, ok := statusOf(raw)
	if !ok && isSeq {
		status, _ = statusOf(first)
	}
	out.Status = status

	if res, ok := marshaled(raw); ok {
		out.Result = res
		return out
	}
	if isSeq {
		if res, ok := marshaled(first); ok {
			out.Result = res
			return out
		}
	}

	id, ok := messageIDOf(raw)
	if !ok && isSeq {
		id, ok = messageIDOf(first)
	}
	if !ok || id == "" {
		id = mid
	}
	out.Result = MailResult{MessageID: id, StatusCode: status}
	return out
}

// firstElement reports whether raw is a sequence and returns its first
// element (nil for empty sequences). Byte slices are not sequences.
func firstElement(raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		if v.Len() == 0 {
			return nil, true
		}
		return v.Index(0).Interface(), true
	default:
		return nil, false
	}
}

func statusOf(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case StatusCoder:
		return t.StatusCode(), true
	case map[string]any:
		return numberOf(t["statusCode"])
	default:
		return 0, false
	}
}

func messageIDOf(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case MessageIDer:
		return t.MessageID(), true
	case map[string]any:
		s, ok := t["messageId"].(string)
		return s, ok
	default:
		return "", false
	}
}

func originalHTML(v any) string {
	switch t := v.(type) {
	case OriginalMessager:
		if m := t.OriginalMessage(); m != nil {
			return m.HTML
		}
	case map[string]any:
		if m, ok := t["originalMessage"].(map[string]any); ok {
			if s, ok := m["html"].(string); ok {
				return s
			}
		}
	}
	return ""
}

// marshaled returns the JSON form of values that define their own.
func marshaled(v any) (json.RawMessage, bool) {
	m, ok := v.(json.Marshaler)
	if !ok || isNilPointer(v) {
		return nil, false
	}
	data, err := m.MarshalJSON()
	if err != nil || !json.Valid(data) {
		return nil, false
	}
	return json.RawMessage(data), true
}

func numberOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
