package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

const maxErrorBody = 1 << 20

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The storefront backends disagree on error shapes, so
// each of these is understood:
//
//	{"detail": "..."}                          DRF / FastAPI
//	{"detail": [{"loc": [...], "msg": "..."}]} FastAPI validation
//	{"error": "..."} / {"error": ["a", "b"]}   Django views
//	{"error": {"code": "...", "message": "..."}}
//	{"message": "..."}
//	{"field": ["msg"], "non_field_errors": [...]} DRF serializers
//
// Anything else is reported as the raw body text. The response body is fully
// consumed and closed.
func ParseResponseError(resp *http.Response) *apperrors.AppError {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.FromStatus(resp.StatusCode, "", nil)
	}

	message, fields := DecodeErrorBody(body)
	return apperrors.FromStatus(resp.StatusCode, message, fields)
}

// DecodeErrorBody extracts a message and field-keyed messages from an error body.
func DecodeErrorBody(body []byte) (string, map[string][]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var payload any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return truncate(trimmed, 200), nil
	}

	switch v := payload.(type) {
	case string:
		return v, nil
	case []any:
		if msgs := stringList(v); len(msgs) > 0 {
			return "", map[string][]string{"non_field_errors": msgs}
		}
		return "", nil
	case map[string]any:
		return decodeObject(v)
	default:
		return truncate(trimmed, 200), nil
	}
}

func decodeObject(obj map[string]any) (string, map[string][]string) {
	if detail, ok := obj["detail"]; ok {
		switch d := detail.(type) {
		case string:
			return d, nil
		case []any:
			if fields := fastAPIFields(d); len(fields) > 0 {
				return "", fields
			}
			return strings.Join(stringList(d), "; "), nil
		}
	}

	if e, ok := obj["error"]; ok {
		switch ev := e.(type) {
		case string:
			return ev, nil
		case []any:
			return strings.Join(stringList(ev), "; "), nil
		case map[string]any:
			msg, _ := ev["message"].(string)
			code, _ := ev["code"].(string)
			if msg == "" {
				msg = code
			}
			return msg, nil
		}
	}

	if msg, ok := obj["message"].(string); ok {
		return msg, nil
	}

	fields := make(map[string][]string)
	flattenFields("", obj, fields)
	if len(fields) == 0 {
		return "", nil
	}
	return "", fields
}

// fastAPIFields converts [{"loc": ["body", "quantity"], "msg": "..."}] into
// {"quantity": ["..."]}.
func fastAPIFields(items []any) map[string][]string {
	fields := make(map[string][]string)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		msg, _ := obj["msg"].(string)
		if msg == "" {
			continue
		}
		var parts []string
		if loc, ok := obj["loc"].([]any); ok {
			for i, p := range loc {
				s := fmt.Sprint(p)
				if i == 0 && (s == "body" || s == "query" || s == "path") {
					continue
				}
				parts = append(parts, s)
			}
		}
		key := strings.Join(parts, ".")
		fields[key] = append(fields[key], msg)
	}
	return fields
}

// flattenFields walks a DRF serializer error object. Nested serializers
// produce dotted keys ("items.0.quantity").
func flattenFields(prefix string, obj map[string]any, out map[string][]string) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := obj[k].(type) {
		case string:
			out[key] = append(out[key], v)
		case []any:
			for i, item := range v {
				switch iv := item.(type) {
				case string:
					out[key] = append(out[key], iv)
				case map[string]any:
					flattenFields(fmt.Sprintf("%s.%d", key, i), iv, out)
				}
			}
		case map[string]any:
			flattenFields(key, v, out)
		}
	}
}

func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ClassifyError maps a transport-level failure from Client or
// CircuitBreakerClient into the storefront error taxonomy. Errors that are
// already AppErrors and caller cancellations are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		message, _ := DecodeErrorBody(statusErr.Body)
		return apperrors.ServerFailure(statusErr.StatusCode, message)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return apperrors.NetworkFailure(err)
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
