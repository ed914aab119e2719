package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/torosent/docloader/internal/store"
)

// Outcome labels for store error kinds.
const (
	OutcomeDocumentExists   = "document_exists"
	OutcomeDocumentNotFound = "document_not_found"
	OutcomeTimeout          = "timeout"
	OutcomeTemporaryFailure = "temporary_failure"
	OutcomeAuthentication   = "authentication_failure"
	OutcomeUnavailable      = "service_unavailable"
	OutcomeUnsupported      = "unsupported"
	OutcomeCanceled         = "canceled"
	OutcomeMissingField     = "missing_field"
)

// ErrMissingField is returned by query operations whose rows lack the expected field.
var ErrMissingField = errors.New("missing field")

var outcomeKinds = []struct {
	kind  error
	label string
}{
	{store.ErrDocumentExists, OutcomeDocumentExists},
	{store.ErrDocumentNotFound, OutcomeDocumentNotFound},
	{store.ErrTimeout, OutcomeTimeout},
	{context.DeadlineExceeded, OutcomeTimeout},
	{store.ErrTemporaryFailure, OutcomeTemporaryFailure},
	{store.ErrAuthentication, OutcomeAuthentication},
	{store.ErrUnavailable, OutcomeUnavailable},
	{store.ErrUnsupported, OutcomeUnsupported},
	{context.Canceled, OutcomeCanceled},
	{ErrMissingField, OutcomeMissingField},
}

// Classify maps an operation error to its outcome label. It is a pure function of the
// error: nil is success, known kinds map to fixed labels and anything else is named
// after the innermost error type.
func Classify(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	for _, k := range outcomeKinds {
		if errors.Is(err, k.kind) {
			return k.label
		}
	}
	return FriendlyErrorName(fmt.Sprintf("%T", innermost(err)))
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

var friendlyAliases = map[string]string{
	"*errors.errorString":        "Unknown error",
	"errors.errorString":         "Unknown error",
	"*net.OpError":               "Network error",
	"net.OpError":                "Network error",
	"*net.DNSError":              "DNS error",
	"net.DNSError":               "DNS error",
	"*json.MarshalerError":       "Document encoding error",
	"*json.UnsupportedTypeError": "Document encoding error",
	"*json.SyntaxError":          "Document decoding error",
}

// FriendlyErrorName returns a human-friendly label for a Go error type.
func FriendlyErrorName(typeName string) string {
	cleaned := strings.TrimSpace(typeName)
	if cleaned == "" {
		return "Unknown error"
	}

	if alias, ok := friendlyAliases[cleaned]; ok {
		return alias
	}

	cleaned = strings.TrimPrefix(cleaned, "*")
	if alias, ok := friendlyAliases[cleaned]; ok {
		return alias
	}
	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		cleaned = cleaned[idx+1:]
	}

	pkg := ""
	name := cleaned
	if idx := strings.Index(name, "."); idx != -1 {
		pkg = name[:idx]
		name = name[idx+1:]
	}

	pretty := humanizeTypeName(name)
	if pretty == "" {
		pretty = name
	}

	lowerPkg := strings.ToLower(pkg)
	lowerPretty := strings.ToLower(pretty)

	switch {
	case lowerPkg == "gocb" && strings.Contains(lowerPretty, "key value"):
		return "Couchbase KV error"
	case lowerPkg == "gocb" && strings.Contains(lowerPretty, "query"):
		return "Couchbase query error"
	case lowerPkg == "proto" && strings.Contains(lowerPretty, "redis"):
		return "Redis error"
	}

	if pkg != "" && pkg != "main" {
		return fmt.Sprintf("%s (%s)", pretty, pkg)
	}
	return pretty
}

func humanizeTypeName(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	var current []rune
	runes := []rune(name)

	appendWord := func() {
		if len(current) == 0 {
			return
		}
		word := string(current)
		if isAllUpper(word) {
			words = append(words, word)
		} else {
			words = append(words, capitalize(word))
		}
		current = current[:0]
	}

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower)) {
				appendWord()
			} else if unicode.IsDigit(r) && !unicode.IsDigit(prev) {
				appendWord()
			}
		}
		current = append(current, r)
	}
	appendWord()

	return strings.Join(words, " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
