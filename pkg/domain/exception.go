package domain

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Exception is a domain-level error with a dotted, hierarchical type.
// "db.connection-error" is more specific than "db.*".
type Exception struct {
	Type    string                              `json:"type"`
	Message string                              `json:"message"`
	Info    *orderedmap.OrderedMap[string, any] `json:"info,omitempty"`

	// Node is the node that raised the exception, if known.
	Node Node `json:"-"`
}

// NewException builds an exception. kv are alternating key/value pairs
// stored in Info in the order given.
func NewException(typ, msg string, kv ...any) *Exception {
	exc := &Exception{Type: typ, Message: msg}
	for i := 0; i+1 < len(kv); i += 2 {
		exc.With(fmt.Sprint(kv[i]), kv[i+1])
	}
	return exc
}

// With sets an info field and returns the exception.
func (e *Exception) With(key string, value any) *Exception {
	if e.Info == nil {
		e.Info = orderedmap.New[string, any]()
	}
	e.Info.Set(key, value)
	return e
}

// Field returns an info field.
func (e *Exception) Field(key string) (any, bool) {
	if e.Info == nil {
		return nil, false
	}
	return e.Info.Get(key)
}

// InfoMap returns the info fields as a plain map.
func (e *Exception) InfoMap() map[string]any {
	out := make(map[string]any)
	if e.Info == nil {
		return out
	}
	for pair := e.Info.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// MatchException reports whether an exception type matches any of the patterns.
//
// Pattern and type are split on "." and compared token by token. A "*"
// token matches the remaining tokens. Otherwise every token must match,
// including the count of tokens.
func MatchException(typ string, patterns []string) bool {
	typeTokens := strings.Split(typ, ".")
	for _, pattern := range patterns {
		if matchTokens(strings.Split(strings.TrimSpace(pattern), "."), typeTokens) {
			return true
		}
	}
	return false
}

func matchTokens(pattern, typ []string) bool {
	n := max(len(pattern), len(typ))
	for i := 0; i < n; i++ {
		if i < len(pattern) && pattern[i] == "*" {
			return true
		}
		if i >= len(pattern) || i >= len(typ) || pattern[i] != typ[i] {
			return false
		}
	}
	return true
}
