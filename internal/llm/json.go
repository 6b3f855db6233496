package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Container is the JSON value kind a caller expects from a model reply.
type Container int

const (
	Object Container = iota
	Array
)

func (c Container) String() string {
	if c == Array {
		return "array"
	}
	return "object"
}

func (c Container) open() byte {
	if c == Array {
		return '['
	}
	return '{'
}

// ParseError is returned when a model reply holds no usable JSON value of
// the wanted kind.
type ParseError struct {
	Want   Container
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no json %s in model output: %s", e.Want, e.Reason)
}

// ExtractJSON returns the first well-formed JSON value of kind want found in
// text. Models often wrap their answer in prose or code fences, so every
// balanced span starting at an opening bracket of the wanted kind is tried
// in order. For arrays, spans holding at least one object win over bare
// lists such as citation markers ("[1]"); the first valid array is kept
// only when no such span exists. Text without any opening bracket is
// parsed whole.
func ExtractJSON(text string, want Container) (gjson.Result, error) {
	open := want.open()
	sawOpen := false
	var firstArray gjson.Result
	haveArray := false

	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		sawOpen = true
		end := balancedEnd(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i : end+1]
		if !gjson.Valid(candidate) {
			continue
		}
		res := gjson.Parse(candidate)
		if want == Array && !holdsObject(res) {
			if !haveArray {
				firstArray, haveArray = res, true
			}
			continue
		}
		return res, nil
	}
	if haveArray {
		return firstArray, nil
	}
	if sawOpen {
		return gjson.Result{}, &ParseError{Want: want, Reason: "no balanced span parsed as json"}
	}

	whole := strings.TrimSpace(text)
	if whole == "" {
		return gjson.Result{}, &ParseError{Want: want, Reason: "empty output"}
	}
	if !gjson.Valid(whole) {
		return gjson.Result{}, &ParseError{Want: want, Reason: "output is not json"}
	}
	res := gjson.Parse(whole)
	if (want == Object && !res.IsObject()) || (want == Array && !res.IsArray()) {
		return gjson.Result{}, &ParseError{Want: want, Reason: "output is json of another kind"}
	}
	return res, nil
}

func holdsObject(arr gjson.Result) bool {
	found := false
	arr.ForEach(func(_, v gjson.Result) bool {
		found = v.IsObject()
		return !found
	})
	return found
}

// balancedEnd returns the index of the bracket closing the one at start, or
// -1 when the text ends first. Brackets inside string literals are ignored.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
