// Package config implements the Config Tree (C1): a single-pass,
// token-stream parse of a JSON document into an immutable, insertion-ordered
// node tree, with "*"/"**" wildcard path lookup.
//
// Object key order is significant — it drives the pre-order traversal that
// "*"/"**" wildcard resolution depends on — so parsing goes through
// encoding/json's token stream (json.Decoder.Token) rather than unmarshaling
// into a map[string]any, which the standard library does not order.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vplatform/vpsim/pkg/util"
)

// Kind tags the variant a Node holds.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Node is an immutable config tree node. The zero value behaves as an empty
// object (KindObject with no fields); a nil *Node reports KindNull.
type Node struct {
	kind Kind

	keys []string         // object: insertion order
	obj  map[string]*Node // object: key -> child

	arr []*Node // array elements, in order

	str string
	num float64
	b   bool
}

// Parse reads a single JSON document from r and returns its root node.
func Parse(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return &Node{kind: KindNull}, nil
		}
		return nil, &util.ConfigParseError{Offset: dec.InputOffset(), Details: err.Error()}
	}
	n, err := parseValue(dec, tok)
	if err != nil {
		return nil, &util.ConfigParseError{Offset: dec.InputOffset(), Details: err.Error()}
	}
	return n, nil
}

func parseValue(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return &Node{kind: KindString, str: t}, nil
	case float64:
		return &Node{kind: KindNumber, num: t}, nil
	case bool:
		return &Node{kind: KindBool, b: t}, nil
	case nil:
		return &Node{kind: KindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %#v", tok)
	}
}

func parseObject(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindObject, obj: make(map[string]*Node)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %#v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := parseValue(dec, valTok)
		if err != nil {
			return nil, err
		}
		if _, exists := n.obj[key]; !exists {
			n.keys = append(n.keys, key)
		}
		n.obj[key] = val
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, err
	}
	return n, nil
}

func parseArray(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindArray}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := parseValue(dec, tok)
		if err != nil {
			return nil, err
		}
		n.arr = append(n.arr, v)
	}
	if _, err := dec.Token(); err != nil { // consume closing ']'
		return nil, err
	}
	return n, nil
}

// Kind reports the node's variant.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// Child returns the named object field, or nil if absent or not an object.
func (n *Node) Child(name string) *Node {
	if n == nil || n.kind != KindObject {
		return nil
	}
	return n.obj[name]
}

// Keys returns object field names in insertion order, or nil.
func (n *Node) Keys() []string {
	if n == nil || n.kind != KindObject {
		return nil
	}
	return n.keys
}

// Elements returns array elements in order, or nil.
func (n *Node) Elements() []*Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.arr
}

// Len reports the number of object fields or array elements.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindObject:
		return len(n.keys)
	case KindArray:
		return len(n.arr)
	default:
		return 0
	}
}

// AsString returns the string value; mismatch returns a ConfigLookupError.
func (n *Node) AsString() (string, error) {
	if n == nil || n.kind != KindString {
		return "", &util.ConfigLookupError{Path: "<node>", Expected: "string", Got: n.Kind().String()}
	}
	return n.str, nil
}

// AsDouble returns the numeric value; mismatch returns a ConfigLookupError.
func (n *Node) AsDouble() (float64, error) {
	if n == nil || n.kind != KindNumber {
		return 0, &util.ConfigLookupError{Path: "<node>", Expected: "number", Got: n.Kind().String()}
	}
	return n.num, nil
}

// AsInt truncates AsDouble toward zero.
func (n *Node) AsInt() (int64, error) {
	f, err := n.AsDouble()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// AsBool returns the bool value; mismatch returns a ConfigLookupError.
func (n *Node) AsBool() (bool, error) {
	if n == nil || n.kind != KindBool {
		return false, &util.ConfigLookupError{Path: "<node>", Expected: "bool", Got: n.Kind().String()}
	}
	return n.b, nil
}

// StringOr returns AsString()'s value or def on any error (missing node, wrong kind).
func (n *Node) StringOr(def string) string {
	if v, err := n.AsString(); err == nil {
		return v
	}
	return def
}

// IntOr returns AsInt()'s value or def on any error.
func (n *Node) IntOr(def int64) int64 {
	if v, err := n.AsInt(); err == nil {
		return v
	}
	return def
}

// BoolOr returns AsBool()'s value or def on any error.
func (n *Node) BoolOr(def bool) bool {
	if v, err := n.AsBool(); err == nil {
		return v
	}
	return def
}

// Get resolves a "/"-separated path against this node, honoring "*" (exactly
// one level) and "**" (zero or more levels) wildcard segments. The first
// pre-order match wins. Returns nil if nothing matches.
func (n *Node) Get(path string) *Node {
	if n == nil {
		return nil
	}
	if path == "" {
		return n
	}
	return n.get(strings.Split(path, "/"))
}

func (n *Node) get(segs []string) *Node {
	if n == nil {
		return nil
	}
	if len(segs) == 0 {
		return n
	}
	seg, rest := segs[0], segs[1:]
	switch seg {
	case "**":
		if r := n.get(rest); r != nil {
			return r
		}
		for _, name := range n.childNames() {
			child := n.childByName(name)
			deeper := append([]string{"**"}, rest...)
			if r := child.get(deeper); r != nil {
				return r
			}
		}
		return nil
	case "*":
		for _, name := range n.childNames() {
			if r := n.childByName(name).get(rest); r != nil {
				return r
			}
		}
		return nil
	default:
		return n.childByName(seg).get(rest)
	}
}

// MustGet resolves path like Get, but panics with a path-tagged message on a
// miss instead of returning nil. Spec's own config accessor treats a type
// mismatch as a fatal error (§4.1); MustGet extends that fatal-on-miss
// contract to path resolution itself, for callers — module Build hooks
// reading their own required config fields — that have no sensible fallback
// for an absent field.
func (n *Node) MustGet(path string) *Node {
	got := n.Get(path)
	if got == nil {
		panic(fmt.Sprintf("config: required path %q not found", path))
	}
	return got
}

func (n *Node) childNames() []string {
	switch n.kind {
	case KindObject:
		return n.keys
	case KindArray:
		names := make([]string, len(n.arr))
		for i := range n.arr {
			names[i] = strconv.Itoa(i)
		}
		return names
	default:
		return nil
	}
}

func (n *Node) childByName(seg string) *Node {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindObject:
		return n.obj[seg]
	case KindArray:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(n.arr) {
			return nil
		}
		return n.arr[idx]
	default:
		return nil
	}
}

// Interface converts the node into plain Go values (map[string]any,
// []any, string, float64, bool, nil) for tools — e.g. the CLI's gojq
// query command — that expect generic JSON data rather than *Node.
func (n *Node) Interface() interface{} {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindObject:
		m := make(map[string]interface{}, len(n.keys))
		for _, k := range n.keys {
			m[k] = n.obj[k].Interface()
		}
		return m
	case KindArray:
		a := make([]interface{}, len(n.arr))
		for i, v := range n.arr {
			a[i] = v.Interface()
		}
		return a
	case KindString:
		return n.str
	case KindNumber:
		return n.num
	case KindBool:
		return n.b
	default:
		return nil
	}
}

// MarshalJSON re-emits n as JSON, preserving object key insertion order —
// unlike round-tripping through Interface() into a map[string]any, which Go
// maps cannot order. Satisfies encoding/json.Marshaler, so json.Marshal on a
// *Node gets the original field order back rather than an arbitrary one.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	switch n.kind {
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := n.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, v := range n.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			vb, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindString:
		return json.Marshal(n.str)
	case KindNumber:
		return json.Marshal(n.num)
	case KindBool:
		return json.Marshal(n.b)
	default:
		return []byte("null"), nil
	}
}
