package jsontree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is one key/value pair of an object, in wire order.
type Member struct {
	Key   string
	Value *Value
}

// Value is a node of the document tree.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string contents or number literal
	items   []*Value
	members []Member
}

func NewNull() *Value { return &Value{kind: Null} }

func NewBool(b bool) *Value { return &Value{kind: Bool, boolean: b} }

func NewString(s string) *Value { return &Value{kind: String, text: s} }

// NewNumber wraps a JSON number literal. The literal is not validated.
func NewNumber(literal json.Number) *Value { return &Value{kind: Number, text: string(literal)} }

func NewArray(items ...*Value) *Value {
	return &Value{kind: Array, items: items}
}

func NewObject(members ...Member) *Value {
	return &Value{kind: Object, members: members}
}

// Kind returns the variant of v. A nil node reports Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool   { return v.Kind() == Null }
func (v *Value) IsArray() bool  { return v.Kind() == Array }
func (v *Value) IsObject() bool { return v.Kind() == Object }

// Get returns the member named key. When an object carries duplicate keys the
// last one wins, matching how browsers decode JSON.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			return v.members[i].Value, true
		}
	}
	return nil, false
}

// Path walks nested object members.
func (v *Value) Path(keys ...string) (*Value, bool) {
	cur := v
	for _, key := range keys {
		next, ok := cur.Get(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the elements of an array node, or nil.
func (v *Value) Items() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an object node, or nil.
func (v *Value) Members() []Member {
	if v.Kind() != Object {
		return nil
	}
	return v.members
}

// Len reports the number of array elements or object members.
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

func (v *Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.text, true
}

func (v *Value) Bool() (bool, bool) {
	if v.Kind() != Bool {
		return false, false
	}
	return v.boolean, true
}

func (v *Value) Number() (json.Number, bool) {
	if v.Kind() != Number {
		return "", false
	}
	return json.Number(v.text), true
}

// Truthy applies JavaScript truthiness: null, false, 0, NaN and "" are false,
// every array and object is true.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case Bool:
		return v.boolean
	case String:
		return v.text != ""
	case Number:
		f, err := strconv.ParseFloat(v.text, 64)
		return err == nil && f != 0
	case Array, Object:
		return true
	default:
		return false
	}
}

// Scalar renders a string or number node as text. Integral numbers are printed
// without exponent or fraction so identifiers compare consistently.
func (v *Value) Scalar() (string, bool) {
	switch v.Kind() {
	case String:
		return strings.TrimSpace(v.text), true
	case Number:
		if n, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		f, err := strconv.ParseFloat(v.text, 64)
		if err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return v.text, true
	default:
		return "", false
	}
}

// ContainsString reports whether an array node holds a string element equal to s.
func (v *Value) ContainsString(s string) bool {
	for _, item := range v.Items() {
		if str, ok := item.Str(); ok && str == s {
			return true
		}
	}
	return false
}

// Prepend inserts item at the front of an array node. It returns false when v
// is not an array.
func (v *Value) Prepend(item *Value) bool {
	if v.Kind() != Array {
		return false
	}
	v.items = append([]*Value{item}, v.items...)
	return true
}

// Append adds item to the end of an array node.
func (v *Value) Append(item *Value) bool {
	if v.Kind() != Array {
		return false
	}
	v.items = append(v.items, item)
	return true
}

// Set replaces the last member named key or appends a new one.
func (v *Value) Set(key string, value *Value) bool {
	if v.Kind() != Object {
		return false
	}
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			v.members[i].Value = value
			return true
		}
	}
	v.members = append(v.members, Member{Key: key, Value: value})
	return true
}
