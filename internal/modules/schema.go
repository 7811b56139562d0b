package modules

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrStatus marks a non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrSchema marks a body that is not JSON or lacks a required field.
	ErrSchema = errors.New("response does not match schema")
	// ErrTooLarge marks a body over the read limit.
	ErrTooLarge = errors.New("response body too large")
)

// Type is the JSON type a field must have.
type Type int

const (
	String Type = iota
	Number
	Bool
	Array
	Object
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

func (t Type) match(r gjson.Result) bool {
	switch t {
	case String:
		return r.Type == gjson.String
	case Number:
		return r.Type == gjson.Number
	case Bool:
		return r.IsBool()
	case Array:
		return r.IsArray()
	case Object:
		return r.IsObject()
	default:
		return false
	}
}

// Field is one path a document must carry. Items, when set on an Array
// field, is checked against every element.
type Field struct {
	Path     string
	Type     Type
	Optional bool
	Items    Schema
}

// Schema is a list of required (or optional but typed) fields.
type Schema []Field

// Validate parses body and checks it against the schema.
func (s Schema) Validate(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: body is not valid JSON", ErrSchema)
	}
	doc := gjson.ParseBytes(body)
	if err := s.check(doc, ""); err != nil {
		return gjson.Result{}, err
	}
	return doc, nil
}

func (s Schema) check(doc gjson.Result, prefix string) error {
	for _, f := range s {
		r := doc.Get(f.Path)
		where := prefix + f.Path
		if !r.Exists() || r.Type == gjson.Null {
			if f.Optional {
				continue
			}
			return fmt.Errorf("%w: missing %s", ErrSchema, where)
		}
		if !f.Type.match(r) {
			return fmt.Errorf("%w: %s is not a %s", ErrSchema, where, f.Type)
		}
		if f.Type != Array || len(f.Items) == 0 {
			continue
		}
		for i, item := range r.Array() {
			if err := f.Items.check(item, fmt.Sprintf("%s[%d].", where, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
