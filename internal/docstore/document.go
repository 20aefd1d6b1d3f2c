package docstore

import (
	"fmt"
	"maps"
)

// Document is the map form of a stored record.
//
// After a round trip through a backend, values are restricted to string,
// int64, bool, []any and map[string]any. Documents built by ToDocument may
// also hold int, []string, map[string]int and []Document; Normalize converts
// them to the restricted set.
type Document map[string]any

// Record is the capability contract a type must satisfy to live in a Collection:
// it can be converted to and from the store's map representation.
type Record interface {
	DocumentID() string
	ToDocument() Document
	FromDocument(Document) error
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Merge returns a copy of d with the top-level fields of patch overwritten.
func (d Document) Merge(patch Document) Document {
	out := make(Document, len(d)+len(patch))
	maps.Copy(out, d)
	maps.Copy(out, patch)
	return out
}

// String returns a required string field.
func (d Document) String(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", Decode(key, fmt.Errorf("missing required field"))
	}
	s, ok := v.(string)
	if !ok {
		return "", Decode(key, fmt.Errorf("expected string, got %T", v))
	}
	return s, nil
}

// OptString returns a string field, or "" if absent.
func (d Document) OptString(key string) (string, error) {
	if _, ok := d[key]; !ok {
		return "", nil
	}
	return d.String(key)
}

// Int returns a required integer field.
func (d Document) Int(key string) (int, error) {
	v, ok := d[key]
	if !ok {
		return 0, Decode(key, fmt.Errorf("missing required field"))
	}
	n, ok := asInt(v)
	if !ok {
		return 0, Decode(key, fmt.Errorf("expected integer, got %T", v))
	}
	return n, nil
}

// OptInt returns an integer field and whether it was present.
func (d Document) OptInt(key string) (int, bool, error) {
	if _, ok := d[key]; !ok {
		return 0, false, nil
	}
	n, err := d.Int(key)
	return n, err == nil, err
}

// Strings returns a string array field. A missing field yields nil.
func (d Document) Strings(key string) ([]string, error) {
	v, ok := d[key]
	if !ok {
		return nil, nil
	}
	switch arr := v.(type) {
	case []string:
		return append([]string(nil), arr...), nil
	case []any:
		out := make([]string, len(arr))
		for i, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return nil, Decode(fmt.Sprintf("%s[%d]", key, i), fmt.Errorf("expected string, got %T", elem))
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, Decode(key, fmt.Errorf("expected array, got %T", v))
	}
}

// Objects returns an array-of-objects field. A missing field yields nil.
func (d Document) Objects(key string) ([]Document, error) {
	v, ok := d[key]
	if !ok {
		return nil, nil
	}
	switch arr := v.(type) {
	case []Document:
		return append([]Document(nil), arr...), nil
	case []any:
		out := make([]Document, len(arr))
		for i, elem := range arr {
			obj, ok := asObject(elem)
			if !ok {
				return nil, Decode(fmt.Sprintf("%s[%d]", key, i), fmt.Errorf("expected object, got %T", elem))
			}
			out[i] = obj
		}
		return out, nil
	default:
		return nil, Decode(key, fmt.Errorf("expected array, got %T", v))
	}
}

// IntMap returns an object field whose values are all integers. A missing field yields an empty map.
func (d Document) IntMap(key string) (map[string]int, error) {
	v, ok := d[key]
	if !ok {
		return map[string]int{}, nil
	}
	switch m := v.(type) {
	case map[string]int:
		return maps.Clone(m), nil
	default:
		obj, ok := asObject(v)
		if !ok {
			return nil, Decode(key, fmt.Errorf("expected object, got %T", v))
		}
		out := make(map[string]int, len(obj))
		for k, elem := range obj {
			n, ok := asInt(elem)
			if !ok {
				return nil, Decode(key+"."+k, fmt.Errorf("expected integer, got %T", elem))
			}
			out[k] = n
		}
		return out, nil
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	default:
		return 0, false
	}
}

func asObject(v any) (Document, bool) {
	switch obj := v.(type) {
	case Document:
		return obj, true
	case map[string]any:
		return Document(obj), true
	default:
		return nil, false
	}
}

// Normalize converts a document into the restricted value set used on the wire.
// Floats, nil values and unsupported types are rejected.
func Normalize(d Document) (Document, error) {
	v, err := normalizeValue(map[string]any(d))
	if err != nil {
		return nil, err
	}
	return Document(v.(map[string]any)), nil
}

func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in documents")
	case string, bool, int64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in documents: %v", val)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case []Document:
		out := make([]any, len(val))
		for i, obj := range val {
			n, err := normalizeValue(map[string]any(obj))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]int:
		out := make(map[string]any, len(val))
		for k, n := range val {
			out[k] = int64(n)
		}
		return out, nil
	case Document:
		return normalizeValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type in document: %T", v)
	}
}
