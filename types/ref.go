package types

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// RefSeparator joins id and name in the composite reference token "id>><<name"
const RefSeparator = ">><<"

// Ref links an information item to a data standard or code table
type Ref struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Token renders the reference in its composite "id>><<name" form
func (r Ref) Token() string {
	return r.ID + RefSeparator + r.Name
}

// ParseRefToken splits a composite "id>><<name" token.
// A token without separator is treated as a bare id.
func ParseRefToken(token string) (*Ref, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	id, name, found := strings.Cut(token, RefSeparator)
	if !found {
		return &Ref{ID: token}, nil
	}
	if id == "" {
		return nil, fmt.Errorf("reference token %q has an empty id", token)
	}
	return &Ref{ID: id, Name: name}, nil
}

// ToRef normalizes any accepted reference encoding into a *Ref.
// Accepted: nil, *Ref, Ref, composite token string, or a map with "id" and "name".
// Returns nil for empty values.
func ToRef(value interface{}) (*Ref, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *Ref:
		if v == nil || v.ID == "" {
			return nil, nil
		}
		cp := *v
		return &cp, nil
	case Ref:
		if v.ID == "" {
			return nil, nil
		}
		return &v, nil
	case string:
		return ParseRefToken(v)
	case map[string]interface{}:
		return refFromMap(v)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[cast.ToString(k)] = val
		}
		return refFromMap(m)
	default:
		return nil, fmt.Errorf("unsupported reference value of type %T", value)
	}
}

func refFromMap(m map[string]interface{}) (*Ref, error) {
	id := cast.ToString(m["id"])
	if id == "" {
		return nil, nil
	}
	return &Ref{ID: id, Name: cast.ToString(m["name"])}, nil
}
