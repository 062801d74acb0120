package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToRef(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    *Ref
		wantErr bool
	}{
		{name: "nil", value: nil, want: nil},
		{name: "empty token", value: "", want: nil},
		{name: "composite token", value: "std-1>><<Customer ID", want: &Ref{ID: "std-1", Name: "Customer ID"}},
		{name: "bare id", value: "std-2", want: &Ref{ID: "std-2"}},
		{name: "token with empty name", value: "std-3>><<", want: &Ref{ID: "std-3"}},
		{name: "empty id", value: ">><<name", wantErr: true},
		{name: "structured map", value: map[string]interface{}{"id": "c-1", "name": "Gender"}, want: &Ref{ID: "c-1", Name: "Gender"}},
		{name: "yaml map", value: map[interface{}]interface{}{"id": "c-2", "name": "Region"}, want: &Ref{ID: "c-2", Name: "Region"}},
		{name: "map without id", value: map[string]interface{}{"name": "x"}, want: nil},
		{name: "ref value", value: Ref{ID: "r", Name: "n"}, want: &Ref{ID: "r", Name: "n"}},
		{name: "unsupported", value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRef(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToRef() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRefToken(t *testing.T) {
	ref := Ref{ID: "std-1", Name: "Customer"}
	parsed, err := ParseRefToken(ref.Token())
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if *parsed != ref {
		t.Errorf("expected %+v, got %+v", ref, *parsed)
	}
}

func TestToRefCopiesPointer(t *testing.T) {
	orig := &Ref{ID: "a", Name: "b"}
	got, _ := ToRef(orig)
	got.Name = "changed"
	if orig.Name != "b" {
		t.Error("ToRef must not alias the input reference")
	}
}
