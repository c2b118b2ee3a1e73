package main

import (
	"reflect"
	"testing"
)

func TestRewriteOrderLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"pautas"},
			want: []string{"pautas"},
		},
		{
			name: "order code first token",
			in:   []string{"pautas", "1234"},
			want: []string{"pautas", "orders", "show", "1234"},
		},
		{
			name: "order code after value flag",
			in:   []string{"pautas", "--server", "http://planta:8000/api", "1234"},
			want: []string{"pautas", "--server", "http://planta:8000/api", "orders", "show", "1234"},
		},
		{
			name: "order code after equals flag",
			in:   []string{"pautas", "--format=table", "1234"},
			want: []string{"pautas", "--format=table", "orders", "show", "1234"},
		},
		{
			name: "order code after bool flag",
			in:   []string{"pautas", "--pretty", "1234"},
			want: []string{"pautas", "--pretty", "orders", "show", "1234"},
		},
		{
			name: "order code after double dash",
			in:   []string{"pautas", "--", "1234"},
			want: []string{"pautas", "--", "orders", "show", "1234"},
		},
		{
			name: "flag value that looks like a code",
			in:   []string{"pautas", "--profile", "2", "orders", "list"},
			want: []string{"pautas", "--profile", "2", "orders", "list"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"pautas", "orders", "show", "1234"},
			want: []string{"pautas", "orders", "show", "1234"},
		},
		{
			name: "zero is not an order code",
			in:   []string{"pautas", "0"},
			want: []string{"pautas", "0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteOrderLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteOrderLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
