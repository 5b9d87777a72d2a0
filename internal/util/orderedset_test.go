package util_test

import (
	"slices"
	"testing"

	"github.com/jub0bs/corspolicy/internal/util"
)

func TestOrderedSet(t *testing.T) {
	cases := []struct {
		desc  string
		elems []string
		more  []string
		want  []string
	}{
		{
			desc: "empty set",
			want: []string{},
		}, {
			desc:  "singleton set",
			elems: []string{"GET"},
			want:  []string{"GET"},
		}, {
			desc:  "no dupes",
			elems: []string{"POST", "GET"},
			more:  []string{"PUT", "DELETE"},
			want:  []string{"POST", "GET", "PUT", "DELETE"},
		}, {
			desc:  "some dupes",
			elems: []string{"GET", "POST", "GET"},
			more:  []string{"POST", "PUT"},
			want:  []string{"GET", "POST", "PUT"},
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			set := util.NewOrderedSet(tc.elems...)
			for _, s := range tc.more {
				set.Add(s)
			}
			if size := set.Size(); size != len(tc.want) {
				const tmpl = "got a set of size %d; want %d"
				t.Errorf(tmpl, size, len(tc.want))
			}
			for _, s := range append(tc.elems, tc.more...) {
				if !set.Contains(s) {
					const tmpl = "%v does not contain %q, but it should"
					t.Errorf(tmpl, set, s)
				}
			}
			if set.Contains("CHICKEN") {
				t.Errorf("%v contains %q, but it should not", set, "CHICKEN")
			}
			got := set.ToSlice()
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %q; want %q", got, tc.want)
			}
		}
		t.Run(tc.desc, f)
	}
}

func TestThatOrderedSetToSliceReturnsACopy(t *testing.T) {
	set := util.NewOrderedSet("GET", "POST")
	s := set.ToSlice()
	s[0] = "mutated!"
	if got := set.ToSlice(); got[0] != "GET" {
		t.Errorf("mutating the result of ToSlice altered the set: %q", got)
	}
}
