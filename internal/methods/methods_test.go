package methods

import "testing"

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: "", want: false},
		{name: "GET", want: true},
		{name: "purge", want: true},
		{name: "M-SEARCH", want: true},
		{name: "()", want: false},
		{name: "GET POST", want: false},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			got := IsValid(tc.name)
			if got != tc.want {
				const tmpl = "%q: got %t; want %t"
				t.Errorf(tmpl, tc.name, got, tc.want)
			}
		}
		t.Run(tc.name, f)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "GET", want: "GET"},
		{name: "post", want: "POST"},
		{name: "GeT", want: "GET"},
		{name: "purge", want: "PURGE"},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			got := Normalize(tc.name)
			if got != tc.want {
				const tmpl = "%q: got %q; want %q"
				t.Errorf(tmpl, tc.name, got, tc.want)
			}
		}
		t.Run(tc.name, f)
	}
}

func TestIsOPTIONS(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: "OPTIONS", want: true},
		{name: "options", want: true},
		{name: "OpTiOnS", want: true},
		{name: "GET", want: false},
		{name: "OPTION", want: false},
		{name: "OPTIONSS", want: false},
		{name: "", want: false},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			got := IsOPTIONS(tc.name)
			if got != tc.want {
				const tmpl = "%q: got %t; want %t"
				t.Errorf(tmpl, tc.name, got, tc.want)
			}
		}
		t.Run(tc.name, f)
	}
}
