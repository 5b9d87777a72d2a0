package headers

import (
	"net/http"
	"testing"
)

// This check is important because, otherwise, index expressions
// involving a http.Header and one of those names would yield
// unexpected results.
func TestThatAllRelevantHeaderNamesAreInCanonicalFormat(t *testing.T) {
	headerNames := []string{
		Origin,
		ACRM,
		ACRH,
		ACAO,
		ACAC,
		ACAM,
		ACAH,
		ACMA,
		ACEH,
		ContentLength,
		ContentType,
		Vary,
	}
	for _, name := range headerNames {
		if http.CanonicalHeaderKey(name) != name {
			t.Errorf("header name %q is not in canonical format", name)
		}
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: "", want: false},
		{name: "Content-Type", want: true},
		{name: "x-request-id", want: true},
		{name: "()", want: false},
		{name: "foo bar", want: false},
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

func TestFirst(t *testing.T) {
	cases := []struct {
		desc      string
		hdrs      http.Header
		want      string
		wantFound bool
	}{
		{
			desc: "absent",
			hdrs: http.Header{},
		}, {
			desc: "nil slice",
			hdrs: http.Header{Origin: nil},
		}, {
			desc:      "empty value",
			hdrs:      http.Header{Origin: {""}},
			want:      "",
			wantFound: true,
		}, {
			desc:      "several values",
			hdrs:      http.Header{Origin: {"https://example.com", "https://example.org"}},
			want:      "https://example.com",
			wantFound: true,
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			got, found := First(tc.hdrs, Origin)
			if got != tc.want || found != tc.wantFound {
				const tmpl = "got %q, %t; want %q, %t"
				t.Errorf(tmpl, got, found, tc.want, tc.wantFound)
			}
		}
		t.Run(tc.desc, f)
	}
}

func TestJoin(t *testing.T) {
	cases := []struct {
		elems []string
		want  string
	}{
		{elems: nil, want: ""},
		{elems: []string{"GET"}, want: "GET"},
		{elems: []string{"GET", "POST"}, want: "GET, POST"},
	}
	for _, tc := range cases {
		if got := Join(tc.elems); got != tc.want {
			t.Errorf("Join(%q): got %q; want %q", tc.elems, got, tc.want)
		}
	}
}

func TestContainsToken(t *testing.T) {
	cases := []struct {
		desc  string
		vs    []string
		token string
		want  bool
	}{
		{desc: "no lines", vs: nil, token: Origin},
		{desc: "single match", vs: []string{"Origin"}, token: Origin, want: true},
		{desc: "case-insensitive", vs: []string{"accept, origin"}, token: Origin, want: true},
		{desc: "ows", vs: []string{"Accept ,  Origin  "}, token: Origin, want: true},
		{desc: "second line", vs: []string{"Accept", "Origin"}, token: Origin, want: true},
		{desc: "substring only", vs: []string{"X-Origin"}, token: Origin},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			if got := ContainsToken(tc.vs, tc.token); got != tc.want {
				const tmpl = "%q: got %t; want %t"
				t.Errorf(tmpl, tc.vs, got, tc.want)
			}
		}
		t.Run(tc.desc, f)
	}
}
