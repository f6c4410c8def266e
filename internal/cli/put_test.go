package cli

import "testing"

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		raw  bool
		want string
	}{
		{`{"a":1}`, false, `{"a":1}`},
		{`42`, false, `42`},
		{`hello world`, false, `"hello world"`},
		{`42`, true, `"42"`},
		{`say "hi"`, false, `"say \"hi\""`},
	}
	for _, c := range cases {
		got, err := parseValue(c.in, c.raw)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("%q (raw=%v): expected %s, got %s", c.in, c.raw, c.want, got)
		}
	}
}
