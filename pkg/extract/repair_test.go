package extract

import "testing"

func TestRepair(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{'a': 'x'}`, `{"a": "x"}`},
		{`{"a": [1, 2,],}`, `{"a": [1, 2]}`},
		{"{\"a\": 1,\n}", "{\"a\": 1\n}"},
		{`{'a': None}`, `{"a": "None"}`},
		{`{'a': Nones}`, `{"a": Nones}`},
		{`{'c': True, 'd': [False]}`, `{"c": true, "d": [false]}`},
		{`{'c': 'True story', 'd': Trueish}`, `{"c": "True story", "d": Trueish}`},
		{`{"a, b": "c,}"}`, `{"a, b": "c,}"}`},
		{`{"esc": "a\"b'c"}`, `{"esc": "a\"b'c"}`},
		{`{'esc': 'a\nb'}`, `{"esc": "a\nb"}`},
		{`{'unterminated`, `{"unterminated"`},
	}

	for _, tt := range tests {
		if got := repair(tt.in); got != tt.want {
			t.Errorf("repair(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
