package jsontree

import (
	"errors"
	"testing"
)

func TestParsePreservesMemberOrder(t *testing.T) {
	v, err := Parse([]byte(`{"zeta":1,"alpha":{"b":true,"a":null},"mid":"x"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	members := v.Members()
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, m := range members {
		if m.Key != want[i] {
			t.Fatalf("member %d: got %q want %q", i, m.Key, want[i])
		}
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(out) != `{"zeta":1,"alpha":{"b":true,"a":null},"mid":"x"}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} {"b":2}`)); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
	if _, err := Parse([]byte(`{"a":`)); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestAccessorsAreNilSafe(t *testing.T) {
	var v *Value
	if v.Kind() != Null {
		t.Fatalf("nil kind = %s", v.Kind())
	}
	if _, ok := v.Get("x"); ok {
		t.Fatal("Get on nil should miss")
	}
	if _, ok := v.Path("a", "b"); ok {
		t.Fatal("Path on nil should miss")
	}
	if v.Items() != nil || v.Members() != nil {
		t.Fatal("expected nil slices")
	}
	if v.Truthy() {
		t.Fatal("nil should be falsy")
	}
	if v.Prepend(NewString("x")) {
		t.Fatal("Prepend on nil should fail")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`null`, false},
		{`false`, false},
		{`true`, true},
		{`0`, false},
		{`0.0`, false},
		{`12`, true},
		{`""`, false},
		{`"no"`, true},
		{`[]`, true},
		{`{}`, true},
	}
	for _, tc := range cases {
		v, err := Parse([]byte(tc.raw))
		if err != nil {
			t.Fatalf("Parse(%s): %v", tc.raw, err)
		}
		if got := v.Truthy(); got != tc.want {
			t.Errorf("Truthy(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestScalarCanonicalizesIntegers(t *testing.T) {
	cases := map[string]string{
		`80100172`:    "80100172",
		`8.0100172e7`: "80100172",
		`" 81234 "`:   "81234",
		`1.5`:         "1.5",
	}
	for raw, want := range cases {
		v, err := Parse([]byte(raw))
		if err != nil {
			t.Fatalf("Parse(%s): %v", raw, err)
		}
		got, ok := v.Scalar()
		if !ok || got != want {
			t.Errorf("Scalar(%s) = %q,%v want %q", raw, got, ok, want)
		}
	}
	if _, ok := NewArray().Scalar(); ok {
		t.Fatal("arrays are not scalars")
	}
}

func TestPrependAndEncodeWithoutHTMLEscaping(t *testing.T) {
	v, err := Parse([]byte(`{"profiles":["heaac-2-dash"],"note":"<b>&"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	profiles, _ := v.Get("profiles")
	if !profiles.Prepend(NewString("webvtt-lssdh-ios8")) {
		t.Fatal("Prepend failed")
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"profiles":["webvtt-lssdh-ios8","heaac-2-dash"],"note":"<b>&"}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}

func TestGetLastDuplicateWins(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, _ := v.Get("a")
	if n, _ := got.Number(); n != "2" {
		t.Fatalf("expected last duplicate, got %s", n)
	}
}
