package timedex

import (
	"testing"
	"time"
)

func TestMarshalDeterministic(t *testing.T) {
	type rec struct {
		Type string `json:"type"`
		A    int    `json:"a"`
		B    string `json:"b"`
	}

	b1, err := Marshal(rec{Type: "x", A: 1, B: "two"})
	if err != nil {
		t.Fatal(err)
	}
	b2, err := Marshal(rec{Type: "x", A: 1, B: "two"})
	if err != nil {
		t.Fatal(err)
	}
	if b1.Ref() != b2.Ref() {
		t.Error("identical records produced different refs")
	}

	b3, err := Marshal(rec{Type: "x", A: 2, B: "two"})
	if err != nil {
		t.Fatal(err)
	}
	if b1.Ref() == b3.Ref() {
		t.Error("distinct records produced the same ref")
	}
}

func TestEdgeOrder(t *testing.T) {
	t1, err := time.Parse(time.RFC3339, "1977-08-05T13:00:00-04:00")
	if err != nil {
		t.Fatal(err)
	}
	t2 := t1.Add(time.Hour)

	r1 := Ref{1}
	r2 := Ref{2}

	cases := []struct {
		edges []Edge
		want  Ref
		ok    bool
	}{
		{},
		{
			edges: []Edge{{Target: r1, At: t1}},
			want:  r1,
			ok:    true,
		},
		{
			edges: []Edge{{Target: r1, At: t2}, {Target: r2, At: t1}},
			want:  r1,
			ok:    true,
		},
		{
			edges: []Edge{{Target: r1, At: t1}, {Target: r2, At: t1}},
			want:  r2, // same timestamp: greater target wins
			ok:    true,
		},
	}

	for i, tc := range cases {
		got, ok := Newest(tc.edges)
		if ok != tc.ok {
			t.Errorf("case %d: got ok=%v, want %v", i, ok, tc.ok)
			continue
		}
		if ok && got.Target != tc.want {
			t.Errorf("case %d: got %s, want %s", i, got.Target, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "zero interval", cfg: Config{DirectLimit: 1, SpamLimit: 1}, wantErr: true},
		{name: "zero direct limit", cfg: Config{Interval: time.Second, SpamLimit: 1}, wantErr: true},
		{name: "spam below direct", cfg: Config{Interval: time.Second, DirectLimit: 5, SpamLimit: 4}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("got no error, want one")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("got error %v, want none", err)
			}
		})
	}
}
