package money

import "testing"

func TestCeilDiv(t *testing.T) {
	cases := []struct {
		a    Amount
		n    int64
		want Amount
	}{
		{1000000, 10, 100000},
		{1000500, 10, 100050},
		{1000501, 10, 100051},
		{999, 4, 250},
		{0, 10, 0},
	}

	for _, c := range cases {
		if got := CeilDiv(c.a, c.n); got != c.want {
			t.Errorf("CeilDiv(%d, %d) = %d; want %d", c.a, c.n, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"1234.56", 123456},
		{"1234.5", 123450},
		{"1234", 123400},
		{"0.05", 5},
		{".50", 50},
		{"-10.00", -1000},
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d; want %d", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "abc", "1.234", "10,50", "1.-5", "1.+5", "--1", "+1.00"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestString(t *testing.T) {
	if got := Amount(123456).String(); got != "1234.56" {
		t.Fatalf("got %s", got)
	}
	if got := Amount(5).String(); got != "0.05" {
		t.Fatalf("got %s", got)
	}
	if got := Amount(-1000).String(); got != "-10.00" {
		t.Fatalf("got %s", got)
	}
}
