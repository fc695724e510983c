package ids

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func TestAccountNumberShape(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(42)
	pattern := regexp.MustCompile(`^0004\d{4,5}\d$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		num := gen.AccountNumber("04")
		if !pattern.MatchString(num) {
			t.Fatalf("account number %q does not match expected shape", num)
		}
		if !ValidateChecksum(num) {
			t.Fatalf("account number %q fails checksum", num)
		}
		seen[num] = true
	}
	if len(seen) < 190 {
		t.Fatalf("only %d distinct numbers out of 200", len(seen))
	}
}

func TestAccountNumberDeterministic(t *testing.T) {
	t.Parallel()

	a := NewGenerator(7)
	b := NewGenerator(7)
	for i := 0; i < 10; i++ {
		if x, y := a.AccountNumber("02"), b.AccountNumber("02"); x != y {
			t.Fatalf("same seed diverged: %q vs %q", x, y)
		}
	}
}

func TestReferenceShape(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(42)
	pattern := regexp.MustCompile(`^I[A-HJ-NP-Z2-9]{8}-[0-9A-Z]+\d$`)

	prev := ""
	for i := 0; i < 50; i++ {
		ref := gen.Reference('I')
		if !pattern.MatchString(ref) {
			t.Fatalf("reference %q does not match expected shape", ref)
		}
		if !ValidateChecksum(ref) {
			t.Fatalf("reference %q fails checksum", ref)
		}
		if ref == prev {
			t.Fatalf("duplicate reference %q", ref)
		}
		prev = ref
	}
}

func TestReferenceCounterAdvances(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(1)
	first := gen.Reference('D')
	second := gen.Reference('D')

	seq := func(ref string) string {
		i := strings.IndexByte(ref, '-')
		return ref[i+1 : len(ref)-1]
	}
	if seq(first) != "1" || seq(second) != "2" {
		t.Fatalf("sequence parts %q, %q; want 1, 2", seq(first), seq(second))
	}
}

func TestLuhnCheckDigitKnownValues(t *testing.T) {
	t.Parallel()

	// Pinned check digits. The rightmost character is not doubled, doubling
	// starts one position in, undoubled letters contribute their full 10-35
	// value, and the dash is ignored.
	cases := []struct {
		base string
		want int
	}{
		{"00041234", 2},
		{"00029999", 2},
		{"00020000", 8},
		{"IABCDEFGH-1", 6},
		{"DZZZZZZZZ-A3", 4},
	}
	for _, tc := range cases {
		if got := luhnCheckDigit(tc.base); got != tc.want {
			t.Errorf("luhnCheckDigit(%q)=%d, want %d", tc.base, got, tc.want)
		}
		full := tc.base + strconv.Itoa(tc.want)
		if !ValidateChecksum(full) {
			t.Errorf("ValidateChecksum(%q)=false, want true", full)
		}
	}
}

func TestValidateChecksum(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(3)
	num := gen.AccountNumber("01")

	// Flipping any digit of the payload must break the checksum.
	for i := 0; i < len(num)-1; i++ {
		mutated := []byte(num)
		mutated[i] = '0' + (mutated[i]-'0'+1)%10
		if ValidateChecksum(string(mutated)) {
			t.Fatalf("mutation at %d kept checksum valid: %q", i, mutated)
		}
	}

	if ValidateChecksum("") || ValidateChecksum("7") {
		t.Fatalf("short inputs must not validate")
	}
	if ValidateChecksum("0004123A") {
		t.Fatalf("non-digit check position must not validate")
	}
}

func TestULID(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(9)
	a := gen.ULID()
	b := gen.ULID()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("ulid lengths %d, %d", len(a), len(b))
	}
	if a == b {
		t.Fatalf("duplicate ulid %q", a)
	}
	if b < a {
		t.Fatalf("ulids not monotonic: %q then %q", a, b)
	}
}
