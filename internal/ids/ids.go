// Package ids generates the externally visible identifiers: ULIDs for
// record ids, Luhn-checksummed account numbers and transaction references.
package ids

import (
	"fmt"
	mathrand "math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// referenceAlphabet excludes the look-alikes I, O, 0 and 1.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const branchCode = "00"

// Generator produces identifiers from an injectable randomness source so
// tests can pin the sequence. The zero value is not usable; construct with
// NewGenerator or Default.
type Generator struct {
	mu      sync.Mutex
	rnd     *mathrand.Rand
	entropy *ulid.MonotonicEntropy
	counter atomic.Uint64
}

// NewGenerator builds a Generator seeded deterministically.
func NewGenerator(seed int64) *Generator {
	rnd := mathrand.New(mathrand.NewSource(seed))
	return &Generator{
		rnd:     rnd,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(seed+1)), 0),
	}
}

// Default builds a time-seeded Generator for production use.
func Default() *Generator {
	return NewGenerator(time.Now().UnixNano())
}

// ULID returns a lexicographically sortable unique id.
func (g *Generator) ULID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// AccountNumber builds a branch-prefixed account number ending in a Luhn
// check digit: branch code, two-digit type code, random digits, check digit.
func (g *Generator) AccountNumber(typeCode string) string {
	g.mu.Lock()
	serial := g.rnd.Intn(100000)
	g.mu.Unlock()
	base := branchCode + typeCode + fmt.Sprintf("%04d", serial)
	return base + strconv.Itoa(luhnCheckDigit(base))
}

// Reference builds a transaction reference: the type letter, eight random
// characters, a dash, an uppercase base-36 sequence number, and a Luhn check
// digit over the whole string.
func (g *Generator) Reference(typeCode byte) string {
	var b strings.Builder
	b.WriteByte(typeCode)
	g.mu.Lock()
	for i := 0; i < 8; i++ {
		b.WriteByte(referenceAlphabet[g.rnd.Intn(len(referenceAlphabet))])
	}
	g.mu.Unlock()
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(strconv.FormatUint(g.counter.Add(1), 36)))
	base := b.String()
	return base + strconv.Itoa(luhnCheckDigit(base))
}

// ValidateChecksum reports whether the identifier's final digit is the
// correct Luhn check digit for the rest of it.
func ValidateChecksum(id string) bool {
	if len(id) < 2 {
		return false
	}
	last := id[len(id)-1]
	if last < '0' || last > '9' {
		return false
	}
	return luhnCheckDigit(id[:len(id)-1]) == int(last-'0')
}

// luhnCheckDigit computes the Luhn check digit over the characters of base,
// skipping anything outside A-Z and 0-9. Letters map to 10 through 35 and
// contribute their full value when not doubled. The rightmost character is
// not doubled; doubling alternates starting from the second from the right,
// and doubled values above 9 are digit-summed.
func luhnCheckDigit(base string) int {
	sum := 0
	alternate := false
	for i := len(base) - 1; i >= 0; i-- {
		c := base[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		default:
			continue
		}
		if alternate {
			v *= 2
			if v > 9 {
				v = v/10 + v%10
			}
		}
		sum += v
		alternate = !alternate
	}
	return (10 - sum%10) % 10
}
