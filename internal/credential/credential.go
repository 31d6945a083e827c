// Package credential derives login identifiers and one-time default
// passwords for onboarded accounts.
package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// FallbackCredential is used when a name yields too short a default password.
const FallbackCredential = "password123"

const (
	minCredentialLen = 3
	maxProbes        = 1000
	fallbackBase     = "user"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reLoginChars = regexp.MustCompile(`[^a-z0-9.]`)
	reDots       = regexp.MustCompile(`\.{2,}`)

	// ErrExhausted is returned when no free identifier is found within the probe limit.
	ErrExhausted = errors.New("credential: login identifier space exhausted")
)

// stripMarks lowercases s and removes combining marks, so "José" becomes "jose".
func stripMarks(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoginBase turns a full name into the collision-free candidate root,
// e.g. "Ahmad Fauzi" -> "ahmad.fauzi".
func LoginBase(fullName string) string {
	s := stripMarks(strings.TrimSpace(fullName))
	s = reWhitespace.ReplaceAllString(s, ".")
	s = reLoginChars.ReplaceAllString(s, "")
	s = reDots.ReplaceAllString(s, ".")
	s = strings.Trim(s, ".")
	if s == "" {
		return fallbackBase
	}
	return s
}

// Lookup reports whether a login identifier is already stored.
type Lookup interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, username string) (bool, error)

// UsernameExists implements Lookup.
func (f LookupFunc) UsernameExists(ctx context.Context, username string) (bool, error) {
	return f(ctx, username)
}

// Generator allocates login identifiers for one batch. Every identifier it
// returns stays reserved until Release, so rows of the same batch never
// receive the same value even before they are committed.
type Generator struct {
	lookup Lookup

	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewGenerator builds a Generator probing against lookup.
func NewGenerator(lookup Lookup) *Generator {
	return &Generator{lookup: lookup, reserved: make(map[string]struct{})}
}

// LoginID probes base, base1, base2, ... and reserves the first free value.
func (g *Generator) LoginID(ctx context.Context, fullName string) (string, error) {
	base := LoginBase(fullName)

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < maxProbes; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		if _, taken := g.reserved[candidate]; taken {
			continue
		}
		exists, err := g.lookup.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe login %q: %w", candidate, err)
		}
		if exists {
			continue
		}
		g.reserved[candidate] = struct{}{}
		return candidate, nil
	}
	return "", ErrExhausted
}

// Release frees a reservation whose row was not committed.
func (g *Generator) Release(id string) {
	g.mu.Lock()
	delete(g.reserved, id)
	g.mu.Unlock()
}

// Reserved reports whether id is held by this batch.
func (g *Generator) Reserved(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.reserved[id]
	return ok
}

// DefaultCredential derives the one-time password from the first name and a
// day of month (birth day, or the current day when unknown). day outside
// 1..31 is ignored.
func DefaultCredential(fullName string, day int) string {
	first := ""
	if fields := strings.Fields(fullName); len(fields) > 0 {
		first = fields[0]
	}

	var b strings.Builder
	for _, r := range stripMarks(first) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	if day >= 1 && day <= 31 {
		fmt.Fprintf(&b, "%02d", day)
	}

	out := b.String()
	if len(out) < minCredentialLen {
		return FallbackCredential
	}
	return out
}

// Hash bcrypt-hashes a plain credential; cost <= 0 uses bcrypt.DefaultCost.
func Hash(plain string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether plain matches the stored hash.
func Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
