package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubLookup map[string]bool

func (s stubLookup) UsernameExists(_ context.Context, username string) (bool, error) {
	return s[username], nil
}

func TestLoginBase(t *testing.T) {
	cases := map[string]string{
		"Ahmad Fauzi":           "ahmad.fauzi",
		"  Siti   Nur  Aisyah ": "siti.nur.aisyah",
		"Muh. Rizky":            "muh.rizky",
		"José O'Neil":           "jose.oneil",
		"Andi\tPratama 2":       "andi.pratama.2",
		"!!!":                   "user",
	}
	for in, want := range cases {
		assert.Equal(t, want, LoginBase(in), in)
	}
}

func TestLoginIDReservesWithinBatch(t *testing.T) {
	g := NewGenerator(stubLookup{})
	ctx := context.Background()

	first, err := g.LoginID(ctx, "Ahmad Fauzi")
	require.NoError(t, err)
	second, err := g.LoginID(ctx, "Ahmad Fauzi")
	require.NoError(t, err)

	assert.Equal(t, "ahmad.fauzi", first)
	assert.Equal(t, "ahmad.fauzi1", second)
	assert.True(t, g.Reserved(second))
}

func TestLoginIDSkipsStoredIdentifiers(t *testing.T) {
	g := NewGenerator(stubLookup{"ahmad.fauzi": true, "ahmad.fauzi1": true})

	id, err := g.LoginID(context.Background(), "Ahmad Fauzi")
	require.NoError(t, err)
	assert.Equal(t, "ahmad.fauzi2", id)
}

func TestReleaseFreesIdentifier(t *testing.T) {
	g := NewGenerator(stubLookup{})
	ctx := context.Background()

	id, err := g.LoginID(ctx, "Budi")
	require.NoError(t, err)
	g.Release(id)

	again, err := g.LoginID(ctx, "Budi")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestLoginIDPropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	g := NewGenerator(LookupFunc(func(context.Context, string) (bool, error) { return false, boom }))

	_, err := g.LoginID(context.Background(), "Budi")
	assert.ErrorIs(t, err, boom)
}

func TestLoginIDExhausted(t *testing.T) {
	g := NewGenerator(LookupFunc(func(context.Context, string) (bool, error) { return true, nil }))

	_, err := g.LoginID(context.Background(), "Budi")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDefaultCredential(t *testing.T) {
	assert.Equal(t, "ahmad15", DefaultCredential("Ahmad Fauzi", 15))
	assert.Equal(t, "siti05", DefaultCredential("Siti Nurhaliza", 5))
	assert.Equal(t, "muh", DefaultCredential("Muh. Rizky", 0))
	assert.Equal(t, "ani", DefaultCredential("Ani", 40))
	assert.Equal(t, FallbackCredential, DefaultCredential("A Budiman", 0))
	assert.Equal(t, FallbackCredential, DefaultCredential("", 0))
	assert.Equal(t, "a07", DefaultCredential("A Budiman", 7))
}

func TestHashMatches(t *testing.T) {
	hashed, err := Hash("ahmad15", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Matches(hashed, "ahmad15"))
	assert.False(t, Matches(hashed, "ahmad16"))
}
