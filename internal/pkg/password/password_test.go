package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("Valid1Pass!")
	require.NoError(t, err)
	assert.NotEqual(t, "Valid1Pass!", h)
	assert.True(t, Verify("Valid1Pass!", h))
	assert.False(t, Verify("wrong-password", h))
}

func TestVerify_GarbageHash(t *testing.T) {
	assert.False(t, Verify("anything", "not-a-bcrypt-hash"))
}

func TestStrong(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"abc", false},            // too short
		{"alllowercase1!", false}, // no uppercase
		{"ALLUPPER1!", false},     // no lowercase
		{"NoDigits!!", false},
		{"NoSymbol123", false},
		{"Valid1Pass!", true},
		{"Aa1!Aa1!", true}, // exactly at the length boundary
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, Strong(c.pw), "password %q", c.pw)
	}
}

func TestValidEmail(t *testing.T) {
	for _, s := range []string{"bob@example.com", "first.last@sub.example.org"} {
		assert.True(t, ValidEmail(s), s)
	}
	for _, s := range []string{"", "bob", "bob@", "@example.com", "bob@example", "bob@@example.com", "bob@exa mple.com", "bob@example..com"} {
		assert.False(t, ValidEmail(s), s)
	}
}
