package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo13(t *testing.T) {
	t.Run("known check digit", func(t *testing.T) {
		got, ok := To13("0306406152")
		assert.True(t, ok)
		assert.Equal(t, "9780306406157", got)
	})

	t.Run("hyphenated input", func(t *testing.T) {
		got, ok := To13("0-306-40615-2")
		assert.True(t, ok)
		assert.Equal(t, "9780306406157", got)
	})

	t.Run("malformed input", func(t *testing.T) {
		for _, in := range []string{"", "030640615", "03064061521", "030640615X2", "abcdefghij"} {
			_, ok := To13(in)
			assert.False(t, ok, "input %q", in)
		}
	})
}

func TestTo10(t *testing.T) {
	t.Run("known check digit", func(t *testing.T) {
		got, ok := To10("9780306406157")
		assert.True(t, ok)
		assert.Equal(t, "0306406152", got)
	})

	t.Run("remainder one maps to X", func(t *testing.T) {
		// 097522980 has weighted sum 254, 254 mod 11 == 1.
		got, ok := To10("9780975229804")
		assert.True(t, ok)
		assert.Equal(t, "097522980X", got)
	})

	t.Run("rejects non-978 prefix", func(t *testing.T) {
		_, ok := To10("9790306406157")
		assert.False(t, ok)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, ok := To10("978030640615")
		assert.False(t, ok)
	})
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"0306406152", "0747532699", "0590353403", "097522980X"} {
		thirteen, ok := To13(in)
		if !assert.True(t, ok, "To13(%q)", in) {
			continue
		}
		ten, ok := To10(thirteen)
		assert.True(t, ok)
		assert.Equal(t, in, ten)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "9780306406157", Normalize("978-0-306-40615-7"))
	assert.Equal(t, "0306406152", Normalize("0 306 40615 2"))
}
