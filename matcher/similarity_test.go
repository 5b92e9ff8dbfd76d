package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("abc", "abc"))
	assert.Equal(t, 0.0, Ratio("", "abc"))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.InDelta(t, 100*4.0/7.0, Ratio("kitten", "sitting"), 1e-9)
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100.0, PartialRatio("doe", "john doe"))
	assert.Equal(t, 100.0, PartialRatio("john doe", "doe"))
	assert.Equal(t, 0.0, PartialRatio("", "doe"))
	assert.InDelta(t, 100*2.0/3.0, PartialRatio("dox", "john doe"), 1e-9)
}

func TestTokenSetRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSetRatio("john.doe", "Doe John"))
	assert.Equal(t, 100.0, TokenSetRatio("doe", "john doe"))
	assert.Equal(t, 100.0, TokenSetRatio("doe doe john", "john doe"))
	assert.Equal(t, 0.0, TokenSetRatio("...", "john"))
	assert.Less(t, TokenSetRatio("jdoe", "john doe"), 100.0)
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSortRatio("doe john", "john_doe"))
	assert.Less(t, TokenSortRatio("doe jon", "john doe"), 100.0)
}

func TestPhoneticCodes(t *testing.T) {
	assert.Equal(t, "", soundex(""))
	assert.Equal(t, "", soundex("123"))
	assert.Equal(t, "", metaphone(""))
	assert.Equal(t, 0.0, soundexMatch("", ""))
	assert.Equal(t, 0.0, metaphoneMatch("", "smith"))
	assert.Equal(t, 1.0, soundexMatch("Smith", "Smyth"))
	assert.Equal(t, 1.0, soundexMatch("robert", "rupert"))
	assert.Equal(t, 0.0, soundexMatch("smith", "jones"))
	assert.Equal(t, 1.0, metaphoneMatch("Smith", "smith99"))
	assert.Equal(t, 0.0, jaroWinkler("", "x"))
	assert.InDelta(t, 100.0, jaroWinkler("martha", "martha"), 1e-9)
}
