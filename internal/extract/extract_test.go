package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockLot_Labeled(t *testing.T) {
	block, lot := BlockLot("Block: 1234 and Lot: 56")
	assert.Equal(t, "1234", block)
	assert.Equal(t, "56", lot)
}

func TestBlockLot_LabeledVariants(t *testing.T) {
	block, lot := BlockLot("BLOCK 812 LOTS 33")
	assert.Equal(t, "812", block)
	assert.Equal(t, "33", lot)
}

func TestBlockLot_BareFallback(t *testing.T) {
	block, lot := BlockLot("1234-56 some text")
	assert.Equal(t, "1234", block)
	assert.Equal(t, "56", lot)
}

func TestBlockLot_LabeledWinsOverBare(t *testing.T) {
	// Both forms present: the labeled pattern must win, the shorthand is
	// only a fallback.
	block, lot := BlockLot("999-11 Block: 1234 and Lot: 56")
	assert.Equal(t, "1234", block)
	assert.Equal(t, "56", lot)
}

func TestBlockLot_NoMatch(t *testing.T) {
	block, lot := BlockLot("no numbers here")
	assert.Empty(t, block)
	assert.Empty(t, lot)
}

func TestIndexNumber(t *testing.T) {
	assert.Equal(t, "805123/2021", IndexNumber("Index No. 805123/2021"))
	assert.Equal(t, "70528/2016E", IndexNumber("case 70528/2016E foo"))
	assert.Empty(t, IndexNumber("no index number"))
}

func TestJudgement(t *testing.T) {
	amount, ok := Judgement("Judgment amount\n$1,234,567.89\nwith interest")
	assert.True(t, ok)
	assert.InDelta(t, 1234567.89, amount, 0.001)

	amount, ok = Judgement("total\n$500,000\n")
	assert.True(t, ok)
	assert.InDelta(t, 500000, amount, 0.001)

	_, ok = Judgement("mentions $5 million in passing")
	assert.False(t, ok)
}

func TestAddress(t *testing.T) {
	text := "the premises known as 123 Ocean Avenue, Brooklyn, NY 11226 together with"
	assert.Equal(t, "123 Ocean Avenue, Brooklyn, NY 11226", Address(text, nil))
}

func TestAddress_AnchorVariants(t *testing.T) {
	assert.Equal(t, "45 Mott Street, New York, NY 10013",
		Address("prem. k/a 45 Mott Street, New York, NY 10013 and more", nil))
	assert.Equal(t, "9 Richmond Terrace, Staten Island, NY 10301",
		Address("lying and being at 9 Richmond Terrace, Staten Island, NY 10301", nil))
}

func TestAddress_ExclusionList(t *testing.T) {
	text := "premises known as 360 Adams Street, Brooklyn, NY 11201 premises known as " +
		"123 Ocean Avenue, Brooklyn, NY 11226"
	// The courthouse's own address is excluded, so the second match wins.
	got := Address(text, []string{"360 Adams Street, Brooklyn, NY 11201"})
	assert.Equal(t, "123 Ocean Avenue, Brooklyn, NY 11226", got)
}

func TestAddress_NoMatch(t *testing.T) {
	assert.Empty(t, Address("no address anchors in this text", nil))
}
