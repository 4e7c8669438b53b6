package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lower-cases", in: "Arctic Monkeys", want: "arctic monkeys"},
		{name: "strips leading the", in: "The Beatles", want: "beatles"},
		{name: "shouting", in: "THE BEATLES", want: "beatles"},
		{name: "strips leading dj", in: "DJ Shadow", want: "shadow"},
		{name: "strips leading a", in: "A Tribe Called Quest", want: "tribe called quest"},
		{name: "strips trailing band", in: "Dave Matthews Band", want: "dave matthews"},
		{name: "strips trailing music", in: "Kulning Music", want: "kulning"},
		{name: "strips trailing group", in: "Spencer Davis Group", want: "spencer davis"},
		{name: "collapses whitespace", in: "  Sleater   Kinney \t", want: "sleater kinney"},
		{name: "curly quotes", in: "Guns N’ Roses", want: "guns n' roses"},
		{name: "double curly quotes", in: "“Weird Al” Yankovic", want: `"weird al" yankovic`},
		{name: "dash variants", in: "Sleater–Kinney", want: "sleater-kinney"},
		{name: "em dash", in: "Hiss—Golden Messenger", want: "hiss-golden messenger"},
		{name: "fullwidth folds", in: "ＡＢＢＡ", want: "abba"},
		{name: "article only", in: "The", want: "the"},
		{name: "stacked articles", in: "The The Band", want: "the"},
		{name: "empty", in: "", want: ""},
		{name: "keeps inner the", in: "Bring Me The Horizon", want: "bring me the horizon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"The Beatles",
		"the the the dj a band",
		"A Band Music Group",
		"  DJ  Dj   Shadow  ",
		"Sleater – Kinney",
		"The Fillmore",
		"Guns N’ Roses",
		"The Music Band",
		"a",
		"dj the band",
		" The Chapel ",
	}

	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \n b\t\tc "))
	assert.Equal(t, "", CollapseWhitespace(" \t "))
}
