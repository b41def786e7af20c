package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResultViewWithFlag(t *testing.T) {
	v := NewResultView(ScoreResult{Score: 92, Flag: "FLAG{ok}"}, 90)

	assert.Equal(t, "Score: 92%", v.ScoreText)
	assert.Equal(t, "FLAG{ok}", v.Flag)
	assert.Empty(t, v.Hint)
}

func TestNewResultViewWithoutFlag(t *testing.T) {
	v := NewResultView(ScoreResult{Score: 40}, 90)

	assert.Equal(t, "Score: 40%", v.ScoreText)
	assert.Empty(t, v.Flag)
	assert.Contains(t, v.Hint, "Below 90%")
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "Answered 0/3", Progress{Total: 3}.Text())
}
