package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCuisineLabel(t *testing.T) {
	tests := []struct {
		in   string
		want CuisineLabel
	}{
		{"Korean", CuisineKorean},
		{"korean", CuisineKorean},
		{" KOREAN. ", CuisineKorean},
		{`"Italian"`, CuisineItalian},
		{"한식", CuisineKorean},
		{"디저트", CuisineDessert},
		{"Other", CuisineOther},
		{"Peruvian", CuisineOther},
		{"", CuisineOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCuisineLabel(tt.in), "input %q", tt.in)
	}
}

func TestCuisineLabelsCoverKoreanNames(t *testing.T) {
	assert.Len(t, CuisineLabels, 13)
	for _, l := range CuisineLabels {
		assert.True(t, l.Valid(), l)
		assert.NotEmpty(t, l.Korean())
		assert.Equal(t, l, ParseCuisineLabel(l.Korean()))
	}
	assert.False(t, CuisineLabel("Peruvian").Valid())
	assert.Equal(t, "기타", CuisineLabel("Peruvian").Korean())
}

func TestLabelList(t *testing.T) {
	list := labelList()
	assert.Contains(t, list, "Korean, Chinese, Japanese")
	assert.Contains(t, list, "Other")
}
