package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "Ca phe sua da", FoldDiacritics("Cà phê sữa đá"))
	assert.Equal(t, "Bao cao phan tich Du lieu", FoldDiacritics("Báo cáo phân tích Dữ liệu"))
	assert.Equal(t, "Dong", FoldDiacritics("Đồng"))
	assert.Equal(t, "plain", FoldDiacritics("plain"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "83,333", FormatAmount(83333.33))
}
