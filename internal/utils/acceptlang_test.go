package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineLocale(t *testing.T) {
	supported := []string{"en", "zh"}
	cases := []struct {
		name, query, accept, want string
	}{
		{"query param wins", "zh-CN", "en-US,en;q=0.9,zh;q=0.8", "zh"},
		{"accept-language order", "", "en-US,en;q=0.9,zh;q=0.8", "en"},
		{"higher q wins", "", "zh;q=0.9,en;q=0.8", "zh"},
		{"default fallback", "", "fr-FR,es;q=0.9", "en"},
		{"garbage query ignored", "??", "zh", "zh"},
		{"nothing given", "", "", "en"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DetermineLocale(c.query, c.accept, supported, "en"))
		})
	}
}

func TestDetermineLocaleDefaultNotSupported(t *testing.T) {
	assert.Equal(t, "zh", DetermineLocale("", "", []string{"zh", "en"}, "fr"))
	assert.Equal(t, "en", DetermineLocale("", "", nil, "fr"))
}
