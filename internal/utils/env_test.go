package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeEnv(t *testing.T) {
	const key = "_OBE_TEST_SAFEENV"
	t.Setenv(key, "")
	assert.Equal(t, "fallback", SafeEnv(key, "fallback"))
	t.Setenv(key, "value")
	assert.Equal(t, "value", SafeEnv(key, "fallback"))
}

func TestSafeEnvList(t *testing.T) {
	const key = "_OBE_TEST_SAFEENV_LIST"
	t.Setenv(key, " , ")
	assert.Equal(t, []string{"*"}, SafeEnvList(key, []string{"*"}))
	t.Setenv(key, "a, b,,c ")
	assert.Equal(t, []string{"a", "b", "c"}, SafeEnvList(key, nil))
}
