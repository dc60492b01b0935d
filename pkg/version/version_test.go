package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_ReflectsBuildVariables(t *testing.T) {
	info := Info()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestString_ContainsVersionAndPlatform(t *testing.T) {
	s := String()

	assert.Contains(t, s, "codeturtle")
	assert.Contains(t, s, Version)
	assert.Contains(t, s, runtime.GOOS)
}
