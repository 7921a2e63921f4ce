package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsMatchInfo(t *testing.T) {
	v, c, d := Info()

	assert.NotEmpty(t, v)
	assert.Equal(t, v, GetVersion())
	assert.Equal(t, c, GetCommit())
	assert.Equal(t, d, GetDate())
}

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{"version=" + GetVersion(), "commit=" + GetCommit(), "date=" + GetDate()} {
		assert.Contains(t, s, part)
	}
}

func TestClientID(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	version = "1.4.0"
	assert.Equal(t, "parceltrack/1.4.0", ClientID())
	assert.True(t, strings.HasPrefix(ClientID(), "parceltrack/"))
}
