package broadsheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSubreddit(t *testing.T) {
	r := require.New(t)

	sub, err := NewSubreddit("funny")
	r.NoError(err)
	r.Equal("funny", sub.Name)

	_, err = NewSubreddit("")
	r.Error(err)
}
