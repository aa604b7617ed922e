package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/avatar/mediatest"
)

func TestContainer_MountRevealUnmount(t *testing.T) {
	stack := mediatest.NewStack()
	el := stack.NewElement("idle")
	other := stack.NewElement("happy")

	c := New("stage")
	assert.Equal(t, View{ID: "stage", Placeholder: true}, c.View())

	opts := media.Options{Position: "center", Fit: media.FitCover, Scale: 1}
	c.Mount(el, opts)
	c.Reveal()
	el.Play()

	v := c.View()
	assert.Equal(t, el.ID(), v.Element)
	assert.True(t, v.Playing)
	assert.False(t, v.Placeholder)
	assert.Equal(t, opts, v.Options)

	c.Unmount(other) // not mounted here
	assert.Equal(t, el.ID(), c.View().Element)

	c.Unmount(el)
	v = c.View()
	assert.Empty(t, v.Element)
	assert.True(t, v.Placeholder)
}
