// Package headless provides display containers without a screen. The daemon
// uses them to drive panels from the diagnostics API and to report what each
// panel would render.
package headless

import (
	"github.com/rs/zerolog"

	"github.com/ManuGH/avatarcache/internal/avatar/media"
	xglog "github.com/ManuGH/avatarcache/internal/log"
)

// Container records the element it hosts and whether the placeholder is shown.
type Container struct {
	id          string
	mounted     media.Element
	opts        media.Options
	placeholder bool
	logger      zerolog.Logger
}

// View is the JSON form of a container.
type View struct {
	ID          string        `json:"id"`
	Element     string        `json:"element,omitempty"`
	Playing     bool          `json:"playing"`
	Placeholder bool          `json:"placeholder"`
	Options     media.Options `json:"options"`
}

// New returns an empty container showing its placeholder.
func New(id string) *Container {
	return &Container{
		id:          id,
		placeholder: true,
		logger: xglog.Derive(func(c *zerolog.Context) {
			*c = c.Str(xglog.FieldComponent, "headless").Str(xglog.FieldPanelID, id)
		}),
	}
}

func (c *Container) ID() string { return c.id }

func (c *Container) Mount(el media.Element, opts media.Options) {
	c.mounted = el
	c.opts = opts
	c.logger.Debug().Str(xglog.FieldEvent, "panel.mount").Str(xglog.FieldElementID, el.ID()).Msg("element mounted")
}

func (c *Container) Unmount(el media.Element) {
	if c.mounted == nil || c.mounted.ID() != el.ID() {
		return
	}
	c.mounted = nil
	c.placeholder = true
	c.logger.Debug().Str(xglog.FieldEvent, "panel.unmount").Str(xglog.FieldElementID, el.ID()).Msg("element unmounted")
}

func (c *Container) Apply(opts media.Options) { c.opts = opts }

func (c *Container) ShowPlaceholder() { c.placeholder = true }

func (c *Container) Reveal() { c.placeholder = false }

// View describes the container. Call on the event loop.
func (c *Container) View() View {
	v := View{ID: c.id, Placeholder: c.placeholder, Options: c.opts}
	if c.mounted != nil {
		v.Element = c.mounted.ID()
		v.Playing = !c.mounted.Paused()
	}
	return v
}
