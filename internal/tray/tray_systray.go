//go:build !stub

package tray

import (
	"github.com/getlantern/systray"

	"github.com/runegard/runegard/internal/lifecycle"
)

// run blocks in the systray loop until quitPlatform. On macOS the loop is
// handed to the main thread served by Main.
func (p *Presenter) run(menu lifecycle.Menu) error {
	uiThread.do(func() {
		systray.Run(func() { p.onReady(menu) }, func() {})
	}, p.quit)
	return nil
}

func (p *Presenter) onReady(menu lifecycle.Menu) {
	if !p.markReady() {
		systray.Quit()
		return
	}

	systray.SetIcon(p.opts.Icon)
	systray.SetTooltip(p.opts.Tooltip)
	if p.opts.Title != "" {
		systray.SetTitle(p.opts.Title)
	}

	mOpen := systray.AddMenuItem("Settings", "Open the settings page")
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Stop listening and quit")

	go p.listen(menu, mOpen.ClickedCh, mExit.ClickedCh)
}

func (p *Presenter) quitPlatform() {
	systray.Quit()
}
