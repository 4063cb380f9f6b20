//go:build stub

package tray

import "github.com/runegard/runegard/internal/lifecycle"

// run keeps a headless "tray" alive until Stop
func (p *Presenter) run(menu lifecycle.Menu) error {
	p.markReady()
	<-p.quit
	return nil
}

func (p *Presenter) quitPlatform() {}
