package render

import "github.com/gdamore/tcell/v2"

// WatchQuit polls the screen until q, Esc or Ctrl-C is pressed, then closes
// quit. It returns when the screen is finalized.
func WatchQuit(screen tcell.Screen, quit chan<- struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if isQuitKey(ev) {
				close(quit)
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}
