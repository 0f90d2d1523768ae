package notify

import "github.com/gen2brain/beeep"

// desktopNotify is a seam for tests; beeep talks to the native notification
// service and has no fake of its own.
var desktopNotify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}
