//go:build linux

package inhibit

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	screenSaverName = "org.freedesktop.ScreenSaver"
	screenSaverPath = "/org/freedesktop/ScreenSaver"
	inhibitMethod   = screenSaverName + ".Inhibit"
	unInhibitMethod = screenSaverName + ".UnInhibit"
)

// Inhibitor holds at most one screensaver inhibition.
type Inhibitor struct {
	log    logrus.FieldLogger
	app    string
	conn   *dbus.Conn
	cookie uint32
	held   bool
}

// New returns an inhibitor that identifies itself to the screensaver
// service as app.
func New(app string) *Inhibitor {
	return &Inhibitor{
		log: logrus.WithField("component", "inhibit"),
		app: app,
	}
}

// Acquire asks the screensaver service to stay away, citing reason.
// Calling it while an inhibition is held is an error.
func (i *Inhibitor) Acquire(reason string) error {
	if i.held {
		return fmt.Errorf("inhibition already held (cookie %d)", i.cookie)
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("session bus: %w", err)
	}

	obj := conn.Object(screenSaverName, screenSaverPath)
	call := obj.Call(inhibitMethod, 0, i.app, reason)
	if call.Err != nil {
		return fmt.Errorf("inhibit call: %w", call.Err)
	}

	var cookie uint32
	if err := call.Store(&cookie); err != nil {
		return fmt.Errorf("inhibit reply: %w", err)
	}

	i.conn = conn
	i.cookie = cookie
	i.held = true
	i.log.WithField("cookie", cookie).Debug("screensaver inhibited")
	return nil
}

// Release drops the inhibition. Releasing without holding one is a no-op.
func (i *Inhibitor) Release() error {
	if !i.held {
		return nil
	}

	obj := i.conn.Object(screenSaverName, screenSaverPath)
	call := obj.Call(unInhibitMethod, 0, i.cookie)
	i.held = false
	i.conn = nil
	if call.Err != nil {
		return fmt.Errorf("uninhibit call: %w", call.Err)
	}
	i.log.WithField("cookie", i.cookie).Debug("screensaver inhibition released")
	return nil
}
