// Package inhibit keeps the desktop screensaver and idle lock from
// activating while a share is running. On Linux it talks to
// org.freedesktop.ScreenSaver over the session bus; elsewhere it is a
// no-op. Failures are expected on headless systems and should be treated
// as advisory.
package inhibit
