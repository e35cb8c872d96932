//go:build !linux

package inhibit

// Inhibitor does nothing on platforms without a freedesktop screensaver
// service.
type Inhibitor struct{}

func New(app string) *Inhibitor {
	return &Inhibitor{}
}

func (i *Inhibitor) Acquire(reason string) error {
	return nil
}

func (i *Inhibitor) Release() error {
	return nil
}
