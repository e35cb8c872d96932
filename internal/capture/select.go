package capture

import "errors"

// PickFunc chooses among multiple sources, typically by prompting the user.
type PickFunc func(sources []Source) (*Source, error)

// ChooseSource resolves which source to capture. An empty list is valid and
// yields nil: the platform layer needs no local selection. A single entry
// is returned without invoking pick, so setups with one display never
// prompt. Longer lists are delegated to pick.
func ChooseSource(sources []Source, pick PickFunc) (*Source, error) {
	switch len(sources) {
	case 0:
		return nil, nil
	case 1:
		src := sources[0]
		return &src, nil
	}
	if pick == nil {
		return nil, errors.New("capture: multiple sources and no picker")
	}
	return pick(sources)
}
