//go:build tinygo || !cgo

package glimpaux

import "errors"

func ui(scene Scene, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
