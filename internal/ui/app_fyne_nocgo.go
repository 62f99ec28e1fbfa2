//go:build fyne && !cgo

package ui

import "fmt"

// Run reports that the Fyne editor needs cgo (OpenGL) and a C toolchain.
func Run(_ Options) error {
	return fmt.Errorf("Fyne UI requires cgo (OpenGL). Enable cgo and install a C toolchain, then run: CGO_ENABLED=1 go run -tags fyne ./cmd/infostudio ui [project]")
}
