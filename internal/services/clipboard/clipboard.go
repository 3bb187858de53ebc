// Package clipboard copies scan results to the system clipboard.
package clipboard

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the platform offers no clipboard utility.
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// CopyPaths writes one path per line, the form shell tools such as xargs expect.
func CopyPaths(copier Copier, paths []string) error {
	if len(paths) == 0 {
		return copier.Copy("")
	}
	return copier.Copy(strings.Join(paths, "\n") + "\n")
}

var _ Copier = (*Service)(nil)
