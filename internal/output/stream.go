package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/tyemirov/seshmux/internal/types"
)

const errorUnsupportedFormat = "unsupported output format %q"

// ReportRenderer writes scan reports. Render may be called several times; Flush finishes the document.
type ReportRenderer interface {
	Render(report *types.ScanReport) error
	Flush() error
}

// NewReportRenderer returns the renderer for format.
func NewReportRenderer(format string, stdout io.Writer) (ReportRenderer, error) {
	switch format {
	case types.FormatRaw, "":
		return NewRawReportRenderer(stdout, ShouldColorize(stdout)), nil
	case types.FormatJSON:
		return NewJSONReportRenderer(stdout), nil
	case types.FormatXML:
		return NewXMLReportRenderer(stdout), nil
	default:
		return nil, fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// ShouldColorize reports whether writer is a terminal.
func ShouldColorize(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// IsInteractiveTerminal reports whether both stdin and stdout are terminals.
func IsInteractiveTerminal() bool {
	return ShouldColorize(os.Stdin) && ShouldColorize(os.Stdout)
}
