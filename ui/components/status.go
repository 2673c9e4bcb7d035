package components

import (
	"strings"

	"github.com/gitalky/gitalky/ui/styles"
)

func RenderStatus(status string, width int) string {
	if strings.HasPrefix(status, "Error:") {
		return styles.ErrorStatusStyle(width).Render(status)
	}
	return styles.StatusStyle(width).Render(status)
}
