package components

import (
	"strings"

	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/ui/styles"
)

// RenderPreview draws the proposed command awaiting review, or the edit
// buffer when the user is editing it.
func RenderPreview(preview *models.CommandPreview, editing bool, editBuffer string) string {
	if preview == nil {
		return ""
	}

	var b strings.Builder
	if editing {
		b.WriteString("Edit command:\n")
		b.WriteString(styles.CommandStyle().Render(editBuffer + "█"))
	} else {
		b.WriteString("Proposed command:\n")
		b.WriteString(styles.CommandStyle().Render(preview.Command))
	}

	if preview.IsDangerous && !editing {
		b.WriteString("\n")
		b.WriteString(styles.DangerStyle().Render("⚠ " + preview.Warning))
	}

	return styles.PreviewStyle().Render(b.String())
}

// RenderConfirm draws the dangerous-operation gate with the text typed so
// far.
func RenderConfirm(command, warning, typed string) string {
	var b strings.Builder
	b.WriteString(styles.DangerStyle().Render("⚠ DANGEROUS OPERATION") + "\n")
	if warning != "" {
		b.WriteString(warning + "\n")
	}
	b.WriteString("\n")
	b.WriteString("Command: " + styles.CommandStyle().Render(command) + "\n\n")
	b.WriteString("Type CONFIRM to execute: " + typed + "█")

	if typed != "" && !strings.HasPrefix("CONFIRM", typed) {
		b.WriteString("\n" + styles.DangerStyle().Render("(Must match exactly: CONFIRM)"))
	}

	return styles.DangerBorderStyle().Render(b.String())
}
