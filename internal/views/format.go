package views

import (
	"fmt"
	"strings"

	"billed/internal/models"
)

var shortMonths = [...]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
	"Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// FormatDate renders a stored bill date as "4 Avr. 04".
func FormatDate(raw string) (string, error) {
	t, err := models.ParseDate(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), shortMonths[t.Month()-1], t.Year()%100), nil
}

// FormatStatus renders a review state for display.
func FormatStatus(s models.Status) string {
	switch s {
	case models.StatusPending:
		return "En attente"
	case models.StatusAccepted:
		return "Accepté"
	case models.StatusRefused:
		return "Refusé"
	default:
		return strings.TrimSpace(string(s))
	}
}
