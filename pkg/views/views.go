package views

import (
	"fmt"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

//go:generate templ generate

// MailSubject is shared by every notification sent to contributors.
const MailSubject = "Nouveau fichier / Nieuw document"

func documentURL(docDomain, kind, id string) string {
	return fmt.Sprintf("https://%s/%s/%s", docDomain, kind, id)
}

func labelOr(l domain.DocLink) string {
	if l.Label != "" {
		return l.Label
	}
	return l.Target
}
