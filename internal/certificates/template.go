package certificates

import (
	"regexp"

	"github.com/eventia/backend/internal/models"
)

// Placeholder vocabulary, consumed by the admin template editor.
const (
	PlaceholderParticipantName  = "NAMA_PESERTA"
	PlaceholderParticipantEmail = "EMAIL_PESERTA"
	PlaceholderEventName        = "NAMA_EVENT"
	PlaceholderEventDate        = "TANGGAL_EVENT"
	PlaceholderIssueDate        = "TANGGAL_TERBIT"
	PlaceholderEventCity        = "KOTA_EVENT"
	PlaceholderNumber           = "NOMOR_SERTIFIKAT"
	PlaceholderOrganizer        = "PENYELENGGARA"
)

var placeholderRe = regexp.MustCompile(`\[([A-Z_]+)\]`)

// Rendered is a template with every placeholder substituted, ready for
// PDF layout downstream.
type Rendered struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Content   string `json:"content"`
	Footer    string `json:"footer"`
	Signature string `json:"signature"`
}

// Render substitutes [PLACEHOLDER] tokens in every template section.
// Unresolved placeholders render as empty strings, never literally.
func Render(t *models.CertificateTemplate, values map[string]string) Rendered {
	return Rendered{
		Title:     substitute(t.Title, values),
		Subtitle:  substitute(t.Subtitle, values),
		Content:   substitute(t.Content, values),
		Footer:    substitute(t.Footer, values),
		Signature: substitute(t.Signature, values),
	}
}

func substitute(s string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		return values[m[1:len(m)-1]]
	})
}

// defaultTemplate is used when no active template is configured.
var defaultTemplate = models.CertificateTemplate{
	Name:      "default",
	Title:     "SERTIFIKAT",
	Subtitle:  "diberikan kepada",
	Content:   "[NAMA_PESERTA] atas partisipasinya dalam [NAMA_EVENT] pada [TANGGAL_EVENT] di [KOTA_EVENT].",
	Footer:    "Nomor: [NOMOR_SERTIFIKAT] - Diterbitkan [TANGGAL_TERBIT]",
	Signature: "[PENYELENGGARA]",
}
