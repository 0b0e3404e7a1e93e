package intent

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

var DefaultPhrases = []string{
	"quero comprar",
	"vou comprar",
	"aceito",
	"vamos começar",
	"onde pago",
	"como pago",
	"link de pagamento",
	"quero o link",
	"me manda o link",
	"vou assinar",
	"primeira semana",
}

type Detector interface {
	Detect(message, reply string) bool
}

var _ Detector = (*PhraseDetector)(nil)

// PhraseDetector flags purchase intent when any phrase occurs in the
// exchange.
type PhraseDetector struct {
	phrases []string
}

func NewPhraseDetector(phrases []string) *PhraseDetector {
	normalized := pie.Filter(
		pie.Map(phrases, func(p string) string {
			return strings.ToLower(strings.TrimSpace(p))
		}),
		func(p string) bool {
			return p != ""
		},
	)

	return &PhraseDetector{phrases: normalized}
}

func (d *PhraseDetector) Detect(message, reply string) bool {
	_, ok := d.Match(message, reply)
	return ok
}

// Match returns the first phrase found in the exchange.
func (d *PhraseDetector) Match(message, reply string) (string, bool) {
	text := strings.ToLower(message + " " + reply)

	index := pie.FindFirstUsing(d.phrases, func(p string) bool {
		return strings.Contains(text, p)
	})
	if index < 0 {
		return "", false
	}

	return d.phrases[index], true
}
