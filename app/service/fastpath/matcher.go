package fastpath

import (
	"strings"
	"unicode/utf8"

	"github.com/elliotchance/pie/v2"
)

const (
	shortMessageLength = 10

	FillerReply = "Oi! Me conte mais sobre isso..."
)

type Entry struct {
	Trigger string
	Reply   string
}

// DefaultEntries are checked in this order; the first trigger found wins.
var DefaultEntries = []Entry{
	{Trigger: "oi", Reply: "Olá! Sou a Sofia, sua consultora do AppEstoicismo. O que você procura? 😊"},
	{Trigger: "olá", Reply: "Oi! Que bom te ver aqui! Sou a Sofia. Procura por algo específico?"},
	{Trigger: "help", Reply: "Estou aqui para te ajudar a tomar a melhor decisão! Qual a sua dúvida?"},
	{Trigger: "preço", Reply: "O AppEstoicismo custa apenas R$ 19,90/mês com 79% OFF! Primeira semana grátis! 🎉"},
}

type Matcher struct {
	entries []Entry
	filler  bool
}

// NewMatcher builds a matcher over entries. With filler enabled, unmatched
// messages shorter than 10 characters get FillerReply.
func NewMatcher(entries []Entry, filler bool) *Matcher {
	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		trigger := strings.ToLower(strings.TrimSpace(e.Trigger))
		if trigger == "" {
			continue
		}
		normalized = append(normalized, Entry{Trigger: trigger, Reply: e.Reply})
	}

	return &Matcher{
		entries: normalized,
		filler:  filler,
	}
}

// Match returns the canned reply and true on a trigger hit. A non-empty
// reply with false is the short-message filler; an empty reply means the
// message needs a generated answer.
func (m *Matcher) Match(message string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(message))

	index := pie.FindFirstUsing(m.entries, func(e Entry) bool {
		return strings.Contains(text, e.Trigger)
	})
	if index >= 0 {
		return m.entries[index].Reply, true
	}

	if m.filler && utf8.RuneCountInString(text) < shortMessageLength {
		return FillerReply, false
	}

	return "", false
}
