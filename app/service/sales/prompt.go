package sales

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/shopspring/decimal"
)

//go:embed persona_prompt.txt
var personaPromptTemplate string

const (
	errorExcerptLength = 50

	GreetingReply = "Olá! Como posso ajudar?"
	ApologyReply  = "Desculpe, houve um erro. Pode tentar novamente?"
)

func buildPersona(paymentLink string) string {
	templateValues := map[string]any{
		"payment_link": paymentLink,
	}

	prompt := personaPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	return strings.TrimSpace(prompt)
}

func composePrompt(persona, message, extra string) string {
	var builder strings.Builder

	builder.WriteString(persona)
	if extra = strings.TrimSpace(extra); extra != "" {
		builder.WriteString("\n\nContexto: ")
		builder.WriteString(extra)
	}
	builder.WriteString("\n\nPessoa: ")
	builder.WriteString(message)
	builder.WriteString("\n\nSofia:")

	return builder.String()
}

func offerReply(unitPrice decimal.Decimal, paymentLink string) string {
	return fmt.Sprintf(`🎉 Perfeita escolha! Aqui está seu acesso:

👉 %s

✅ Primeira semana GRÁTIS
✅ Depois R$ %s/mês (79%% OFF)
✅ Cancele quando quiser

Assim que finalizar, recebe acesso imediato! Alguma dúvida? 😊`, paymentLink, formatPrice(unitPrice))
}

func fallbackReply(err error) string {
	excerpt := []rune(err.Error())
	if len(excerpt) > errorExcerptLength {
		excerpt = excerpt[:errorExcerptLength]
	}

	return fmt.Sprintf("Desculpe, tive um problema técnico. Pode repetir? (Erro: %s)", string(excerpt))
}

// formatPrice renders 19.9 as "19,90".
func formatPrice(price decimal.Decimal) string {
	return strings.Replace(price.StringFixed(2), ".", ",", 1)
}
