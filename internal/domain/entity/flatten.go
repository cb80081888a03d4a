package entity

import (
	"strings"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

// TokenSeparator separa los elementos de las listas aplanadas. Cada elemento
// va seguido del separador: "Admin,Editor,".
const TokenSeparator = docstore.TokenSeparator

var (
	tokenEscaper   = strings.NewReplacer("%", "%25", ",", "%2C", "|", "%7C")
	tokenUnescaper = strings.NewReplacer("%25", "%", "%2C", ",", "%7C", "|")
)

// EscapeToken protege separadores dentro de un valor para que la lista
// admita remoción por token exacto.
func EscapeToken(s string) string { return tokenEscaper.Replace(s) }

// UnescapeToken es el inverso de EscapeToken.
func UnescapeToken(s string) string { return tokenUnescaper.Replace(s) }

// SplitTokens retorna los elementos no vacíos de una lista aplanada.
func SplitTokens(list string) []string {
	var out []string
	for _, t := range strings.Split(list, TokenSeparator) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HasToken reporta si la lista contiene el token exacto.
func HasToken(list, token string) bool { return docstore.HasToken(list, token) }

// AppendToken agrega token al final si no estaba.
func AppendToken(list, token string) string {
	if token == "" || HasToken(list, token) {
		return list
	}
	if list != "" && !strings.HasSuffix(list, TokenSeparator) {
		list += TokenSeparator
	}
	return list + token + TokenSeparator
}

// RemoveToken quita todas las apariciones del token exacto. "Admin" no
// afecta a "Admin2".
func RemoveToken(list, token string) string {
	var b strings.Builder
	for _, t := range SplitTokens(list) {
		if t == token {
			continue
		}
		b.WriteString(t)
		b.WriteString(TokenSeparator)
	}
	return b.String()
}
