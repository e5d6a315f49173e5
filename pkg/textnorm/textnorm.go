// Package textnorm normaliza texto para búsquedas: minúsculas y sin diacríticos
// ("Łódź Księgowość" -> "lodz ksiegowosc").
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letras que no se descomponen con NFD.
var special = strings.NewReplacer("ł", "l", "Ł", "l", "ø", "o", "Ø", "o", "ß", "ss", "đ", "d", "Đ", "d")

// SearchKey devuelve la clave normalizada de las partes no vacías, separadas por espacio.
func SearchKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Fold(p))
	}
	return b.String()
}

// Fold pasa a minúsculas y elimina las marcas diacríticas.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, special.Replace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
