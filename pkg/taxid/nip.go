// Package taxid normaliza y valida el NIP (número de identificación fiscal polaco).
package taxid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// pesos del dígito de control, aplicados a los 9 primeros dígitos de izquierda a derecha.
var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

var ErrNIPLength = errors.New("taxid: el NIP debe tener 10 dígitos")

// Normalize quita separadores y el prefijo de país ("PL 525-000-10-09" -> "5250001009").
func Normalize(nip string) string {
	nip = strings.TrimSpace(nip)
	if len(nip) >= 2 && strings.EqualFold(nip[:2], "PL") {
		nip = nip[2:]
	}
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, nip)
}

// CheckDigit calcula el dígito de control de los 9 primeros dígitos.
// ok=false si la suma módulo 11 da 10: ningún NIP válido empieza así.
func CheckDigit(base string) (digit byte, ok bool, err error) {
	if len(base) < 9 || !allDigits(base[:9]) {
		return 0, false, fmt.Errorf("taxid: se requieren 9 dígitos, recibido %q", base)
	}
	var sum int
	for i := 0; i < 9; i++ {
		sum += int(base[i]-'0') * nipWeights[i]
	}
	r := sum % 11
	if r == 10 {
		return 0, false, nil
	}
	return byte('0' + r), true, nil
}

// ValidateNIP comprueba longitud y dígito de control de un NIP ya normalizado.
func ValidateNIP(nip string) error {
	if len(nip) != 10 || !allDigits(nip) {
		return ErrNIPLength
	}
	expected, ok, err := CheckDigit(nip)
	if err != nil {
		return err
	}
	if !ok || nip[9] != expected {
		return fmt.Errorf("taxid: dígito de control del NIP inválido")
	}
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
