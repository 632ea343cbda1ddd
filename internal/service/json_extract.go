package service

import (
	"regexp"
	"strings"
)

var (
	jsonFenceRe = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	bareFenceRe = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// fencedJSONBlock devuelve el cuerpo del primer bloque ```json. Si no hay, acepta
// un bloque ``` sin etiqueta cuyo cuerpo sea un objeto.
func fencedJSONBlock(content string) (string, bool) {
	content = strings.TrimPrefix(content, "\uFEFF")
	if m := jsonFenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := bareFenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// FirstJSONObject recorta el primer objeto balanceado de input, ignorando llaves
// dentro de strings. Sirve para cuerpos con texto extra alrededor del objeto.
func FirstJSONObject(input string) (string, bool) {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return "", false
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1], true
			}
		}
	}
	return "", false
}
