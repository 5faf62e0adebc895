package constant

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"odinc/internal/token"
)

var ErrLiteral = errors.New("malformed literal")

// MakeFromLiteral parses the source text of a literal token.
func MakeFromLiteral(text string, kind token.Kind) (Value, error) {
	switch kind {
	case token.IntLit:
		clean := strings.ReplaceAll(text, "_", "")
		i, ok := new(big.Int).SetString(clean, 0)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrLiteral, text)
		}
		return Value{kind: Integer, i: i}, nil
	case token.FloatLit:
		return parseFloat(strings.ReplaceAll(text, "_", ""), text)
	case token.ImagLit:
		clean := strings.ReplaceAll(strings.TrimSuffix(text, "i"), "_", "")
		im, err := parseFloat(clean, text)
		if err != nil {
			return Value{}, err
		}
		return MakeComplex(MakeInt64(0), im), nil
	case token.RuneLit:
		s, err := unquote(text, '\'')
		if err != nil {
			return Value{}, err
		}
		r := []rune(s)
		if len(r) != 1 {
			return Value{}, fmt.Errorf("%w: %s", ErrLiteral, text)
		}
		return MakeInt64(int64(r[0])), nil
	case token.StringLit:
		s, err := unquote(text, '"')
		if err != nil {
			return Value{}, err
		}
		return MakeString(s), nil
	}
	return Value{}, fmt.Errorf("%w: unexpected token %s", ErrLiteral, kind)
}

func parseFloat(clean, orig string) (Value, error) {
	f, _, err := big.ParseFloat(clean, 10, Prec, big.ToNearestEven)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", ErrLiteral, orig)
	}
	return Value{kind: Float, re: f}, nil
}

// unquote decodes the escapes the lexer accepts: \n \t \r \\ \0 \" \' \xNN.
func unquote(text string, quote byte) (string, error) {
	if len(text) < 2 || text[0] != quote || text[len(text)-1] != quote {
		return "", fmt.Errorf("%w: %s", ErrLiteral, text)
	}
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("%w: %s", ErrLiteral, text)
		}
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '\'':
			sb.WriteByte(body[i])
		case 'x':
			if i+3 > len(body) {
				return "", fmt.Errorf("%w: %s", ErrLiteral, text)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("%w: %s", ErrLiteral, text)
			}
			sb.WriteByte(byte(n))
			i += 2
		default:
			return "", fmt.Errorf("%w: %s", ErrLiteral, text)
		}
	}
	return sb.String(), nil
}
