package jobtype

// ============================================================================
// Type expressions
//
//   expr    := literal | name ( '<' expr ( ',' expr )* '>' )?
//   literal := quoted-string | integer | float | @true | @false
//
// Strings are single-quoted with \' as the only escape. A bare name stands
// for the unconstrained instance of its class. Format renders the canonical
// form, which Parse reads back to an equal type.
// ============================================================================

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format renders a in canonical form, using registry names for classes.
func (r *Registry) Format(a Arg) (string, error) {
	if !r.Initialised() {
		return "", ErrNotInitialised
	}
	t, ok := a.(*Type)
	if !ok {
		if a == nil {
			return "", fmt.Errorf("jobtype: cannot format a nil argument")
		}
		return a.String(), nil
	}
	var b strings.Builder
	err := writeType(&b, t, func(c *Class) (string, error) {
		name, ok, err := r.ResolveClass(c)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &UnknownNameError{Name: c.name}
		}
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// MustFormat is Format for types known to be registered.
func (r *Registry) MustFormat(a Arg) string {
	s, err := r.Format(a)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse reads a type expression, returning either a *Type or a Literal.
func (r *Registry) Parse(text string) (Arg, error) {
	if !r.Initialised() {
		return nil, ErrNotInitialised
	}
	return r.parse(text)
}

// ParseType reads a type expression that must denote a type.
func (r *Registry) ParseType(text string) (*Type, error) {
	a, err := r.Parse(text)
	if err != nil {
		return nil, err
	}
	t, ok := a.(*Type)
	if !ok {
		return nil, &ParseError{Text: text, Reason: "expected a type but got literal " + a.String()}
	}
	return t, nil
}

func (r *Registry) parse(text string) (Arg, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &ParseError{Text: text, Reason: "empty expression"}
	}

	lit, ok, err := parseLiteral(s)
	if err != nil {
		return nil, &ParseError{Text: text, Reason: err.Error()}
	}
	if ok {
		return lit, nil
	}

	name, argText, hasArgs := s, "", false
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return nil, &ParseError{Text: text, Reason: "unterminated type-argument list"}
		}
		name, argText, hasArgs = strings.TrimSpace(s[:i]), s[i+1:len(s)-1], true
	}
	if !IsIdentifier(name) {
		return nil, &ParseError{Text: text, Reason: fmt.Sprintf("%q is not a valid type name", name)}
	}

	class, ok, err := r.ResolveName(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnknownNameError{Name: name}
	}
	if !hasArgs {
		return Unconstrained(class), nil
	}

	parts, err := splitArgs(argText)
	if err != nil {
		return nil, &ParseError{Text: text, Reason: err.Error()}
	}
	args := make([]Arg, len(parts))
	for i, part := range parts {
		a, err := r.parse(part)
		if err != nil {
			return nil, &ParseError{Text: text, Cause: err}
		}
		args[i] = a
	}

	t, err := New(class, args...)
	if err != nil {
		return nil, &ParseError{Text: text, Cause: err}
	}
	return t, nil
}

// parseLiteral tries each literal form in order: quoted string, integer,
// float, boolean symbol. ok is false when s is not a literal at all.
func parseLiteral(s string) (Literal, bool, error) {
	if s[0] == '\'' {
		str, err := unquote(s)
		if err != nil {
			return nil, false, err
		}
		return StringLit(str), true, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntLit(i), true, nil
	}
	if strings.ContainsRune("+-.0123456789", rune(s[0])) || s == "NaN" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatLit(f), true, nil
		}
	}
	switch s {
	case TrueSymbol:
		return BoolLit(true), true, nil
	case FalseSymbol:
		return BoolLit(false), true, nil
	}
	return nil, false, nil
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", errors.New("unterminated string literal")
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) && body[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		if c == '\'' {
			return "", fmt.Errorf("unescaped quote at offset %d in string literal", i+1)
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// splitArgs splits a type-argument list at its top-level commas. Brackets
// and commas inside a quoted string are ignored.
func splitArgs(s string) ([]string, error) {
	var (
		parts   []string
		depth   int
		start   int
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch {
			case c == '\\' && i+1 < len(s) && s[i+1] == '\'':
				i++
			case c == '\'':
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'':
			inQuote = true
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '>' at offset %d", i)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, errors.New("unterminated string literal")
	}
	if depth != 0 {
		return nil, errors.New("unbalanced '<'")
	}
	parts = append(parts, s[start:])

	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("type argument %d is empty", i)
		}
	}
	return parts, nil
}
