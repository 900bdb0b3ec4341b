package http

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedLinkHeader is returned for Link headers that do not follow the
// `<uri>; param=value, ...` grammar.
var ErrMalformedLinkHeader = errors.New("malformed Link header")

// link is one entry of a Link header.
type link struct {
	URI    string
	Rels   []string
	Params map[string]string
}

func (l link) hasRel(rel string) bool {
	for _, candidate := range l.Rels {
		if strings.EqualFold(candidate, rel) {
			return true
		}
	}

	return false
}

// parseLinkHeaders parses every Link header value. Multiple values are
// equivalent to one comma-joined value.
func parseLinkHeaders(values []string) ([]link, error) {
	var links []link

	for _, value := range values {
		parsed, err := parseLinkHeader(value)
		if err != nil {
			return nil, err
		}

		links = append(links, parsed...)
	}

	return links, nil
}

func parseLinkHeader(value string) ([]link, error) {
	var links []link

	rest := value

	for {
		rest = strings.TrimLeft(rest, " \t,")
		if rest == "" {
			return links, nil
		}

		if rest[0] != '<' {
			return nil, fmt.Errorf("%w: expected '<' in %q", ErrMalformedLinkHeader, value)
		}

		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated URI in %q", ErrMalformedLinkHeader, value)
		}

		current := link{
			URI:    strings.TrimSpace(rest[1:end]),
			Params: make(map[string]string),
		}

		rest = strings.TrimLeft(rest[end+1:], " \t")

		for strings.HasPrefix(rest, ";") {
			var (
				name, paramValue string
				err              error
			)

			name, paramValue, rest, err = parseLinkParam(rest[1:])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, value)
			}

			if _, seen := current.Params[name]; !seen {
				current.Params[name] = paramValue
			}

			rest = strings.TrimLeft(rest, " \t")
		}

		if rest != "" && rest[0] != ',' {
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrMalformedLinkHeader, rest[:1], value)
		}

		if rel, ok := current.Params["rel"]; ok {
			current.Rels = strings.Fields(rel)
		}

		links = append(links, current)
	}
}

// parseLinkParam reads `name[=value]` and returns the remaining input.
func parseLinkParam(input string) (string, string, string, error) {
	rest := strings.TrimLeft(input, " \t")

	nameEnd := strings.IndexAny(rest, "=;, \t")
	if nameEnd < 0 {
		nameEnd = len(rest)
	}

	name := strings.ToLower(rest[:nameEnd])
	if name == "" {
		return "", "", "", fmt.Errorf("%w: empty parameter name", ErrMalformedLinkHeader)
	}

	rest = strings.TrimLeft(rest[nameEnd:], " \t")
	if !strings.HasPrefix(rest, "=") {
		return name, "", rest, nil
	}

	rest = strings.TrimLeft(rest[1:], " \t")

	if strings.HasPrefix(rest, `"`) {
		var builder strings.Builder

		for i := 1; i < len(rest); i++ {
			switch rest[i] {
			case '\\':
				if i+1 < len(rest) {
					i++
					builder.WriteByte(rest[i])
				}
			case '"':
				return name, builder.String(), rest[i+1:], nil
			default:
				builder.WriteByte(rest[i])
			}
		}

		return "", "", "", fmt.Errorf("%w: unterminated quoted value for %s", ErrMalformedLinkHeader, name)
	}

	valueEnd := strings.IndexAny(rest, ";,")
	if valueEnd < 0 {
		valueEnd = len(rest)
	}

	return name, strings.TrimSpace(rest[:valueEnd]), rest[valueEnd:], nil
}
