package tunnelengine

import "strings"

// buildArgs substitutes the one recognized placeholder into template:
// "${config}" becomes the path of the rendered client configuration file.
// Any other "${...}" placeholder left unresolved is a ConfigInvalid error.
func buildArgs(template []string, configPath string) ([]string, error) {
	out := make([]string, 0, len(template))
	for _, tok := range template {
		resolved, err := resolveToken(tok, configPath)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func resolveToken(tok, configPath string) (string, error) {
	switch {
	case strings.Contains(tok, "${config}"):
		return strings.ReplaceAll(tok, "${config}", configPath), nil
	case strings.Contains(tok, "${") && strings.Contains(tok, "}"):
		return "", ErrConfigInvalid.New("unresolved placeholder in token " + tok)
	default:
		return tok, nil
	}
}
