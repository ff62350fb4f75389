package filterengine

import (
	"strings"

	"github.com/reachnet/strategyengine/catalog"
)

// buildArgs substitutes the recognized placeholders into template:
//   - "${mode}" becomes the mode token;
//   - "${hostlist}" becomes the strategy's host-list path, or the whole
//     token is dropped if there is none;
//   - "${extra_hostlist}" becomes the optional secondary list path, or the
//     whole token is dropped if there is none;
//   - any other "${...}" placeholder left unresolved is a ConfigInvalid
//     error.
func buildArgs(template []string, mode catalog.ModeHint, hostList, extraHostList string) ([]string, error) {
	out := make([]string, 0, len(template))
	for _, tok := range template {
		resolved, drop, err := resolveToken(tok, mode, hostList, extraHostList)
		if err != nil {
			return nil, err
		}
		if drop {
			continue
		}
		out = append(out, resolved)
	}
	return out, nil
}

func resolveToken(tok string, mode catalog.ModeHint, hostList, extraHostList string) (resolved string, drop bool, err error) {
	switch {
	case strings.Contains(tok, "${mode}"):
		return strings.ReplaceAll(tok, "${mode}", string(mode)), false, nil
	case strings.Contains(tok, "${hostlist}"):
		if hostList == "" {
			return "", true, nil
		}
		return strings.ReplaceAll(tok, "${hostlist}", hostList), false, nil
	case strings.Contains(tok, "${extra_hostlist}"):
		if extraHostList == "" {
			return "", true, nil
		}
		return strings.ReplaceAll(tok, "${extra_hostlist}", extraHostList), false, nil
	case strings.Contains(tok, "${") && strings.Contains(tok, "}"):
		return "", false, ErrConfigInvalid.New("unresolved placeholder in token " + tok)
	default:
		return tok, false, nil
	}
}
