package cli

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/sqlq"
)

// parseArgs converts positional statement arguments to values.
//
// Literals, in order of precedence:
//
//	null, NULL     -> Null
//	x'cafe'        -> Blob (hex)
//	'text'         -> Text, quotes removed, never numeric
//	42, -7         -> Int
//	2.5, 1e3       -> Real
//	anything else  -> Text
func parseArgs(args []string) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, err := parseArg(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(s string) (sqlq.Value, error) {
	if strings.EqualFold(s, "null") {
		return sqlq.Null{}, nil
	}
	if len(s) >= 3 && (s[0] == 'x' || s[0] == 'X') && s[1] == '\'' && s[len(s)-1] == '\'' {
		b, err := hex.DecodeString(s[2 : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid blob literal %q: %w", s, err)
		}
		return sqlq.Bytes(b), nil
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return sqlq.Text(s[1 : len(s)-1]), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sqlq.Int(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return sqlq.Real(f), nil
	}
	return sqlq.Text(s), nil
}
