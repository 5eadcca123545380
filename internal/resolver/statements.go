package resolver

import (
	"errors"
	"fmt"
	"html"
	"math"
	"math/rand/v2" //nolint:gosec // statement-level randomness is a content feature, not a security primitive
	"strconv"
	"strings"
)

// callStatement dispatches one "$(name arg...)" built-in. rawArgs are the
// unresolved argument substrings; each statement decides for itself which
// of its arguments to expand (e.g. "if" must not expand its untaken
// branch) and which to treat as already-final text.
func (r *Resolver) callStatement(name string, rawArgs []string, depth int) (string, error) {
	switch name {
	case "if":
		return r.stmtIf(rawArgs, depth)
	case "eq":
		return r.stmtEqNe(rawArgs, depth, true)
	case "ne":
		return r.stmtEqNe(rawArgs, depth, false)
	case "and":
		return r.stmtAndOr(rawArgs, depth, true)
	case "or":
		return r.stmtAndOr(rawArgs, depth, false)
	case "not":
		return r.stmtNot(rawArgs, depth)
	case "assert":
		return r.stmtAssert(rawArgs, depth)
	case "strip":
		return r.stmtStrip(rawArgs, depth)
	case "item":
		return r.stmtItem(rawArgs, depth)
	case "contains":
		return r.stmtContains(rawArgs, depth)
	case "substr":
		return r.stmtSubstr(rawArgs, depth)
	case "sanitize":
		return r.stmtSanitize(rawArgs, depth)
	case "index":
		r.sawIdx = true

		return indexMarker, nil
	case "anchor":
		return r.stmtAnchor(rawArgs, depth)
	case "pagelist":
		return r.stmtPagelist(rawArgs, depth)
	case "random":
		return r.stmtRandom(rawArgs, depth)
	case "randitem":
		return r.stmtRanditem(rawArgs, depth)
	case "add":
		return r.stmtArith(rawArgs, depth, func(a, b float64) float64 { return a + b })
	case "sub":
		return r.stmtArith(rawArgs, depth, func(a, b float64) float64 { return a - b })
	case "mul":
		return r.stmtArith(rawArgs, depth, func(a, b float64) float64 { return a * b })
	case "div":
		return r.stmtArith(rawArgs, depth, func(a, b float64) float64 {
			if b == 0 {
				return 0
			}

			return a / b
		})
	case "mod":
		return r.stmtArith(rawArgs, depth, math.Mod)
	case "round":
		return r.stmtRound(rawArgs, depth)
	default:
		if r.debug {
			return "", fmt.Errorf("resolver: unknown statement %q at line %d", name, r.curFrame().line)
		}

		return "", errors.New("resolver: unknown statement")
	}
}

func (r *Resolver) resolveAll(rawArgs []string, depth int) ([]string, error) {
	out := make([]string, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := r.expand(raw, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// nonEmpty is the mini-language's only notion of truth: an argument is
// "true" iff anything remains after trimming ASCII whitespace.
func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func (r *Resolver) stmtIf(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) < 2 || len(rawArgs) > 3 {
		return "", fmt.Errorf("resolver: if requires 2 or 3 arguments, got %d", len(rawArgs))
	}

	cond, err := r.expand(rawArgs[0], depth+1)
	if err != nil {
		return "", err
	}

	if nonEmpty(cond) {
		return r.expand(rawArgs[1], depth+1)
	}
	if len(rawArgs) == 3 {
		return r.expand(rawArgs[2], depth+1)
	}

	return "", nil
}

// stmtEqNe implements "eq"/"ne": wantEqual selects which of the two
// statements is being evaluated. Both require at least 2 trimmed
// arguments and test whether all of them are equal.
func (r *Resolver) stmtEqNe(rawArgs []string, depth int, wantEqual bool) (string, error) {
	if len(rawArgs) < 2 {
		return "", fmt.Errorf("resolver: eq/ne requires at least 2 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	allEqual := true
	first := strings.TrimSpace(vals[0])
	for _, v := range vals[1:] {
		if strings.TrimSpace(v) != first {
			allEqual = false

			break
		}
	}

	if allEqual == wantEqual {
		return "1", nil
	}

	return "", nil
}

// stmtAndOr implements "and"/"or". "and" yields its first argument when
// every argument is non-empty, "or" yields the first non-empty argument;
// both yield "" otherwise.
func (r *Resolver) stmtAndOr(rawArgs []string, depth int, isAnd bool) (string, error) {
	if len(rawArgs) < 2 {
		return "", fmt.Errorf("resolver: and/or requires at least 2 arguments, got %d", len(rawArgs))
	}

	first := ""
	for i, raw := range rawArgs {
		v, err := r.expand(raw, depth+1)
		if err != nil {
			return "", err
		}
		v = strings.TrimSpace(v)
		if i == 0 {
			first = v
		}
		if isAnd && v == "" {
			return "", nil
		}
		if !isAnd && v != "" {
			return v, nil
		}
	}

	if isAnd {
		return first, nil
	}

	return "", nil
}

func (r *Resolver) stmtNot(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 1 {
		return "", fmt.Errorf("resolver: not requires 1 argument, got %d", len(rawArgs))
	}
	v, err := r.expand(rawArgs[0], depth+1)
	if err != nil {
		return "", err
	}

	if nonEmpty(v) {
		return "", nil
	}

	return "1", nil
}

// stmtAssert errors out if any of its arguments is empty after trimming,
// aborting the whole expansion; it expands to nothing on success.
func (r *Resolver) stmtAssert(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) < 1 {
		return "", fmt.Errorf("resolver: assert requires at least 1 argument")
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	for i, v := range vals {
		if !nonEmpty(v) {
			return "", fmt.Errorf("%w: argument %d is empty at line %d", ErrAssertFailed, i+1, r.curFrame().line)
		}
	}

	return "", nil
}

// stmtStrip concatenates all of its trimmed arguments.
func (r *Resolver) stmtStrip(rawArgs []string, depth int) (string, error) {
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, v := range vals {
		b.WriteString(strings.TrimSpace(v))
	}

	return b.String(), nil
}

// splitFields splits s on sep if non-empty, else on runs of ASCII
// whitespace, matching the default splitting behavior shared by "item"
// and "contains".
func splitFields(s, sep string) []string {
	if sep == "" {
		return strings.Fields(s)
	}

	return strings.Split(s, sep)
}

// stmtItem picks the n-th (0-based) token of arg1, split by arg3 (or
// ASCII whitespace by default). An out-of-range index yields "".
func (r *Resolver) stmtItem(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 2 && len(rawArgs) != 3 {
		return "", fmt.Errorf("resolver: item requires 2 or 3 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	n, err := strconv.Atoi(strings.TrimSpace(vals[1]))
	if err != nil {
		return "", fmt.Errorf("resolver: item: bad index %q", vals[1])
	}

	sep := ""
	if len(vals) == 3 {
		sep = vals[2]
	}

	parts := splitFields(vals[0], sep)
	if n < 0 || n >= len(parts) {
		return "", nil
	}

	return parts[n], nil
}

// stmtContains reports whether arg2 (the needle) is one of arg1's tokens,
// split by arg3 (or ASCII whitespace by default).
func (r *Resolver) stmtContains(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 2 && len(rawArgs) != 3 {
		return "", fmt.Errorf("resolver: contains requires 2 or 3 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	sep := ""
	if len(vals) == 3 {
		sep = vals[2]
	}

	needle := vals[1]
	for _, tok := range splitFields(vals[0], sep) {
		if tok == needle {
			return needle, nil
		}
	}

	return "", nil
}

// stmtSubstr slices arg1 by character index [start, end); end defaults to
// start+1. Both bounds are clamped to the string's length.
func (r *Resolver) stmtSubstr(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 2 && len(rawArgs) != 3 {
		return "", fmt.Errorf("resolver: substr requires 2 or 3 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	start, err := strconv.Atoi(strings.TrimSpace(vals[1]))
	if err != nil {
		return "", fmt.Errorf("resolver: substr: bad start %q", vals[1])
	}

	end := start + 1
	if len(vals) == 3 {
		end, err = strconv.Atoi(strings.TrimSpace(vals[2]))
		if err != nil {
			return "", fmt.Errorf("resolver: substr: bad end %q", vals[2])
		}
	}

	// Slicing is by character, not byte: a multi-byte rune counts as
	// one position.
	runes := []rune(vals[0])
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	if end < start {
		end = start
	}
	if end > len(runes) {
		end = len(runes)
	}

	return string(runes[start:end]), nil
}

var sanitizeNonAlnum = func(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return r
	}

	return '_'
}

// stmtSanitize joins all arguments with "_", lowercases the result,
// replaces every non-[a-z0-9] rune with "_", collapses consecutive "_",
// and trims leading/trailing "_". Used to turn arbitrary text into a safe
// identifier, e.g. for anchor names.
func (r *Resolver) stmtSanitize(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) == 0 {
		return "", fmt.Errorf("resolver: sanitize requires at least 1 argument")
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	joined := strings.ToLower(strings.Join(vals, "_"))
	mapped := strings.Map(sanitizeNonAlnum, joined)

	var b strings.Builder
	prevUnderscore := false
	for _, c := range mapped {
		if c == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(c)
	}

	return strings.Trim(b.String(), "_"), nil
}

// stmtAnchor emits an in-page anchor and records it for the site-index
// pass: name, text, an optional indent level (default 0), and an
// optional no_index flag (default false, i.e. included in the index).
func (r *Resolver) stmtAnchor(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) < 2 || len(rawArgs) > 4 {
		return "", fmt.Errorf("resolver: anchor requires 2, 3 or 4 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(vals[0])
	text := strings.TrimSpace(vals[1])

	indent := 0
	if len(vals) >= 3 && strings.TrimSpace(vals[2]) != "" {
		indent, err = strconv.Atoi(strings.TrimSpace(vals[2]))
		if err != nil {
			return "", fmt.Errorf("resolver: anchor: bad indent %q", vals[2])
		}
	}

	noIndex := false
	if len(vals) == 4 {
		noIndex = nonEmpty(vals[3])
	}

	// The recorded entry is unescaped now: it only ever flows into the
	// generated site-index block, which is spliced in after Run's own
	// final unescape pass has already happened.
	r.anchors = append(r.anchors, AnchorEntry{
		Name:    Unescape(name),
		Text:    Unescape(text),
		Indent:  indent,
		NoIndex: noIndex,
	})

	href := html.EscapeString(r.vars["CMS_PAGEIDENT"]) + "#" + html.EscapeString(name)

	return fmt.Sprintf(`<a id="%s" href="%s">%s</a>`, html.EscapeString(name), href, html.EscapeString(text)), nil
}

// stmtPagelist renders the navigation subtree rooted at the given base
// page identifier, via the callback installed by SetPagelistFunc.
func (r *Resolver) stmtPagelist(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 1 {
		return "", fmt.Errorf("resolver: pagelist requires 1 argument, got %d", len(rawArgs))
	}
	v, err := r.expand(rawArgs[0], depth+1)
	if err != nil {
		return "", err
	}

	if r.pagelistFn == nil {
		return "", nil
	}

	return r.pagelistFn(strings.TrimSpace(v))
}

// stmtRandom returns a uniform integer in [begin,end], defaulting to
// 0..65535 when omitted.
func (r *Resolver) stmtRandom(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) > 2 {
		return "", fmt.Errorf("resolver: random takes at most 2 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	lo, hi := 0, 65535

	if len(vals) >= 1 {
		lo, err = strconv.Atoi(strings.TrimSpace(vals[0]))
		if err != nil {
			return "", fmt.Errorf("resolver: random: bad lower bound %q", vals[0])
		}
	}
	if len(vals) == 2 {
		hi, err = strconv.Atoi(strings.TrimSpace(vals[1]))
		if err != nil {
			return "", fmt.Errorf("resolver: random: bad upper bound %q", vals[1])
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	return strconv.Itoa(lo + rand.IntN(hi-lo+1)), nil
}

// stmtRanditem returns one of its arguments, chosen uniformly at random.
// Unlike the other list-taking statements, the choices are the call's
// own comma-separated arguments, not a token split of one argument, so
// that each choice can itself be arbitrary resolver text.
func (r *Resolver) stmtRanditem(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) < 1 {
		return "", fmt.Errorf("resolver: randitem requires at least 1 argument")
	}

	return r.expand(rawArgs[rand.IntN(len(rawArgs))], depth+1)
}

func (r *Resolver) stmtArith(rawArgs []string, depth int, op func(a, b float64) float64) (string, error) {
	if len(rawArgs) != 2 {
		return "", fmt.Errorf("resolver: arithmetic statement requires 2 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		return "", fmt.Errorf("resolver: bad number %q", vals[0])
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
	if err != nil {
		return "", fmt.Errorf("resolver: bad number %q", vals[1])
	}

	return formatNumber(op(a, b)), nil
}

// stmtRound rounds half-away-from-zero to the given number of decimals
// (default/clamped 0..64); 0 decimals formats as a bare integer.
func (r *Resolver) stmtRound(rawArgs []string, depth int) (string, error) {
	if len(rawArgs) != 1 && len(rawArgs) != 2 {
		return "", fmt.Errorf("resolver: round requires 1 or 2 arguments, got %d", len(rawArgs))
	}
	vals, err := r.resolveAll(rawArgs, depth)
	if err != nil {
		return "", err
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		return "", fmt.Errorf("resolver: bad number %q", vals[0])
	}

	decimals := 0
	if len(vals) == 2 {
		decimals, err = strconv.Atoi(strings.TrimSpace(vals[1]))
		if err != nil {
			return "", fmt.Errorf("resolver: round: bad decimals %q", vals[1])
		}
		if decimals < 0 {
			decimals = 0
		}
		if decimals > 64 {
			decimals = 64
		}
	}

	scale := math.Pow(10, float64(decimals))
	rounded := math.Round(f*scale) / scale

	if decimals == 0 {
		return strconv.FormatInt(int64(rounded), 10), nil
	}

	return strconv.FormatFloat(rounded, 'f', decimals, 64), nil
}

const intFormatEpsilon = 1e-6

// formatNumber renders f as a bare integer when it's within
// intFormatEpsilon of one and fits in an int64, else as a plain decimal.
func formatNumber(f float64) string {
	rounded := math.Round(f)
	if math.Abs(f-rounded) <= intFormatEpsilon && rounded >= math.MinInt64 && rounded <= math.MaxInt64 {
		return strconv.FormatInt(int64(rounded), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
