package httpfile

import (
	"crypto/rand"
	"encoding/binary"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Clock supplies the current time to system-variable functions, injected
// so tests can pin it.
type Clock interface {
	Now() time.Time
}

// Rng supplies randomness to system-variable functions, injected so
// tests can pin it.
type Rng interface {
	// IntN returns a pseudo-random integer in [0, n).
	IntN(n int) int
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// dotEnvLoader loads a snapshot of a .env file's variables. Injected so
// tests don't touch the filesystem; the default reads ".env" in the
// working directory via godotenv.
type dotEnvLoader func() (map[string]string, error)

func defaultDotEnvLoader() (map[string]string, error) {
	vars, err := godotenv.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return vars, nil
}

// sysvarArgsPattern splits a system-function payload into its function
// name and raw argument string, e.g. "$randomInt 1 10" -> ("randomInt",
// "1 10"). Function name matching is case-insensitive.
var sysvarArgsPattern = regexp.MustCompile(`^\$(\S+)(?:\s+(.*))?$`)

// evalSystemFunction evaluates a "$..." payload (the trimmed content of
// a {{...}} token with its leading '$'). originalToken is the full
// "{{...}}" text: an unrecognized or malformed system function passes
// its token through unchanged rather than erroring.
func evalSystemFunction(payload, originalToken string, clock Clock, rng Rng, loadDotEnv dotEnvLoader) string {
	m := sysvarArgsPattern.FindStringSubmatch(payload)
	if m == nil {
		return originalToken
	}
	name := strings.ToLower(m[1])
	args := strings.TrimSpace(m[2])

	switch name {
	case "guid":
		return uuid.New().String()
	case "timestamp":
		return evalTimestamp(args, clock, originalToken)
	case "datetime":
		return evalDatetime(args, clock.Now().UTC(), originalToken)
	case "localdatetime":
		return evalDatetime(args, clock.Now(), originalToken)
	case "randomint":
		return evalRandomInt(args, rng, originalToken)
	case "processenv":
		return evalProcessEnv(args, originalToken)
	case "dotenv":
		return evalDotEnv(args, loadDotEnv, originalToken)
	default:
		return originalToken
	}
}

// unitDurations maps the unit suffixes to a duration-per-unit; month and
// year are handled separately since they are not fixed durations.
var unitDurations = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
}

func evalTimestamp(args string, clock Clock, originalToken string) string {
	now := clock.Now()
	if args == "" {
		return strconv.FormatInt(now.Unix(), 10)
	}
	offset, ok := applyOffset(now, args)
	if !ok {
		return originalToken
	}
	return strconv.FormatInt(offset.Unix(), 10)
}

func evalDatetime(args string, now time.Time, originalToken string) string {
	fields := splitDatetimeArgs(args)
	format := "iso8601"
	offsetArgs := ""
	if len(fields) > 0 {
		format = fields[0]
	}
	if len(fields) > 1 {
		offsetArgs = fields[1]
	}

	if offsetArgs != "" {
		offset, ok := applyOffset(now, offsetArgs)
		if !ok {
			return originalToken
		}
		now = offset
	}

	layout, ok := resolveDatetimeLayout(format)
	if !ok {
		return originalToken
	}
	return now.Format(layout)
}

// splitDatetimeArgs splits "<format> [int unit]" honoring a quoted
// custom-format first argument.
func splitDatetimeArgs(args string) []string {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}
	if args[0] == '\'' || args[0] == '"' {
		quote := args[0]
		end := strings.IndexByte(args[1:], byte(quote))
		if end < 0 {
			return []string{args}
		}
		format := args[1 : end+1]
		rest := strings.TrimSpace(args[end+2:])
		if rest == "" {
			return []string{format}
		}
		return []string{format, rest}
	}
	return strings.Fields(args)
}

func resolveDatetimeLayout(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "rfc1123":
		// "GMT" here is a literal suffix, not time.RFC1123's "MST" zone-name
		// verb: rfc1123 is documented as always ending in the word GMT,
		// regardless of the Time's actual Location.
		return "Mon, 02 Jan 2006 15:04:05 GMT", true
	case "iso8601":
		return "2006-01-02T15:04:05.000Z07:00", true
	default:
		return customDateLayout(format)
	}
}

// customDateLayout translates the small set of Java-style date tokens
// (y, M, d, H, m, s, f) into a Go reference-time layout, longest run
// first so e.g. "yyyy" is matched before "yy".
func customDateLayout(format string) (string, bool) {
	if format == "" {
		return "", false
	}
	replacer := []struct {
		token, layout string
	}{
		{"yyyy", "2006"}, {"yy", "06"},
		{"MM", "01"}, {"M", "1"},
		{"dd", "02"}, {"d", "2"},
		{"HH", "15"},
		{"mm", "04"}, {"m", "4"},
		{"ss", "05"}, {"s", "5"},
		{"fff", "000"},
	}
	out := format
	for _, r := range replacer {
		out = strings.ReplaceAll(out, r.token, r.layout)
	}
	if out == format && !strings.ContainsAny(format, "yMdHmsf") {
		return "", false
	}
	return out, true
}

// applyOffset parses "<int> <unit>" and adds it to now.
func applyOffset(now time.Time, args string) (time.Time, bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return now, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return now, false
	}
	switch fields[1] {
	case "M":
		return now.AddDate(0, n, 0), true
	case "y":
		return now.AddDate(n, 0, 0), true
	default:
		d, ok := unitDurations[fields[1]]
		if !ok {
			return now, false
		}
		return now.Add(time.Duration(n) * d), true
	}
}

func evalRandomInt(args string, rng Rng, originalToken string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return originalToken
	}
	min, err1 := strconv.Atoi(fields[0])
	max, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || min >= max {
		return originalToken
	}
	return strconv.Itoa(min + rng.IntN(max-min))
}

func evalProcessEnv(args string, originalToken string) string {
	name := strings.TrimSpace(args)
	if name == "" {
		return originalToken
	}
	return os.Getenv(name)
}

func evalDotEnv(args string, loadDotEnv dotEnvLoader, originalToken string) string {
	name := strings.TrimSpace(args)
	if name == "" {
		return originalToken
	}
	vars, err := loadDotEnv()
	if err != nil {
		return originalToken
	}
	return vars[name]
}

// defaultRng is the default Rng, backed by crypto/rand so it needs no
// seeding and is safe for concurrent use. Tests inject a deterministic
// Rng instead of relying on this default.
type defaultRng struct{}

func (defaultRng) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint32(b[:]) % uint32(n))
}
