package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	logpkg "github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/utils"
)

// SkippedLine is a non-blank, non-comment line that matched neither accepted shape.
type SkippedLine struct {
	Line int
	Raw  string
	// TooLong is set when the line exceeded MaxLineBytes; Raw is then empty.
	TooLong bool
}

// MaxLineBytes bounds a single list line. Longer lines are skipped whole.
const MaxLineBytes = 4096

// Result is the outcome of parsing one blocklist source.
type Result struct {
	// Identifiers are normalized, unique, in first-seen order.
	Identifiers []string
	Skipped     []SkippedLine
}

// profileURLPattern builds the accepted profile URL shape for host:
// scheme://[www.]host/<identifier>[/]
func profileURLPattern(host string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^https?://(?:www\.)?` + regexp.QuoteMeta(host) + `/([a-z0-9_-]+)/?$`)
}

// ParseBlocklist parses a newline-delimited list of profile URLs and bare
// identifiers for the given profile host.
//
// Behavior:
// - Lines split on CR, LF or CRLF; each line is trimmed and stripped of a BOM
// - Empty lines and lines starting with '#' are ignored
// - A profile URL contributes its identifier path segment
// - A bare identifier must contain neither '/' nor '.'
// - Anything else, including a line over MaxLineBytes, is skipped with a warning
// - Identifiers are lowercased and de-duplicated, first-seen order kept
func ParseBlocklist(r io.Reader, profileHost string, logger logpkg.Logger) (Result, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	pattern := profileURLPattern(profileHost)

	split := &lineSplitter{max: MaxLineBytes}
	scanner := bufio.NewScanner(r)
	scanner.Split(split.split)

	seen := make(map[string]struct{})
	res := Result{Identifiers: make([]string, 0, 256)}
	logger.Debug(map[string]any{"profile_host": profileHost}, "parse_blocklist_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if split.takeOverlong() {
			logger.Warn(map[string]any{"line": lineNum, "reason": "too_long"}, "skip_invalid_line")
			res.Skipped = append(res.Skipped, SkippedLine{Line: lineNum, TooLong: true})
			continue
		}
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, ok := classifyLine(line, pattern)
		if !ok {
			logger.Warn(map[string]any{"line": lineNum, "raw": line}, "skip_invalid_line")
			res.Skipped = append(res.Skipped, SkippedLine{Line: lineNum, Raw: line})
			continue
		}
		if _, dup := seen[id]; dup {
			logger.Debug(map[string]any{"line": lineNum, "id": id}, "skip_duplicate")
			continue
		}
		seen[id] = struct{}{}
		res.Identifiers = append(res.Identifiers, id)
		logger.Debug(map[string]any{"line": lineNum, "id": id}, "emit_identifier")
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"error": err.Error()}, "parse_blocklist_scan_error")
		return Result{}, fmt.Errorf("scan blocklist: %w", err)
	}
	logger.Debug(map[string]any{"count": len(res.Identifiers), "skipped": len(res.Skipped)}, "parse_blocklist_done")
	return res, nil
}

// classifyLine returns the normalized identifier carried by line.
func classifyLine(line string, pattern *regexp.Regexp) (string, bool) {
	if m := pattern.FindStringSubmatch(line); m != nil {
		return utils.NormalizeIdentifier(m[1]), true
	}
	if isBareIdentifier(line) {
		return utils.NormalizeIdentifier(line), true
	}
	return "", false
}

// isBareIdentifier reports whether line can stand alone as an identifier.
func isBareIdentifier(line string) bool {
	return !strings.ContainsAny(line, "/.")
}

// lineSplitter wraps splitLines so that a line longer than max is consumed
// and reported as one empty token instead of failing the scan.
type lineSplitter struct {
	max        int
	discarding bool
	overlong   bool
}

func (s *lineSplitter) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if s.discarding {
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			if atEOF {
				s.discarding = false
				s.overlong = true
				return len(data), []byte{}, nil
			}
			return len(data), nil, nil
		}
		s.discarding = false
		s.overlong = true
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:0], nil
		}
		return i + 1, data[:0], nil
	}

	advance, token, err = splitLines(data, atEOF)
	if err != nil {
		return advance, token, err
	}
	if token == nil && advance == 0 && len(data) > s.max {
		s.discarding = true
		return len(data), nil, nil
	}
	if len(token) > s.max {
		s.overlong = true
		return advance, token[:0], nil
	}
	return advance, token, nil
}

// takeOverlong reports, and clears, whether the last token was an overlong line.
func (s *lineSplitter) takeOverlong() bool {
	v := s.overlong
	s.overlong = false
	return v
}

// splitLines is a bufio.SplitFunc that treats CR, LF and CRLF as terminators.
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// CR at the end of the buffer: wait to see whether LF follows.
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
