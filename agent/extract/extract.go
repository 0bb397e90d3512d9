// Package extract pulls the delimited machine-readable payload out of a bot
// reply. The model is instructed to emit exactly one <<JSON>> block per
// message, but its formatting drifts; a small, enumerable set of repairs
// covers the malformations seen in practice. This is deliberately not a
// general JSON-repair layer.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nepwoop/leadflow/agent/contract"
)

const (
	OpenMarker  = "<<JSON>>"
	CloseMarker = "<<ENDJSON>>"
)

var (
	payloadPattern = regexp.MustCompile(`(?s)<<JSON>>(.*?)<<ENDJSON>>`)

	leadingCommas  = regexp.MustCompile(`^\s*,+`)
	trailingCommas = regexp.MustCompile(`,+\s*$`)
	danglingComma  = regexp.MustCompile(`,(\s*})`)
	repeatedOpen   = regexp.MustCompile(`^\{+`)
	repeatedClose  = regexp.MustCompile(`\}+$`)
)

// Parse locates the first delimited payload in text and decodes it. It
// reports false when no payload is present or the payload stays undecodable
// after every repair; decoding problems never surface as errors.
func Parse(text string) (contract.Record, bool) {
	match := payloadPattern.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	candidate := strings.TrimSpace(match[1])

	if rec, err := decode(candidate); err == nil {
		return rec, true
	}

	repaired := repair(candidate)
	if rec, err := decode(repaired); err == nil {
		return rec, true
	}

	relined := reline(repaired)
	rec, err := decode(relined)
	if err != nil {
		log.Warn().Err(err).Str("payload", relined).Msg("payload undecodable after repairs")
		return nil, false
	}
	return rec, true
}

// Strip removes every delimited payload from text and trims the remainder,
// producing the user-visible reply.
func Strip(text string) string {
	return strings.TrimSpace(payloadPattern.ReplaceAllString(text, ""))
}

func decode(content string) (contract.Record, error) {
	var rec contract.Record
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// repair fixes structural punctuation around an otherwise intact payload:
// stray commas at the edges, missing or duplicated outer braces, and a
// trailing comma before the closing brace. Values are never touched.
func repair(content string) string {
	content = leadingCommas.ReplaceAllString(content, "")
	content = trailingCommas.ReplaceAllString(content, "")

	if !strings.HasPrefix(content, "{") {
		content = "{\n" + content
	}
	if !strings.HasSuffix(content, "}") {
		content = content + "\n}"
	}

	content = danglingComma.ReplaceAllString(content, "$1")
	content = repeatedOpen.ReplaceAllString(content, "{")
	content = repeatedClose.ReplaceAllString(content, "}")
	return content
}

// reline handles payloads whose pairs lack separating commas: each non-blank
// line except the last gets one, then the body is re-wrapped in braces.
func reline(content string) string {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	for i, line := range lines {
		if i == len(lines)-1 || strings.HasSuffix(line, ",") {
			continue
		}
		lines[i] = line + ","
	}

	return "{\n" + strings.Join(lines, "\n") + "\n}"
}
