package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseVTT reads and parses a WebVTT caption file from disk.
func ParseVTT(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open vtt %q: %w", path, err)
	}
	defer f.Close()

	t, err := ParseVTTFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("transcript: parse vtt %q: %w", path, err)
	}
	return t, nil
}

// ParseVTTFromReader parses WebVTT from r.
//
// Speaker attribution is taken from voice spans (`<v Dana Sato>text</v>`)
// when present, falling back to a leading "Name: text" prefix in the cue
// payload. Cues with neither form produce utterances with an empty Speaker.
// The parse is best-effort: malformed cue timings are skipped rather than
// aborting the whole file, matching how captured caption files degrade in
// practice.
func ParseVTTFromReader(r io.Reader) (*Transcript, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	t := &Transcript{}
	var (
		inCue      bool
		start, end float64
		timed      bool
		payload    []string
	)

	flush := func() {
		if len(payload) == 0 {
			inCue = false
			return
		}
		speaker, text := splitVoice(strings.Join(payload, " "))
		if strings.TrimSpace(text) != "" {
			t.Utterances = append(t.Utterances, Utterance{
				Speaker:      speaker,
				Text:         strings.TrimSpace(text),
				StartSeconds: start,
				EndSeconds:   end,
				HasTiming:    timed,
			})
		}
		payload = payload[:0]
		inCue = false
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "WEBVTT"), strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"):
			continue
		case strings.Contains(line, "-->"):
			flush()
			s, e, err := parseCueTiming(line)
			if err != nil {
				// Skip the malformed cue but keep scanning.
				inCue = false
				continue
			}
			start, end, timed = s, e, true
			inCue = true
		case line == "":
			flush()
		default:
			if inCue {
				payload = append(payload, line)
			}
			// Anything else is a cue identifier line; ignored.
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return t, nil
}

// splitVoice extracts the speaker from a cue payload. It understands the
// WebVTT voice span form and the plain "Name: text" convention.
func splitVoice(payload string) (speaker, text string) {
	s := strings.TrimSpace(payload)

	if strings.HasPrefix(s, "<v") {
		// <v Dana Sato>hello there</v>
		if gt := strings.IndexByte(s, '>'); gt > 1 {
			tag := strings.TrimSpace(strings.TrimPrefix(s[2:gt], " "))
			// Strip class annotations such as <v.loud Dana>.
			if dot := strings.IndexByte(tag, '.'); dot == 0 {
				if sp := strings.IndexByte(tag, ' '); sp >= 0 {
					tag = tag[sp+1:]
				}
			}
			body := s[gt+1:]
			body = strings.ReplaceAll(body, "</v>", "")
			return strings.TrimSpace(tag), body
		}
	}

	if colon := strings.Index(s, ": "); colon > 0 && colon < 64 {
		name := s[:colon]
		// A timestamp-looking prefix is not a speaker name.
		if !strings.ContainsAny(name, "<>") && !strings.Contains(name, "-->") {
			return strings.TrimSpace(name), s[colon+2:]
		}
	}
	return "", s
}

// parseCueTiming parses a "00:00:01.000 --> 00:00:04.500" line.
func parseCueTiming(line string) (start, end float64, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("not a cue timing: %q", line)
	}
	start, err = parseVTTTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// Cue settings may trail the end timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp: %q", line)
	}
	end, err = parseVTTTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseVTTTimestamp parses "hh:mm:ss.mmm" or "mm:ss.mmm" into seconds.
func parseVTTTimestamp(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q: %w", ts, err)
		}
		total = total*60 + v
	}
	return total, nil
}
