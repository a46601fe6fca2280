package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// providerExport is the JSON shape produced by transcription providers.
// Unknown fields are silently ignored so newer provider payloads still load.
type providerExport struct {
	Title      string              `json:"title"`
	Utterances []providerUtterance `json:"utterances"`
	// Some providers nest utterances under "segments" instead.
	Segments []providerUtterance `json:"segments"`
}

type providerUtterance struct {
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
}

// ParseJSON reads and parses a provider JSON transcript export from disk.
func ParseJSON(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open json %q: %w", path, err)
	}
	defer f.Close()

	t, err := ParseJSONFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("transcript: parse json %q: %w", path, err)
	}
	return t, nil
}

// ParseJSONFromReader parses a provider JSON transcript export from r.
// Both the "utterances" and "segments" field names are accepted; when both
// are present, "utterances" wins. Entries without text are dropped.
func ParseJSONFromReader(r io.Reader) (*Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var exp providerExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	src := exp.Utterances
	if len(src) == 0 {
		src = exp.Segments
	}

	t := &Transcript{Title: exp.Title}
	for _, pu := range src {
		if pu.Text == "" {
			continue
		}
		u := Utterance{
			Speaker: pu.Speaker,
			Text:    pu.Text,
		}
		if pu.Start != nil && pu.End != nil {
			u.StartSeconds = *pu.Start
			u.EndSeconds = *pu.End
			u.HasTiming = true
		}
		t.Utterances = append(t.Utterances, u)
	}
	return t, nil
}
