package transcript

import (
	"fmt"
	"strings"
	"time"
)

// ExportMeta is the header metadata rendered above a transcript export.
type ExportMeta struct {
	Title     string
	Attendees []string
	Source    string
	Generated time.Time
}

// RenderMarkdown renders a transcript to markdown for the notes vault.
//
// Speaker lines render the utterance's Link as a wiki-style backlink when one
// was attached by resolution (`[[link|Name]]`, collapsing to `[[Name]]` when
// the link equals the display name). Unresolved utterances render their raw
// label verbatim.
func RenderMarkdown(meta ExportMeta, t Transcript) string {
	var b strings.Builder

	title := meta.Title
	if title == "" {
		title = t.Title
	}
	if title == "" {
		title = "Meeting Transcript"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(meta.Attendees) > 0 {
		fmt.Fprintf(&b, "- Attendees: %s\n", strings.Join(meta.Attendees, ", "))
	}
	if meta.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", meta.Source)
	}
	if !meta.Generated.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", meta.Generated.Format(time.RFC3339))
	}
	b.WriteString("\n---\n\n")

	for _, u := range t.Utterances {
		ts := ""
		if u.HasTiming {
			ts = fmt.Sprintf("[%s] ", formatOffset(u.StartSeconds))
		}
		spk := ""
		if u.Speaker != "" {
			spk = "**" + speakerHeading(u) + "**: "
		}
		fmt.Fprintf(&b, "%s%s%s\n\n", ts, spk, strings.TrimSpace(u.Text))
	}
	return b.String()
}

// speakerHeading renders the speaker name, as a backlink when a link target
// is attached.
func speakerHeading(u Utterance) string {
	if u.Link == "" {
		return u.Speaker
	}
	if u.Link == u.Speaker {
		return "[[" + u.Speaker + "]]"
	}
	return "[[" + u.Link + "|" + u.Speaker + "]]"
}

// formatOffset renders a second offset as mm:ss or hh:mm:ss.
func formatOffset(sec float64) string {
	d := time.Duration(sec*1000) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
