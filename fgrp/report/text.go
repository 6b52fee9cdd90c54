package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/types"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for text reports
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

type styles struct {
	title   lipgloss.Style
	key     lipgloss.Style
	path    lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
}

// newStyles binds the palette to w so color is dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(ColorPrimary),
		key:     r.NewStyle().Foreground(ColorHighlight),
		path:    r.NewStyle().PaddingLeft(2),
		muted:   r.NewStyle().Foreground(ColorMuted),
		warning: r.NewStyle().Bold(true).Foreground(ColorWarning),
		success: r.NewStyle().Foreground(ColorSuccess),
	}
}

// Text writes the human-readable report
func (r *Report) Text(w io.Writer) error {
	st := newStyles(w)
	var sb strings.Builder

	line := func(s string) {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	paths := func(ps []string) {
		for _, p := range ps {
			line(st.path.Render(p))
		}
	}

	line(st.title.Render(fmt.Sprintf("Found %d files matching %s", r.Scanned, quotePattern(r.Pattern))))

	switch r.Command {
	case types.OpSearch:
		paths(r.Matches)

	case types.OpCount:
		if r.CommonDir != "" {
			line(st.muted.Render("Common directory: " + r.CommonDir))
		}
		for _, d := range r.ByDir {
			line(fmt.Sprintf("%s %s", st.key.Render(fmt.Sprintf("%8d", d.Files)), d.Dir))
		}

	case types.OpDedupe:
		line(st.success.Render(fmt.Sprintf("Found %d duplicate(s)", len(r.Groups))))
		for _, g := range r.Groups {
			line(fmt.Sprintf("%s %s", st.key.Render(r.Algorithm+":"+g.Key), st.muted.Render(fmt.Sprintf("(%d files)", len(g.Paths)))))
			paths(g.Paths)
		}

	case types.OpSession:
		if r.Session != nil {
			line(st.muted.Render("Session boundary: " + r.Session.Boundary.String()))
			line(st.success.Render(fmt.Sprintf("Found %d session file(s)", len(r.Session.InSession))))
			paths(r.Session.InSession)
			line(st.muted.Render(fmt.Sprintf("%d file(s) outside the session", len(r.Session.OutOfSession))))
		}

	case types.OpTimes:
		line(st.success.Render(fmt.Sprintf("Found %d shared modification time(s)", len(r.Groups))))
		for _, g := range r.Groups {
			line(fmt.Sprintf("%s %s", st.key.Render(g.Key), st.muted.Render(fmt.Sprintf("(%d files)", len(g.Paths)))))
			paths(g.Paths)
		}
	}

	if len(r.Skipped) > 0 {
		line(st.warning.Render(fmt.Sprintf("Skipped %d file(s)", len(r.Skipped))))
		for _, s := range r.Skipped {
			line(st.path.Render(fmt.Sprintf("%s [%s] %s", s.Path, s.Kind, s.Error)))
		}
	}

	footer := fmt.Sprintf("scan %s in %s", r.ScanID, common.NewTimeUtils().FormatDuration(r.Duration))
	if r.BytesRead > 0 {
		footer += ", " + common.ByteCountDecimal(r.BytesRead) + " read"
	}
	line(st.muted.Render(footer))

	_, err := io.WriteString(w, sb.String())
	return err
}

func quotePattern(p string) string {
	if p == "" {
		return `""`
	}
	return p
}

