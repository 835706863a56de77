package dashboard

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// detailLines renders record as sorted "key  value" lines. Nested values are
// shown as compact JSON.
func detailLines(theme Theme, record any) string {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf("cannot render record: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Sprintf("cannot render record: %v", err)
	}

	keys := make([]string, 0, len(fields))
	width := 0
	for k := range fields {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	slices.Sort(keys)

	keyStyle := lipgloss.NewStyle().Foreground(theme.FaintText).Width(width + 2)
	valueStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(keyStyle.Render(k))
		b.WriteString(valueStyle.Render(formatValue(fields[k])))
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case float64:
		return fmt.Sprint(v)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	default:
		out, _ := json.Marshal(v)
		return string(out)
	}
}

func newDetail(theme Theme, record any, width, height int) viewport.Model {
	vp := viewport.New(width, max(1, height))
	vp.SetContent(detailLines(theme, record))
	return vp
}
