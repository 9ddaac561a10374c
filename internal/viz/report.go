package viz

import (
	"fmt"
	"sort"
	"strings"
)

// Metrics renders name/value pairs sorted by name.
func Metrics(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(MetricLabel.Render(name))
		sb.WriteString(MetricValue.Render(fmt.Sprintf("%.6f", values[name])))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Rows renders aligned label/value lines.
func Rows(pairs ...[2]string) string {
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(MetricLabel.Render(p[0]))
		sb.WriteString(p[1])
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
