package insight

import (
	"bytes"
	"embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// System prompts sent ahead of every user prompt.
const (
	systemContextual = "You are a compassionate AI mental health assistant. Provide supportive, evidence-based insights based on the user's journal history and current query. Be empathetic, non-judgmental, and focus on positive coping strategies."
	systemGuidance   = "You are a knowledgeable mental health AI assistant providing evidence-based support and guidance."
	systemCheckIn    = "You are a compassionate AI mental health assistant. Provide supportive, evidence-based insights and gentle recommendations. Always maintain a caring, non-judgmental tone. Never provide clinical diagnosis or replace professional mental health care. Focus on wellness, coping strategies, and positive support."
)

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"joinInts": func(xs []int, sep string) string {
		parts := make([]string, len(xs))
		for i, x := range xs {
			parts[i] = strconv.Itoa(x)
		}
		return strings.Join(parts, sep)
	},
}).ParseFS(promptFS, "prompts/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
