package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed credentials.ini.tmpl
var credentialsTemplate string

// CredentialsData contains data for rendering a credentials file
type CredentialsData struct {
	URL      string
	Username string
	Token    string
	Password string
	Comment  string
}

var funcMap = template.FuncMap{
	"ini": iniValue,
}

var credentials = template.Must(template.New("credentials.ini").Funcs(funcMap).Parse(credentialsTemplate))

// RenderCredentials renders an INI credentials file
func RenderCredentials(data CredentialsData) (string, error) {
	if strings.ContainsAny(data.Comment, "\r\n") {
		return "", fmt.Errorf("comment must be a single line")
	}

	var buf bytes.Buffer
	if err := credentials.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render credentials: %w", err)
	}
	return buf.String(), nil
}

// iniValue quotes values the INI parser would otherwise trim or unquote.
func iniValue(v string) (string, error) {
	if strings.ContainsAny(v, "\r\n") {
		return "", fmt.Errorf("value must be a single line")
	}
	needsQuote := v != strings.TrimSpace(v) || (v != "" && strings.ContainsRune("\"'`", rune(v[0])))
	if !needsQuote {
		return v, nil
	}
	if !strings.Contains(v, "`") {
		return "`" + v + "`", nil
	}
	if !strings.Contains(v, `"""`) {
		return `"""` + v + `"""`, nil
	}
	return "", fmt.Errorf("value cannot be quoted")
}
