package page

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Maximum filename length, conservative across filesystems.
const maxFilenameLen = 192

// forbiddenChars matches characters that are unsafe in filenames on at least
// one supported platform.
var forbiddenChars = regexp.MustCompile(`[\x00-\x1f<>:"/\\|?*~]`)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// TemplateVars holds the values substituted into a filename template.
type TemplateVars struct {
	PageTitle string
	URL       string
	TabID     string
	Now       time.Time
}

// ExpandTemplate resolves a filename template against the given variables.
// Supported placeholders: {page-title}, {url-host}, {url-path}, {datetime},
// {tab-id}. The result is sanitized and always non-empty.
func ExpandTemplate(template string, vars TemplateVars) string {
	host, path := splitURL(vars.URL)

	out := template
	out = strings.ReplaceAll(out, "{page-title}", vars.PageTitle)
	out = strings.ReplaceAll(out, "{url-host}", host)
	out = strings.ReplaceAll(out, "{url-path}", path)
	out = strings.ReplaceAll(out, "{datetime}", vars.Now.Format("2006-01-02 15_04_05"))
	out = strings.ReplaceAll(out, "{tab-id}", vars.TabID)

	out = Sanitize(out)
	if out == "" {
		out = "page"
	}
	if !strings.HasSuffix(out, ".zip") {
		out += ".zip"
	}
	return out
}

// Sanitize makes a string safe for use as a filename:
// 1. Trim leading/trailing whitespace
// 2. Strip forbidden characters
// 3. Collapse internal whitespace to single spaces
// 4. Truncate to a conservative length limit
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = forbiddenChars.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = strings.Trim(s, ". ")

	if utf8.RuneCountInString(s) > maxFilenameLen {
		runes := []rune(s)
		s = string(runes[:maxFilenameLen])
		s = strings.TrimRight(s, ". ")
	}
	return s
}

// splitURL extracts the host and a filename-safe path segment from a URL.
// Unparseable URLs yield empty components rather than an error.
func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	host = u.Hostname()
	path = strings.Trim(u.Path, "/")
	path = strings.ReplaceAll(path, "/", "_")
	return host, path
}
