package save

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/eugenesvk/tabsave/internal/page"
)

// BannerInjector renders an informational save banner into captured pages.
// The banner source is markdown, converted to HTML and inserted at the end
// of the document body.
type BannerInjector struct{}

// Inject implements OverlayInjector. Failures leave the page unchanged.
func (BannerInjector) Inject(data *page.Data) {
	md := fmt.Sprintf("**Saved page**: %s\n\nOriginal URL: <%s>\n\nSaved at %s",
		data.Title, data.URL, data.SavedAt.Format("2006-01-02 15:04:05"))

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		log.Printf("tabsave: render overlay: %v", err)
		return
	}

	banner := `<div class="tabsave-banner" hidden>` + buf.String() + `</div>`

	if idx := strings.LastIndex(data.Content, "</body>"); idx >= 0 {
		data.Content = data.Content[:idx] + banner + data.Content[idx:]
		return
	}
	data.Content += banner
}
