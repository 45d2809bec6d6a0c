package platform

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"path/filepath"
	"strings"
)

// toastXML builds the Windows toast payload. An icon becomes an app logo
// override so the preview sits beside the text.
func toastXML(title, body string, opts Options) string {
	var b bytes.Buffer
	esc := func(s string) { _ = xml.EscapeText(&b, []byte(s)) }

	b.WriteString(`<toast duration="`)
	if opts.timeout() > 7000 {
		b.WriteString("long")
	} else {
		b.WriteString("short")
	}
	b.WriteString(`"><visual><binding template="ToastGeneric">`)
	if opts.IconPath != "" {
		p := filepath.ToSlash(opts.IconPath)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		u := url.URL{Scheme: "file", Path: p}
		b.WriteString(`<image placement="appLogoOverride" src="`)
		esc(u.String())
		b.WriteString(`"/>`)
	}
	b.WriteString(`<text>`)
	esc(title)
	b.WriteString(`</text><text>`)
	esc(body)
	b.WriteString(`</text><text placement="attribution">`)
	esc(AppName)
	b.WriteString(`</text></binding></visual></toast>`)
	return b.String()
}
