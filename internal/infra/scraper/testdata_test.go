package scraper

import (
	"fmt"
	"strings"
)

// card renders one product card in the storefront's markup.
func card(pid, title, oldPrice, newPrice, img string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="card h-100 material-card depth-4 depth-8-hover pb-4" data-bi-pid=%q data-bi-prdname=%q>`, pid, title)
	if img != "" {
		fmt.Fprintf(&b, `<img src=%q alt="">`, img)
	}
	if oldPrice != "" {
		fmt.Fprintf(&b, `<span class="text-line-through text-muted">%s</span>`, oldPrice)
	}
	if newPrice != "" {
		fmt.Fprintf(&b, `<span class="font-weight-semibold"> %s </span>`, newPrice)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// listing wraps cards and an optional pagination block into a page.
func listing(pagination string, cards ...string) string {
	return `<!DOCTYPE html><html><body><div class="row">` +
		strings.Join(cards, "") +
		`</div>` + pagination + `</body></html>`
}

func pager(nextHref string, lastDisabled bool) string {
	cls := "page-item"
	if lastDisabled {
		cls += " disabled"
	}
	return `<ul class="pagination">` +
		`<li class="page-item"><a class="page-link" href="?s=0">1</a></li>` +
		fmt.Sprintf(`<li class=%q><a class="page-link" href=%q>Next</a></li>`, cls, nextHref) +
		`</ul>`
}
