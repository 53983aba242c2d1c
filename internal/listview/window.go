package listview

// PageLink is one entry of the pagination bar: a page number or an ellipsis.
type PageLink struct {
	Page     int
	Ellipsis bool
	Current  bool
}

// PageWindow lists the page links for current out of total: the first and last
// page and every page within one of current, with each remaining gap collapsed
// into a single ellipsis.
func PageWindow(current, total int) []PageLink {
	if total <= 0 {
		return nil
	}

	links := make([]PageLink, 0, 7)
	last := 0
	for _, page := range []int{1, current - 1, current, current + 1, total} {
		if page <= last || page > total {
			continue
		}
		if page > last+1 {
			links = append(links, PageLink{Ellipsis: true})
		}
		links = append(links, PageLink{Page: page, Current: page == current})
		last = page
	}
	return links
}
