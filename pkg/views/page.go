package views

// Page is one slice of a paginated listing. Numbers start at 1.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Number  int  `json:"page"`
	Size    int  `json:"size"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// Paginate returns page number n of items. Out of range pages are clamped
// to the nearest valid page.
func Paginate[T any](items []T, n, size int) Page[T] {
	if size <= 0 {
		size = PageSizeLarge
	}
	pages := (len(items) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	end := min(start+size, len(items))
	return Page[T]{
		Items:   append([]T{}, items[start:end]...),
		Number:  n,
		Size:    size,
		Total:   len(items),
		Pages:   pages,
		HasPrev: n > 1,
		HasNext: n < pages,
	}
}

// Map converts the items of a page.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{
		Items:   make([]U, 0, len(p.Items)),
		Number:  p.Number,
		Size:    p.Size,
		Total:   p.Total,
		Pages:   p.Pages,
		HasPrev: p.HasPrev,
		HasNext: p.HasNext,
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, fn(it))
	}
	return out
}
