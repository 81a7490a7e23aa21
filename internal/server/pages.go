package server

import (
	"fmt"
	"net/http"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/views"
)

// pageLayout wraps content in the shared HTML shell.
func pageLayout(title string, inner g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				Script(Src("https://cdn.tailwindcss.com")),
			),
			Body(
				Class("bg-slate-900 text-slate-200 font-sans"),
				Main(Class("max-w-6xl mx-auto px-4 py-8"), inner),
			),
		),
	})
}

func cardNode(c views.Card) g.Node {
	return Article(
		Class("card rounded-lg bg-slate-800 p-4"),
		g.Attr("data-slug", c.Slug),
		H3(Class("font-semibold"), g.Text(c.Name)),
		P(Class("text-sm text-slate-400"), g.Text(c.Description)),
		Div(Class("mt-2 flex gap-2"),
			g.Map(c.Badges, func(b string) g.Node {
				return Span(Class("badge text-xs rounded bg-slate-700 px-2"), g.Text(b))
			}),
		),
		g.If(c.Stars != "", Span(Class("stars text-xs"), g.Text("★ "+c.Stars))),
		g.If(c.SourceDomain != "", Span(Class("domain text-xs ml-2"), g.Text(c.SourceDomain))),
	)
}

func blockNode(id, title string, cards []views.Card) g.Node {
	return Section(ID(id), Class("mb-8"),
		H2(Class("text-xl font-bold mb-4"), g.Text(title)),
		Div(Class("grid grid-cols-1 md:grid-cols-3 gap-4"), g.Map(cards, cardNode)),
	)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	now := s.now()
	sidebar := views.Sidebar(cats, now, s.Config.SponsoredMax)
	query := r.URL.Query().Get("q")
	filtered := views.Filter{Query: query}.Apply(cats)
	groups := views.Group(filtered.Categories)

	page := g.Group([]g.Node{
		H1(Class("text-3xl font-extrabold mb-6"), g.Text("Script catalog")),
		Form(Method("get"), Action("/"), Class("mb-6"),
			Input(Type("search"), Name("q"), Value(query), Placeholder("Search scripts"),
				Class("w-full rounded bg-slate-800 px-3 py-2")),
		),
		g.If(query != "", P(ID("result-count"), Class("mb-4 text-sm"),
			g.Textf("%d of %d scripts match", filtered.Matched, filtered.Total))),
		g.If(query != "", blockNode("results", "Results", views.Cards(views.Dedupe(filtered.Categories)))),
		g.If(len(sidebar.Entries) > 0, blockNode("sponsored", "Sponsored", views.Cards(sidebar.Entries))),
		blockNode("trending", "Trending", views.Cards(views.Trending(cats, now))),
		blockNode("popular", "Popular", views.Paginate(views.Cards(views.Popular(cats, s.Config.Featured)), 1, views.PageSizeLarge).Items),
		blockNode("latest", "Latest", views.Paginate(views.Cards(views.Latest(cats)), 1, views.PageSizeLarge).Items),
		Section(ID("categories"),
			g.Map(groups, func(grp views.CategoryGroup) g.Node {
				return Div(Class("group mb-6"),
					H2(Class("text-lg font-bold"), g.Text(grp.Name)),
					Ul(g.Map(grp.Categories, func(c catalog.Category) g.Node {
						return Li(g.Text(fmt.Sprintf("%s (%d)", c.Name, len(c.Scripts))))
					})),
				)
			}),
		),
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageLayout("Script catalog", page).Render(w); err != nil {
		s.Log.WithError(err).Error("Error rendering home page")
	}
}
