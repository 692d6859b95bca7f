// Package portal adds content loops, taxonomy resolution, request zones and
// virtual routes to a server-rendered site.
//
// A [Portal] serves a [Theme] from any content.Provider and taxonomy.Store;
// pkg/store ships SQL and in-memory backends. Every request gets its own
// [Scope] holding the ambient item, the named loops, the memoized zone and the
// virtual route that claimed the path.
//
// # Quick Start
//
//	s := store.NewMemory()
//	theme, err := portal.LoadTheme(os.DirFS("theme"))
//	if err != nil {
//	    return err
//	}
//	routes := portal.NewRoutes(theme)
//	routes.Register("gallery", "gallery.html")
//
//	p := portal.New(s, s,
//	    portal.WithTheme(theme),
//	    portal.WithRoutes(routes),
//	    portal.WithBasePath("/blog"),
//	)
//	err = p.Run(":8080")
//
// # Themes
//
// Pages are html/template files picked by zone: page-{slug}.html, page.html,
// single.html, category-{slug}.html, category.html, archive.html, search.html,
// home.html, 404.html, each falling back to index.html. Loops are ranged
// directly:
//
//	{{range loop "news" (filter "category" "news") 5}}
//	    {{if newDay}}<h2>{{day}}</h2>{{end}}
//	    <h3>{{.Title}}</h3>
//	    {{range attachments "photos" (filter) 0}}<img src="{{mediaURL .}}">{{end}}
//	{{end}}
//
// A loop nested in another restores the outer item when it ends, so item,
// day and meta keep referring to the outer loop after the inner one.
//
// # Virtual Routes
//
// A route claims every path under basePath/prefix. The path remainder is
// available as purl and the first route template the theme has replaces the
// page the zone would have picked:
//
//	/blog/gallery/summer/3  ->  purl = ["summer" "3"]
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown. Register cleanup
// functions with ShutdownHook:
//
//	err := p.Run(":8080", portal.ShutdownHook(db.Shutdown(conn)))
package portal
