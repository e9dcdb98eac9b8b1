package server

import (
	"html/template"
	"net/http"
	"time"

	"mingle/internal/models"
)

var feedTemplate = template.Must(template.New("feed").Funcs(template.FuncMap{
	"timestamp": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mingle</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
.post { border-bottom: 1px solid #ddd; padding: 1rem 0; }
.post img { max-width: 100%; }
.meta { color: #666; font-size: 0.85rem; }
form.compose textarea { width: 100%; min-height: 4rem; }
</style>
</head>
<body>
<header>
<strong>mingle</strong>
<span class="meta">signed in as {{.Viewer}} &middot; <a href="/logout">log out</a></span>
</header>
<form class="compose" method="post" action="/posts" enctype="multipart/form-data">
<textarea name="content" placeholder="What's happening?"></textarea>
<input type="file" name="media" accept=".jpg,.jpeg,.png,.gif">
<button type="submit">Post</button>
</form>
<main>
{{range .Posts}}
<div class="post">
<div class="meta">{{.Author}} &middot; {{timestamp .CreatedAt}}</div>
{{with .Content}}<p>{{.}}</p>{{end}}
{{with .MediaURL}}<img src="{{.}}" alt="">{{end}}
{{if eq .Author $.Viewer}}
<form method="post" action="/posts/{{.ID}}/delete"><button type="submit">Delete</button></form>
{{end}}
</div>
{{else}}
<p class="meta">No posts yet.</p>
{{end}}
</main>
</body>
</html>
`))

type feedPage struct {
	Viewer string
	Posts  []models.Post
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := feedTemplate.Execute(w, feedPage{Viewer: principal.Identity(), Posts: posts}); err != nil {
		s.log().Error("render feed", "error", err)
	}
}
