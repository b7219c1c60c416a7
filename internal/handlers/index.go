package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>SMITE Item Ratings</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 70rem; background: #10141c; color: #e8e6e3; }
  h1 { color: #ffb347; margin-bottom: 0.2rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #2a3242; }
  th { color: #8a93a5; font-weight: 600; }
  tr:hover { background: #1a2230; }
  a { color: #6db3f2; text-decoration: none; }
  .pos { color: #7ddf64; }
  .neg { color: #e05263; }
  .meta { color: #8a93a5; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>SMITE Item Ratings</h1>
{{if .Loaded}}
<p class="meta">Run {{.RunID}} &middot; generated {{.Generated}}{{if .Patch}} &middot; patch {{.Patch}}{{end}} &middot; {{.Matches}} matches &middot; {{.Participants}} builds</p>
<table>
<tr><th>God</th><th>Matches</th><th>Win rate</th><th>Best buy</th><th>Worst enemy item</th><th>Holdout AUC</th></tr>
{{range .Gods}}<tr>
<td><a href="/api/v1/gods/{{.GodID}}/ratings">{{.GodName}}</a></td>
<td>{{.Matches}}</td>
<td>{{.WinRate}}</td>
<td class="pos">{{.BestItem}}</td>
<td class="neg">{{.WorstEnemy}}</td>
<td>{{.HoldoutAUC}}</td>
</tr>
{{end}}</table>
{{else}}
<p>No ratings snapshot loaded yet. Run the trainer, then refresh.</p>
{{end}}
<p class="meta">JSON: <a href="/api/v1/snapshot">snapshot</a> &middot; <a href="/api/v1/gods">gods</a> &middot; <a href="/api/v1/items">items</a></p>
</body>
</html>
`))

type indexGod struct {
	GodID      int
	GodName    string
	Matches    int
	WinRate    string
	BestItem   string
	WorstEnemy string
	HoldoutAUC string
}

type indexView struct {
	Loaded       bool
	RunID        string
	Generated    string
	Patch        string
	Matches      int
	Participants int
	Gods         []indexGod
}

// Index renders the HTML dashboard page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	view := indexView{}
	if snap := h.ratings.Get(); snap != nil {
		view.Loaded = true
		view.RunID = snap.RunID
		view.Generated = snap.GeneratedAt.Format("2006-01-02 15:04 MST")
		view.Patch = snap.PatchVersion
		view.Matches = snap.Matches
		view.Participants = snap.Participants
		for _, g := range snap.Gods {
			row := indexGod{
				GodID:   g.GodID,
				GodName: g.GodName,
				Matches: g.Matches,
			}
			if g.Matches > 0 {
				row.WinRate = fmt.Sprintf("%.1f%%", 100*float64(g.Wins)/float64(g.Matches))
			}
			if len(g.With) > 0 {
				row.BestItem = g.With[0].ItemName
			}
			if len(g.Against) > 0 {
				row.WorstEnemy = g.Against[0].ItemName
			}
			if g.Metrics.HoldoutExamples > 0 {
				row.HoldoutAUC = fmt.Sprintf("%.3f", g.Metrics.HoldoutAUC)
			}
			view.Gods = append(view.Gods, row)
		}
	}

	// Render to a buffer so a template fault never sends a torn page.
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		h.logger.Errorw("Failed to render index", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
