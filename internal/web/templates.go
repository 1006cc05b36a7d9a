package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/codex-snake/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

const cellPx = 24

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellStyle": cellStyle,
		"gridStyle": func(s domain.Snapshot) template.CSS {
			return template.CSS(fmt.Sprintf("display:grid;grid-template-columns:repeat(%d,%dpx);grid-auto-rows:%dpx;border:2px solid white;width:max-content",
				s.Width, cellPx, cellPx))
		},
	}
}

// cellStyle colours a cell; tail segments fade with distance from the head.
func cellStyle(c domain.Cell) template.CSS {
	switch c.Kind {
	case domain.CellHead:
		return "background:#e0efef;box-shadow:#641e8f 0 0 24px 2px;z-index:1"
	case domain.CellApple:
		return "background:red;border:1px solid white;box-shadow:0 0 32px 4px #cd0d0d;z-index:1"
	case domain.CellTail:
		r := max(50, (150-c.Order*3)%200)
		b := max(100, 255-c.Order*3)
		return template.CSS(fmt.Sprintf("background:rgb(%d,20,%d)", r, b))
	default:
		return "background:#160016"
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Snake</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body style="background:#100010;color:#e0efef;font-family:sans-serif">{{template "content" .}}</body></html>`))
	// The board lives in the same set so the game page can include it.
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Snake</h1><form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board-stream" hx-sse="swap:board">{{template "board" .}}</div>
</div>
{{if not .Spectator}}
<div hx-post="/game/{{.ID}}/key" hx-trigger="keydown from:body" hx-vals='js:{key: event.code}' hx-swap="none"></div>
{{end}}`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `<div id="board">
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  <div class="status">Score: {{.Snap.Score}}{{if .Snap.Paused}} (paused){{end}}{{if .Spectator}} (watching){{end}}</div>
  <div class="grid" style="{{gridStyle .Snap}}">{{range $row := .Snap.Rows}}{{range $c := $row}}<div style="{{cellStyle $c}}"></div>{{end}}{{end}}</div>
  {{if .Defeated}}<div class="over">Defeat! Your score is: {{.Snap.Score}}</div>{{end}}
  {{if .Won}}<div class="over">Board full! Your score is: {{.Snap.Score}}</div>{{end}}
  {{if not .Spectator}}
  <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">Restart</button></form>
  <form hx-post="/game/{{.ID}}/pause" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">{{if .Snap.Paused}}Resume{{else}}Pause{{end}}</button></form>
  {{end}}
</div>`

type boardData struct {
	ID        string
	Snap      domain.Snapshot
	Error     string
	Spectator bool
	Defeated  bool
	Won       bool
}

func newBoardData(id string, snap domain.Snapshot, spectator bool, errMsg string) boardData {
	return boardData{
		ID:        id,
		Snap:      snap,
		Error:     errMsg,
		Spectator: spectator,
		Defeated:  snap.Status == domain.Defeated,
		Won:       snap.Status == domain.Won,
	}
}

const playerCookie = "player_id"

// ensurePlayerCookie returns the caller's player ID, issuing one if missing.
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if pid := playerID(r); pid != "" {
		return pid
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: playerCookie, Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}

func playerID(r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil {
		return c.Value
	}
	return ""
}
