package modules

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/sanitize"
	"github.com/joss/termfolio/internal/viewer"
)

// env is what a renderer may reach: link resolution and the viewer for
// side effects.
type env struct {
	client *Client
	viewer viewer.Viewer
}

func (e env) open(link string) func() {
	if link == "" || e.viewer == nil {
		return nil
	}
	if !sanitize.Href(link) {
		logging.New("modules").Warn("open_blocked", map[string]interface{}{"target": link}, nil)
		return nil
	}
	target := e.client.Resolve(link)
	return func() {
		if err := e.viewer.Open(target); err != nil {
			logging.New("modules").Warn("open_failed", map[string]interface{}{"target": target}, err)
		}
	}
}

func (e env) copy(text string) func() {
	if text == "" || e.viewer == nil {
		return nil
	}
	return func() {
		if err := e.viewer.Copy(text); err != nil {
			logging.New("modules").Warn("copy_failed", nil, err)
		}
	}
}

type renderFunc func(doc gjson.Result, e env) domain.CommandResponse

// section is one numbered module: where its data lives, what shape it has,
// and how it prints.
type section struct {
	id       int
	name     string
	title    string
	endpoint string
	schema   Schema
	render   renderFunc
}

var linkItem = Schema{
	{Path: "label", Type: String},
	{Path: "href", Type: String},
}

var catalog = []section{
	{
		id: 1, name: "bio", title: "about me", endpoint: "bio",
		schema: Schema{
			{Path: "name", Type: String},
			{Path: "headline", Type: String},
			{Path: "summary", Type: Array},
		},
		render: renderBio,
	},
	{
		id: 2, name: "cv", title: "experience", endpoint: "cv",
		schema: Schema{
			{Path: "roles", Type: Array, Items: Schema{
				{Path: "title", Type: String},
				{Path: "org", Type: String},
				{Path: "period", Type: String, Optional: true},
			}},
			{Path: "pdf_url", Type: String, Optional: true},
		},
		render: renderCV,
	},
	{
		id: 3, name: "projects", title: "projects", endpoint: "projects",
		schema: Schema{
			{Path: "projects", Type: Array, Items: Schema{
				{Path: "name", Type: String},
				{Path: "description", Type: String},
				{Path: "url", Type: String, Optional: true},
			}},
		},
		render: renderProjects,
	},
	{
		id: 4, name: "links", title: "links", endpoint: "links",
		schema: Schema{
			{Path: "links", Type: Array, Items: linkItem},
		},
		render: renderLinks,
	},
	{
		id: 5, name: "investments", title: "investments", endpoint: "investments",
		schema: Schema{
			{Path: "holdings", Type: Array, Items: Schema{
				{Path: "ticker", Type: String},
				{Path: "change", Type: Number},
			}},
			{Path: "as_of", Type: String, Optional: true},
		},
		render: renderInvestments,
	},
	{
		id: 6, name: "writing", title: "writing", endpoint: "writing",
		schema: Schema{
			{Path: "posts", Type: Array, Items: Schema{
				{Path: "title", Type: String},
				{Path: "date", Type: String, Optional: true},
				{Path: "url", Type: String},
			}},
		},
		render: renderWriting,
	},
	{
		id: 7, name: "reel", title: "reel", endpoint: "reel",
		schema: Schema{
			{Path: "title", Type: String},
			{Path: "url", Type: String},
		},
		render: renderReel,
	},
	{
		id: 8, name: "contact", title: "contact", endpoint: "contact",
		schema: Schema{
			{Path: "email", Type: String},
			{Path: "socials", Type: Array, Optional: true, Items: linkItem},
		},
		render: renderContact,
	},
}

func heading(text string) domain.LineSpec {
	return domain.Text(domain.KindAccent, text)
}

func empty(what string) domain.LineSpec {
	return domain.LineSpec{Kind: domain.KindMuted, Text: "no " + what + " yet.", Instant: true}
}

func renderBio(doc gjson.Result, _ env) domain.CommandResponse {
	lines := []domain.LineSpec{
		heading(doc.Get("name").String()),
		domain.Text(domain.KindOutput, doc.Get("headline").String()),
	}
	for _, p := range doc.Get("summary").Array() {
		lines = append(lines, domain.Text(domain.KindOutput, p.String()))
	}
	return domain.Respond(lines...)
}

func renderCV(doc gjson.Result, e env) domain.CommandResponse {
	lines := []domain.LineSpec{heading("experience")}
	roles := doc.Get("roles").Array()
	if len(roles) == 0 {
		lines = append(lines, empty("roles"))
	}
	for _, r := range roles {
		text := r.Get("title").String() + " @ " + r.Get("org").String()
		if period := r.Get("period").String(); period != "" {
			text += " (" + period + ")"
		}
		lines = append(lines, domain.Text(domain.KindOutput, text))
	}
	resp := domain.Respond(lines...)
	if open := e.open(doc.Get("pdf_url").String()); open != nil {
		resp.Lines = append(resp.Lines, domain.LineSpec{Kind: domain.KindMuted, Text: "opening pdf...", Instant: true})
		resp.SideEffect = open
	}
	return resp
}

func renderProjects(doc gjson.Result, _ env) domain.CommandResponse {
	lines := []domain.LineSpec{heading("projects")}
	items := doc.Get("projects").Array()
	if len(items) == 0 {
		lines = append(lines, empty("projects"))
	}
	for _, p := range items {
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: p.Get("name").String(), Kind: domain.KindAccent, Href: p.Get("url").String()},
			domain.Segment{Text: " " + p.Get("description").String(), Kind: domain.KindOutput},
		))
	}
	return domain.Respond(lines...)
}

func linkLines(items []gjson.Result) []domain.LineSpec {
	lines := make([]domain.LineSpec, 0, len(items))
	for _, l := range items {
		href := l.Get("href").String()
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: l.Get("label").String(), Kind: domain.KindAccent, Href: href},
			domain.Segment{Text: " " + href, Kind: domain.KindMuted},
		))
	}
	return lines
}

func renderLinks(doc gjson.Result, e env) domain.CommandResponse {
	items := doc.Get("links").Array()
	lines := []domain.LineSpec{heading("links")}
	if len(items) == 0 {
		return domain.Respond(append(lines, empty("links"))...)
	}
	resp := domain.Respond(append(lines, linkLines(items)...)...)
	resp.SideEffect = e.copy(e.client.Resolve(items[0].Get("href").String()))
	return resp
}

// changeKind maps a percentage change to gain, loss or flat.
func changeKind(change float64) domain.Kind {
	switch {
	case change > 0:
		return domain.KindGain
	case change < 0:
		return domain.KindLoss
	default:
		return domain.KindFlat
	}
}

func renderInvestments(doc gjson.Result, _ env) domain.CommandResponse {
	title := "investments"
	if asOf := doc.Get("as_of").String(); asOf != "" {
		title += " as of " + asOf
	}
	lines := []domain.LineSpec{heading(title)}
	holdings := doc.Get("holdings").Array()
	if len(holdings) == 0 {
		lines = append(lines, empty("holdings"))
	}
	for _, h := range holdings {
		change := h.Get("change").Float()
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: h.Get("ticker").String(), Kind: domain.KindOutput},
			domain.Segment{Text: fmt.Sprintf(" %+.2f%%", change), Kind: changeKind(change)},
		))
	}
	return domain.Respond(lines...)
}

func renderWriting(doc gjson.Result, _ env) domain.CommandResponse {
	lines := []domain.LineSpec{heading("writing")}
	posts := doc.Get("posts").Array()
	if len(posts) == 0 {
		lines = append(lines, empty("posts"))
	}
	for _, p := range posts {
		segs := []domain.Segment{{Text: p.Get("title").String(), Kind: domain.KindAccent, Href: p.Get("url").String()}}
		if date := p.Get("date").String(); date != "" {
			segs = append(segs, domain.Segment{Text: " " + date, Kind: domain.KindMuted})
		}
		lines = append(lines, domain.Segmented(domain.KindOutput, segs...))
	}
	return domain.Respond(lines...)
}

func renderReel(doc gjson.Result, e env) domain.CommandResponse {
	resp := domain.Respond(heading(doc.Get("title").String()))
	if open := e.open(doc.Get("url").String()); open != nil {
		resp.Lines = append(resp.Lines, domain.LineSpec{Kind: domain.KindMuted, Text: "opening reel...", Instant: true})
		resp.SideEffect = open
	}
	return resp
}

func renderContact(doc gjson.Result, e env) domain.CommandResponse {
	email := doc.Get("email").String()
	lines := []domain.LineSpec{
		heading("contact"),
		domain.Segmented(domain.KindOutput,
			domain.Segment{Text: "email", Kind: domain.KindMuted},
			domain.Segment{Text: " " + email, Kind: domain.KindAccent, Href: "mailto:" + email},
		),
	}
	lines = append(lines, linkLines(doc.Get("socials").Array())...)
	resp := domain.Respond(lines...)
	resp.SideEffect = e.copy(email)
	return resp
}
