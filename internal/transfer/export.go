package transfer

import (
	"encoding/json/v2"
	"fmt"
	"html"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/store"
)

// Exporter renders store state for export: full JSON snapshots, and
// clipboard text in the formats the settings offer.
type Exporter struct {
	store *store.Store
	now   func() time.Time
}

// NewExporter creates an exporter over the store container.
func NewExporter(s *store.Store, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{store: s, now: now}
}

// Snapshot captures the full exportable state.
func (e *Exporter) Snapshot() Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: e.now(),
		Sessions:   e.store.Curate.Sessions(),
	}

	for _, t := range e.store.Tags.List() {
		snap.Tags = append(snap.Tags, SnapshotTag{
			ID:       t.ID,
			Name:     t.Name,
			Color:    t.Color,
			Favorite: t.Favorite,
			Quick:    t.Quick,
			AI:       t.AI,
		})
	}
	for _, t := range e.store.Bookmarks.All() {
		snap.Tabs = append(snap.Tabs, SnapshotTab{
			ID:            t.ID,
			Title:         t.Title,
			URL:           t.URL,
			TagIDs:        t.TagIDs,
			SavedAt:       t.SavedAt,
			Pinned:        t.Pinned,
			VisitedAt:     t.VisitedAt,
			LastCuratedAt: t.LastCuratedAt,
			Note:          t.Note,
		})
	}
	for _, l := range e.store.Bookmarks.Lists() {
		snap.Lists = append(snap.Lists, SnapshotList{
			ID:      l.ID,
			Title:   l.Title,
			Content: l.Content,
			TabIDs:  l.TabIDs,
		})
	}
	return snap
}

// JSON renders the snapshot as a deterministic JSON document, stable
// enough to diff two exports.
func (e *Exporter) JSON() ([]byte, error) {
	raw, err := json.Marshal(e.Snapshot(), json.Deterministic(true))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal snapshot")
	}
	return raw, nil
}

// RenderTabs renders saved tabs as clipboard text in the given format:
// bare URLs one per line, an HTML link list, or that list converted to
// markdown.
func (e *Exporter) RenderTabs(tabs []domain.SavedTab, format domain.ClipboardFormat) (string, error) {
	if len(tabs) == 0 {
		return "", errors.Validation("nothing to copy")
	}

	switch format {
	case domain.ClipboardURLs:
		urls := make([]string, len(tabs))
		for i, t := range tabs {
			urls[i] = t.URL
		}
		return strings.Join(urls, "\n") + "\n", nil

	case domain.ClipboardHTML:
		return renderTabsHTML(tabs), nil

	case domain.ClipboardMarkdown:
		md, err := htmltomarkdown.ConvertString(renderTabsHTML(tabs))
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInternal, "convert tabs to markdown")
		}
		return md, nil

	default:
		return "", errors.Validationf("unrecognized clipboard format %q", format)
	}
}

// RenderList renders a list as a markdown document: the list's rich-text
// content followed by its tabs as links. Dangling tab references are
// skipped.
func (e *Exporter) RenderList(listID string) (string, error) {
	l, err := e.store.Bookmarks.GetList(listID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<h1>" + html.EscapeString(l.Title) + "</h1>\n")
	if l.Content != "" {
		b.WriteString(l.Content)
		b.WriteString("\n")
	}

	var tabs []domain.SavedTab
	for _, tabID := range l.TabIDs {
		if t, getErr := e.store.Bookmarks.Get(tabID); getErr == nil {
			tabs = append(tabs, t)
		}
	}
	if len(tabs) > 0 {
		b.WriteString(renderTabsHTML(tabs))
	}

	md, err := htmltomarkdown.ConvertString(b.String())
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "convert list to markdown")
	}
	return md, nil
}

func renderTabsHTML(tabs []domain.SavedTab) string {
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, t := range tabs {
		title := t.Title
		if title == "" {
			title = t.URL
		}
		fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>\n",
			t.URL, html.EscapeString(title))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
