package transfer

import (
	"encoding/json/v2"
	"log/slog"
	"strings"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/normalize"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/echotab/echotab-server/internal/validation"
)

// Importer reconciles snapshots and browser bookmark trees into the local
// stores. Imports are additive: nothing local is ever deleted.
type Importer struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewImporter creates an importer over the store container.
func NewImporter(s *store.Store, v *validation.Validator, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: s, validator: v, logger: logger}
}

// ImportJSON parses and imports a raw snapshot payload.
func (i *Importer) ImportJSON(raw []byte) (ImportResult, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return ImportResult{}, errors.Validation("snapshot is not valid JSON").WithCause(err)
	}
	return i.Import(snap)
}

// Import reconciles a snapshot into the local stores. The pipeline is
// validate, remap tags (name match merges with existing attributes winning,
// free ids are kept, only id collisions get fresh ids), rewrite tab tag
// references, merge tabs on canonical URL, then merge lists by title.
// Importing the same snapshot twice is a no-op beyond the first.
func (i *Importer) Import(snap Snapshot) (ImportResult, error) {
	if err := i.validator.Validate(snap); err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{TagRemap: make(map[int]int)}
	if err := i.reconcileTags(snap.Tags, &result); err != nil {
		return result, err
	}

	localTabIDs, err := i.importTabs(snap.Tabs, result.TagRemap, &result)
	if err != nil {
		return result, err
	}

	if err := i.importLists(snap.Lists, localTabIDs, &result); err != nil {
		return result, err
	}

	i.logger.Info("snapshot imported",
		"tags_created", result.TagsCreated,
		"tags_merged", result.TagsMerged,
		"tabs_created", result.TabsCreated,
		"tabs_merged", result.TabsMerged,
		"lists_created", result.ListsCreated,
	)
	return result, nil
}

// reconcileTags maps every snapshot tag id onto a local tag id. A local
// tag with the same casefolded name absorbs the incoming one, keeping its
// own color and flags. A tag whose id is free locally keeps that id, so
// re-importing an export round-trips; only an id already taken by a
// different tag gets a freshly allocated one.
func (i *Importer) reconcileTags(tags []SnapshotTag, result *ImportResult) error {
	existingByNorm := make(map[string]domain.Tag)
	existingIDs := make(map[int]bool)
	for _, t := range i.store.Tags.List() {
		existingByNorm[normalize.TagName(t.Name)] = t
		existingIDs[t.ID] = true
	}

	for _, st := range tags {
		if st.ID == domain.UntaggedID {
			result.TagRemap[st.ID] = domain.UntaggedID
			continue
		}
		norm := normalize.TagName(st.Name)
		if existing, ok := existingByNorm[norm]; ok {
			result.TagRemap[st.ID] = existing.ID
			result.TagsMerged++
			continue
		}

		tag := domain.Tag{
			Name:     st.Name,
			Color:    st.Color,
			Favorite: st.Favorite,
			Quick:    st.Quick,
			AI:       st.AI,
		}

		var created domain.Tag
		var err error
		if st.ID > 0 && !existingIDs[st.ID] {
			tag.ID = st.ID
			created, err = i.store.Tags.CreateWithID(tag)
		} else {
			created, err = i.store.Tags.Create(tag)
		}
		if err != nil {
			return err
		}
		existingByNorm[norm] = created
		existingIDs[created.ID] = true
		result.TagRemap[st.ID] = created.ID
		result.TagsCreated++
	}
	return nil
}

// importTabs rewrites tag references through the remap and saves the tabs,
// counting canonical-URL merges. Returns snapshot tab id -> local tab id.
func (i *Importer) importTabs(tabs []SnapshotTab, remap map[int]int, result *ImportResult) (map[string]string, error) {
	localTabIDs := make(map[string]string)
	if len(tabs) == 0 {
		return localTabIDs, nil
	}

	seen := make(map[string]bool)
	for _, t := range i.store.Bookmarks.All() {
		seen[t.CanonicalURL()] = true
	}

	toSave := make([]domain.SavedTab, 0, len(tabs))
	for _, st := range tabs {
		tagIDs := make([]int, 0, len(st.TagIDs))
		for _, snapID := range st.TagIDs {
			// References to tags missing from the snapshot are dropped.
			if localID, ok := remap[snapID]; ok {
				tagIDs = append(tagIDs, localID)
			}
		}

		canonical := normalize.CanonicalURL(st.URL)
		if seen[canonical] {
			result.TabsMerged++
		} else {
			result.TabsCreated++
			seen[canonical] = true
		}

		// Snapshot tab ids stay foreign; the store allocates local ones.
		toSave = append(toSave, domain.SavedTab{
			Title:         st.Title,
			URL:           st.URL,
			TagIDs:        tagIDs,
			SavedAt:       st.SavedAt,
			Pinned:        st.Pinned,
			VisitedAt:     st.VisitedAt,
			LastCuratedAt: st.LastCuratedAt,
			Note:          st.Note,
		})
	}

	saved, err := i.store.Bookmarks.SaveTabs(toSave)
	if err != nil {
		return nil, err
	}
	for idx, st := range tabs {
		if st.ID != "" && idx < len(saved) {
			localTabIDs[st.ID] = saved[idx].ID
		}
	}
	return localTabIDs, nil
}

// importLists merges lists by title: an existing list with the same title
// absorbs the imported tab references, otherwise a new list is created.
func (i *Importer) importLists(lists []SnapshotList, localTabIDs map[string]string, result *ImportResult) error {
	existingByTitle := make(map[string]string)
	for _, l := range i.store.Bookmarks.Lists() {
		existingByTitle[strings.ToLower(strings.TrimSpace(l.Title))] = l.ID
	}

	for _, sl := range lists {
		tabIDs := make([]string, 0, len(sl.TabIDs))
		for _, snapID := range sl.TabIDs {
			if localID, ok := localTabIDs[snapID]; ok {
				tabIDs = append(tabIDs, localID)
			}
		}

		key := strings.ToLower(strings.TrimSpace(sl.Title))
		if existingID, ok := existingByTitle[key]; ok {
			if _, err := i.store.Bookmarks.AddToList(existingID, tabIDs); err != nil {
				return err
			}
			continue
		}

		created, err := i.store.Bookmarks.CreateList(sl.Title, sl.Content, tabIDs)
		if err != nil {
			return err
		}
		existingByTitle[key] = created.ID
		result.ListsCreated++
	}
	return nil
}

// ImportBrowserTree walks a browser bookmark tree and saves every
// bookmark, tagging each with one tag per ancestor folder. Folder tags are
// matched to existing tags by casefolded name and created on demand.
func (i *Importer) ImportBrowserTree(root BookmarkNode) (ImportResult, error) {
	result := ImportResult{TagRemap: make(map[int]int)}

	existingByNorm := make(map[string]domain.Tag)
	for _, t := range i.store.Tags.List() {
		existingByNorm[normalize.TagName(t.Name)] = t
	}

	ensureTag := func(name string) (int, error) {
		norm := normalize.TagName(name)
		if existing, ok := existingByNorm[norm]; ok {
			return existing.ID, nil
		}
		created, err := i.store.Tags.Create(domain.Tag{Name: normalize.Title(name)})
		if err != nil {
			return 0, err
		}
		existingByNorm[norm] = created
		result.TagsCreated++
		return created.ID, nil
	}

	seen := make(map[string]bool)
	for _, t := range i.store.Bookmarks.All() {
		seen[t.CanonicalURL()] = true
	}

	var toSave []domain.SavedTab
	var walk func(node BookmarkNode, ancestors []int) error
	walk = func(node BookmarkNode, ancestors []int) error {
		if node.URL != "" {
			canonical := normalize.CanonicalURL(node.URL)
			if seen[canonical] {
				result.TabsMerged++
			} else {
				result.TabsCreated++
				seen[canonical] = true
			}
			toSave = append(toSave, domain.SavedTab{
				Title:  node.Title,
				URL:    node.URL,
				TagIDs: append([]int(nil), ancestors...),
			})
			return nil
		}

		folderTags := ancestors
		if name := strings.TrimSpace(node.Title); name != "" {
			tagID, err := ensureTag(name)
			if err != nil {
				return err
			}
			folderTags = append(append([]int(nil), ancestors...), tagID)
		}
		for _, child := range node.Children {
			if err := walk(child, folderTags); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, nil); err != nil {
		return result, err
	}
	if len(toSave) == 0 {
		return result, errors.Validation("bookmark tree contains no bookmarks")
	}
	if _, err := i.store.Bookmarks.SaveTabs(toSave); err != nil {
		return result, err
	}

	i.logger.Info("browser bookmarks imported",
		"tags_created", result.TagsCreated,
		"tabs_created", result.TabsCreated,
		"tabs_merged", result.TabsMerged,
	)
	return result, nil
}
