package ontario

import (
	"context"
	"fmt"
)

const cultureEnglish = "en-CA"

type mapEntry struct {
	MapID           int64 `json:"mapId"`
	LocalizedValues []struct {
		CultureName string `json:"cultureName"`
		Title       string `json:"title"`
	} `json:"localizedValues"`
}

type rootMapEntry struct {
	MapID                           int64             `json:"mapId"`
	ResourceLocationLocalizedValues map[string]string `json:"resourceLocationLocalizedValues"`
}

// Catalog maps map ids to English display titles. A nil Catalog knows no titles.
type Catalog struct {
	titles map[int64]string
}

func NewCatalog(titles map[int64]string) *Catalog {
	return &Catalog{titles: titles}
}

// Title implements availability.Titles.
func (c *Catalog) Title(id int64) string {
	if c == nil {
		return ""
	}
	return c.titles[id]
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.titles)
}

// LoadCatalog reads the map catalog. Titles come from the maps endpoint;
// root maps fill in ids the maps endpoint leaves untitled.
func (c *Client) LoadCatalog(ctx context.Context) (*Catalog, error) {
	var maps []mapEntry
	if err := c.getJSON(ctx, "maps", nil, &maps); err != nil {
		return nil, fmt.Errorf("load maps: %w", err)
	}
	var roots []rootMapEntry
	if err := c.getJSON(ctx, "resourcelocation/rootmaps", nil, &roots); err != nil {
		return nil, fmt.Errorf("load root maps: %w", err)
	}

	titles := make(map[int64]string, len(maps))
	for _, m := range maps {
		if t := mapTitle(m); t != "" {
			titles[m.MapID] = t
		}
	}
	for _, r := range roots {
		if _, ok := titles[r.MapID]; ok {
			continue
		}
		if t := r.ResourceLocationLocalizedValues[cultureEnglish]; t != "" {
			titles[r.MapID] = t
		}
	}
	return NewCatalog(titles), nil
}

func mapTitle(m mapEntry) string {
	for _, lv := range m.LocalizedValues {
		if lv.CultureName == cultureEnglish && lv.Title != "" {
			return lv.Title
		}
	}
	if len(m.LocalizedValues) > 0 {
		return m.LocalizedValues[0].Title
	}
	return ""
}
