package model

// CatalogEntry is one purchasable cosmetic. The catalog is static: item
// names referenced by PurchasedItem records must resolve here.
type CatalogEntry struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

var catalog = []CatalogEntry{
	{Name: "bamboo-rod", Price: 50},
	{Name: "brass-reel", Price: 80},
	{Name: "lucky-hat", Price: 120},
	{Name: "night-bobber", Price: 150},
	{Name: "koi-charm", Price: 200},
	{Name: "golden-lure", Price: 300},
}

// Catalog returns the full list of purchasable cosmetics.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// LookupCatalog resolves an item name to its catalog entry.
func LookupCatalog(name string) (CatalogEntry, bool) {
	for _, e := range catalog {
		if e.Name == name {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
