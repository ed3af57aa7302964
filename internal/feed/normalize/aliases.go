package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pricefeed_api/config/values"
)

// aliasTable resolves dedicated record fields from spec table keys.
type aliasTable struct {
	registry  []string
	guarantee []string
	// identifierKey is the spec key SKUs are written under; identifier is its folded form.
	identifierKey string
	identifier    string
}

func newAliasTable(cfg values.SpecAliases) aliasTable {
	cfg = cfg.WithDefaults()
	t := aliasTable{identifierKey: cfg.Identifier, identifier: foldKey(cfg.Identifier)}
	for _, a := range cfg.Registry {
		t.registry = append(t.registry, foldKey(a))
	}
	for _, a := range cfg.Guarantee {
		t.guarantee = append(t.guarantee, foldKey(a))
	}
	return t
}

// foldKey makes keys comparable regardless of unicode composition and letter case.
func foldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// lookup returns the value of the first alias present in spec with a non-empty value.
func lookup(spec *SpecTable, aliases []string) string {
	folded := make(map[string]string, spec.Len())
	for _, k := range spec.Keys() {
		v, _ := spec.Get(k)
		if v == "" {
			continue
		}
		fk := foldKey(k)
		if _, ok := folded[fk]; !ok {
			folded[fk] = v
		}
	}
	for _, a := range aliases {
		if v, ok := folded[a]; ok {
			return v
		}
	}
	return ""
}

func (t aliasTable) hasIdentifier(spec *SpecTable) bool {
	for _, k := range spec.Keys() {
		if foldKey(k) == t.identifier {
			return true
		}
	}
	return false
}
