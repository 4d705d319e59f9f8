package catalog

import "strings"

// Relation type keys. Every stored relation carries exactly one of these.
const (
	TypeParent  = "parent"
	TypePartner = "partner"
	TypeSibling = "sibling"
	TypeCousin  = "cousin"
	TypeOther   = "other"
)

// RelationType describes one entry of the fixed relation catalog: a stable
// key, a Swedish display label and the raw strings that normalize to it.
type RelationType struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Aliases []string `json:"aliases"`
}

var types = []RelationType{
	{
		Key:   TypeParent,
		Label: "Förälder/Barn",
		Aliases: []string{
			"förälder", "foralder", "barn", "mor", "far", "mamma", "pappa",
			"förälder/barn", "mother", "father", "child", "parent/child",
		},
	},
	{
		Key:   TypePartner,
		Label: "Partner",
		Aliases: []string{
			"make", "maka", "sambo", "gift", "man", "fru",
			"spouse", "husband", "wife",
		},
	},
	{
		Key:   TypeSibling,
		Label: "Syskon",
		Aliases: []string{
			"syskon", "bror", "syster", "halvsyskon",
			"brother", "sister",
		},
	},
	{
		Key:     TypeCousin,
		Label:   "Kusin",
		Aliases: []string{"kusin", "syssling"},
	},
	{
		Key:     TypeOther,
		Label:   "Övrigt",
		Aliases: []string{"övrigt", "ovrigt", "annan", "okänd"},
	},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	idx := make(map[string]string)
	for _, t := range types {
		idx[t.Key] = t.Key
		for _, a := range t.Aliases {
			idx[a] = t.Key
		}
	}
	return idx
}

// Normalize maps a raw relation-type label to a catalog key. Lookup is
// case-insensitive and whitespace-tolerant; unrecognized labels map to
// TypeOther. Normalize is idempotent: every key normalizes to itself.
func Normalize(raw string) string {
	key, ok := aliasIndex[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return TypeOther
	}
	return key
}

// IsKey reports whether s is one of the five catalog keys.
func IsKey(s string) bool {
	switch s {
	case TypeParent, TypePartner, TypeSibling, TypeCousin, TypeOther:
		return true
	}
	return false
}

// Label returns the Swedish display label for a catalog key. Unknown keys
// fall back to the TypeOther label.
func Label(key string) string {
	for _, t := range types {
		if t.Key == key {
			return t.Label
		}
	}
	return Label(TypeOther)
}

// Types returns a copy of the catalog in display order.
func Types() []RelationType {
	out := make([]RelationType, len(types))
	copy(out, types)
	return out
}
