package catalog

import "strings"

// VariationAttributeKey is the key a variation stores its selected option under.
func VariationAttributeKey(name string) string {
	if strings.HasPrefix(name, "attribute_") {
		return name
	}
	return "attribute_" + name
}

// MatchVariation finds the first variation, by ascending ID, whose options agree with attrs.
// A variation agrees when every attribute it defines is either "any" or equal to the requested
// value. A variation that needs a value attrs does not give is not matched. Draft and trashed
// variations are never matched, nor is an empty request.
func MatchVariation(variations []*Product, attrs AttributeValues) *Product {
	if len(attrs) == 0 {
		return nil
	}

	requested := make(map[string]string, len(attrs))
	for _, a := range attrs {
		requested[VariationAttributeKey(a.Key)] = a.Value
	}

	for _, v := range variations {
		if v.Status != StatusPublish && v.Status != StatusPrivate {
			continue
		}
		if variationAgrees(v, requested) {
			return v
		}
	}
	return nil
}

func variationAgrees(v *Product, requested map[string]string) bool {
	for _, a := range v.VariationAttributes {
		if a.Value == "" {
			continue
		}
		if want, ok := requested[VariationAttributeKey(a.Key)]; !ok || a.Value != want {
			return false
		}
	}
	return true
}
