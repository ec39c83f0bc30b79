// Package profile holds the selector catalog: per platform, per logical
// element, an ordered list of candidate CSS selectors. Lists are data, not
// code; callers extend them through configuration.
package profile

import (
	"fmt"
	"slices"
	"sort"
)

// Logical element names checked on every product page.
const (
	Title       = "title"
	Price       = "price"
	Description = "description"
	AddToCart   = "add_to_cart"
	Images      = "images"
	Variants    = "variants"
)

// Platforms known to the built-in catalog.
const (
	Shopify     = "shopify"
	BigCommerce = "bigcommerce"
	Generic     = "generic"
)

// Predicate names the content check a matched node must satisfy.
type Predicate string

const (
	PredicateExists  Predicate = "exists"  // any matching node
	PredicateText    Predicate = "text"    // non-empty trimmed text
	PredicatePrice   Predicate = "price"   // text with a currency symbol or a digit
	PredicateVisible Predicate = "visible" // non-empty layout box
)

func (p Predicate) valid() bool {
	switch p {
	case PredicateExists, PredicateText, PredicatePrice, PredicateVisible:
		return true
	}
	return false
}

// Element is the candidate list for one logical element.
type Element struct {
	Candidates []string  `json:"candidates" yaml:"candidates"`
	Predicate  Predicate `json:"predicate" yaml:"predicate"`
}

// Profile maps logical element names to their candidate lists for one platform.
type Profile struct {
	Platform string             `json:"platform" yaml:"platform"`
	Elements map[string]Element `json:"elements" yaml:"elements"`
}

// Element returns the entry for name. A missing entry yields an empty
// candidate list, which the validator reports as not found.
func (p Profile) Element(name string) Element {
	return p.Elements[name]
}

func (p Profile) clone() Profile {
	out := Profile{Platform: p.Platform, Elements: make(map[string]Element, len(p.Elements))}
	for k, e := range p.Elements {
		out.Elements[k] = Element{Candidates: slices.Clone(e.Candidates), Predicate: e.Predicate}
	}
	return out
}

// Catalog is an immutable set of profiles keyed by platform.
type Catalog struct {
	profiles map[string]Profile
}

// Platforms returns the platform names in sorted order.
func (c *Catalog) Platforms() []string {
	names := make([]string, 0, len(c.profiles))
	for k := range c.profiles {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns the profile for platform.
func (c *Catalog) Get(platform string) (Profile, bool) {
	p, ok := c.profiles[platform]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// For returns the profile for platform, or the generic profile when the
// platform is unknown.
func (c *Catalog) For(platform string) Profile {
	if p, ok := c.Get(platform); ok {
		return p
	}
	p, _ := c.Get(Generic)
	return p
}

// MergeMode controls how an override combines with built-in candidates.
type MergeMode string

const (
	MergePrepend MergeMode = "prepend"
	MergeReplace MergeMode = "replace"
	MergeAppend  MergeMode = "append"
)

// Override changes one element of one platform profile.
type Override struct {
	Candidates []string  `yaml:"candidates"`
	Predicate  Predicate `yaml:"predicate"`
	Mode       MergeMode `yaml:"mode"`
}

// Merge returns a new catalog with overrides applied. Unknown platforms are
// created from scratch, which is how callers add a platform.
func (c *Catalog) Merge(overrides map[string]map[string]Override) (*Catalog, error) {
	out := &Catalog{profiles: make(map[string]Profile, len(c.profiles))}
	for k, p := range c.profiles {
		out.profiles[k] = p.clone()
	}

	for platform, elems := range overrides {
		p, ok := out.profiles[platform]
		if !ok {
			p = Profile{Platform: platform, Elements: make(map[string]Element)}
		}
		for name, ov := range elems {
			if ov.Predicate != "" && !ov.Predicate.valid() {
				return nil, fmt.Errorf("profile: %s.%s: unknown predicate %q", platform, name, ov.Predicate)
			}
			cur := p.Elements[name]
			switch ov.Mode {
			case MergeReplace:
				cur.Candidates = slices.Clone(ov.Candidates)
			case MergeAppend:
				cur.Candidates = appendUnique(cur.Candidates, ov.Candidates...)
			case MergePrepend, "":
				cur.Candidates = appendUnique(slices.Clone(ov.Candidates), cur.Candidates...)
			default:
				return nil, fmt.Errorf("profile: %s.%s: unknown mode %q", platform, name, ov.Mode)
			}
			if ov.Predicate != "" {
				cur.Predicate = ov.Predicate
			}
			if cur.Predicate == "" {
				cur.Predicate = defaultPredicate(name)
			}
			p.Elements[name] = cur
		}
		out.profiles[platform] = p
	}
	return out, nil
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func defaultPredicate(name string) Predicate {
	switch name {
	case Title, Description:
		return PredicateText
	case Price:
		return PredicatePrice
	case AddToCart:
		return PredicateVisible
	default:
		return PredicateExists
	}
}
