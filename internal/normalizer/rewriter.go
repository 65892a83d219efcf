package normalizer

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"osmclean/internal/config"
	"osmclean/internal/models"
)

// Rewriter maps tags onto the canonical key and value vocabulary.
// It is safe for concurrent use.
type Rewriter struct {
	keyAliases   map[string]string
	cache        *lru.Cache[models.Tag, models.Tag]
	valueAliases []config.Alias
}

// NewRewriter creates a rewriter from the rule tables.
// A cacheSize of zero disables memoisation.
func NewRewriter(rules config.RulesConfig, cacheSize int) (*Rewriter, error) {
	r := &Rewriter{
		keyAliases:   make(map[string]string, len(rules.KeyAliases)),
		valueAliases: append([]config.Alias(nil), rules.ValueAliases...),
	}

	for k, v := range rules.KeyAliases {
		r.keyAliases[k] = v
	}

	if cacheSize > 0 {
		cache, err := lru.New[models.Tag, models.Tag](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create rewrite cache: %w", err)
		}

		r.cache = cache
	}

	return r, nil
}

// Rewrite returns the canonical form of tag. The input is not modified.
func (r *Rewriter) Rewrite(tag models.Tag) models.Tag {
	if r.cache != nil {
		if out, ok := r.cache.Get(tag); ok {
			return out
		}
	}

	out := r.rewrite(tag)

	if r.cache != nil {
		r.cache.Add(tag, out)
	}

	return out
}

func (r *Rewriter) rewrite(tag models.Tag) models.Tag {
	if alias, ok := r.keyAliases[tag.Key]; ok {
		tag.Key = alias
	}

	for _, a := range r.valueAliases {
		if strings.Contains(tag.Value, a.From) {
			tag.Value = strings.ReplaceAll(strings.ReplaceAll(tag.Value, a.From, a.To), "  ", " ")
		}
	}

	tag.Key = collapseNamespace(tag.Key)

	return tag
}

// collapseNamespace keeps the first namespace separator of a key and turns
// every later colon into an underscore.
func collapseNamespace(key string) string {
	if strings.Count(key, ":") < 2 {
		return key
	}

	i := strings.Index(key, ":") + 1

	return key[:i] + strings.ReplaceAll(key[i:], ":", "_")
}

// Change is one tag the rewriter altered.
type Change struct {
	Element string
	ID      string
	Before  models.Tag
	After   models.Tag
}

// Changes lists the tags of el whose rewrite differs from the original.
func (r *Rewriter) Changes(el *models.Element) []Change {
	var changes []Change

	for _, child := range el.Children {
		tag, ok := child.Tag()
		if !ok {
			continue
		}

		if out := r.Rewrite(tag); out != tag {
			changes = append(changes, Change{
				Element: el.Kind,
				ID:      el.Attrs["id"],
				Before:  tag,
				After:   out,
			})
		}
	}

	return changes
}
