package learncache

import "github.com/mbeoliero/learncache/utils"

// BuildKey returns the externally visible key "{category}:{key}".
func BuildKey(category, key string) string {
	return category + ":" + key
}

// CategoryPattern matches every key of a category.
func CategoryPattern(category string) string {
	return category + ":*"
}

// KeyOf joins key parts with ':' for use in key builders.
func KeyOf(parts ...any) string {
	return utils.Join(":", parts...)
}
