package documents

import (
	"strings"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// Types and statuses hidden from "any" queries. The types are the source CMS's
// non-public built-ins plus attachments, which never carry block content.
var (
	DefaultExcludedTypes = []string{
		"attachment",
		"revision",
		"nav_menu_item",
		"custom_css",
		"customize_changeset",
		"oembed_cache",
		"user_request",
		"wp_block",
		"wp_template",
		"wp_template_part",
		"wp_global_styles",
		"wp_navigation",
		"wp_font_family",
		"wp_font_face",
	}
	DefaultExcludedStatuses = []string{"trash", "auto-draft"}
)

// Filter evaluates a DocumentQuery against document fields. It is shared by the
// stores that cannot push the query down to a database.
type Filter struct {
	ExcludedTypes    []string
	ExcludedStatuses []string
}

// DefaultFilter returns the filter used when a store is not configured otherwise.
func DefaultFilter() Filter {
	return Filter{
		ExcludedTypes:    append([]string(nil), DefaultExcludedTypes...),
		ExcludedStatuses: append([]string(nil), DefaultExcludedStatuses...),
	}
}

// Match reports whether doc satisfies query, ignoring the cursor and limit.
func (f Filter) Match(doc interfaces.Document, query interfaces.DocumentQuery) bool {
	if isAny(query.PostType) {
		if contains(f.ExcludedTypes, doc.PostType) {
			return false
		}
	} else if doc.PostType != strings.TrimSpace(query.PostType) {
		return false
	}
	if isAny(query.Status) {
		if contains(f.ExcludedStatuses, doc.Status) {
			return false
		}
	} else if doc.Status != strings.TrimSpace(query.Status) {
		return false
	}
	if query.Contains != "" && !strings.Contains(doc.Content, query.Contains) {
		return false
	}
	return true
}

func isAny(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == interfaces.AnyFilter
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 1
	}
	return limit
}
