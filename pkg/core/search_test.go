package core

import (
	"strings"
	"testing"

	"github.com/oneconcern/refstore/internal/rand"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("api-docs", map[string]string{
		"intro.md":     "Welcome\nThe Widget API is RESTful\n",
		"ref/calls.md": "GET /widgets\nPOST /widgets\n",
		"logo.bin":     string(rand.Binary(64)) + "widget",
		"large.txt":    strings.Repeat("widget\n", int(maxSearchFileSize)/7+1),
	}, model.ReferenceDescription("Everything about widgets"), model.ReferenceTags([]string{"http"}))
	f.addDir("style", map[string]string{"guide.md": "use tabs\n"}, model.ReferenceTags([]string{"widgets"}))
	remote := f.newRemote("shared", map[string]map[string]string{"faq": {"faq.md": "Q: what is a widget?\n"}})
	_, err := f.repo.RegistryAdd(f.ctx, "shared", remote)
	require.NoError(t, err)

	for _, toPin := range []struct {
		Name     string
		Query    string
		Options  []SearchOption
		Expected []string
	}{
		{
			Name:  "all fields, case-insensitive",
			Query: "WIDGET",
			Expected: []string{
				"local:api-docs: description: Everything about widgets",
				"local:api-docs:intro.md:2: The Widget API is RESTful",
				"local:api-docs:ref/calls.md:1: GET /widgets",
				"local:api-docs:ref/calls.md:2: POST /widgets",
				"local:style: tags: widgets",
				"shared:faq:faq.md:1: Q: what is a widget?",
			},
		},
		{
			Name:     "limit",
			Query:    "widget",
			Options:  []SearchOption{SearchLimit(2)},
			Expected: []string{"local:api-docs: description: Everything about widgets", "local:api-docs:intro.md:2: The Widget API is RESTful"},
		},
		{
			Name:     "scope",
			Query:    "widget",
			Options:  []SearchOption{SearchScope("style")},
			Expected: []string{"local:style: tags: widgets"},
		},
		{
			Name:     "registry",
			Query:    "widget",
			Options:  []SearchOption{SearchRegistry("shared")},
			Expected: []string{"shared:faq:faq.md:1: Q: what is a widget?"},
		},
		{
			Name:     "metadata only",
			Query:    "api",
			Options:  []SearchOption{SearchMetadataOnly()},
			Expected: []string{"local:api-docs: name: api-docs"},
		},
		{
			Name:     "content only",
			Query:    "tabs",
			Options:  []SearchOption{SearchContentOnly()},
			Expected: []string{"local:style:guide.md:1: use tabs"},
		},
		{
			Name:     "no match",
			Query:    "gadget",
			Expected: []string{},
		},
		{
			Name:     "blank query",
			Query:    "  ",
			Expected: []string{},
		},
	} {
		tc := toPin
		t.Run(tc.Name, func(t *testing.T) {
			results, err := f.repo.Search(f.ctx, tc.Query, tc.Options...)
			require.NoError(t, err)
			actual := make([]string, 0, len(results))
			for _, r := range results {
				actual = append(actual, r.String())
			}
			assert.Equal(t, tc.Expected, actual)
		})
	}
}
