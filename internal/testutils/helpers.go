// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes a Loam repository in a temporary directory and
// returns its absolute path with the repository.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SampleDocument is a two-page landing site with a bound title variable.
//
//	Home (pHome01)          About (pAbout1)
//	  hero  div               span "About us"
//	    Heading  text=title
//	    Button "Sign up"
func SampleDocument(t *testing.T) domain.Document {
	t.Helper()
	b := dsl.New().Variable("vTitle1", "title", domain.VariableString, "Welcome")
	b.Page("pHome01", "Home").Add(
		dsl.Layer("lHero01", "div").Name("hero").Add(
			dsl.Layer("lHead01", "Heading").Bind("text", "vTitle1"),
			dsl.Layer("lCta001", "Button").Prop("variant", "primary").Text("Sign up"),
		),
	)
	b.Page("pAbout1", "About").Add(
		dsl.Layer("lSpan01", "span").Text("About us"),
	)
	doc, err := b.Select("pHome01", "lCta001").Build()
	require.NoError(t, err)
	return doc
}

// SeedFileStore writes doc as id into a JSON file store rooted at dir.
func SeedFileStore(t *testing.T, dir, id string, doc domain.Document) {
	t.Helper()
	require.NoError(t, file.New(dir).Save(context.Background(), id, codec.Encode(doc)))
}
