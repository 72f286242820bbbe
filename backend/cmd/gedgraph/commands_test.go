package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedgraph/backend/internal/ancestry"
	"gedgraph/backend/internal/crawler"
	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/merge"
	"gedgraph/backend/internal/person"
	"gedgraph/backend/internal/services"
	"gedgraph/backend/pkg/config"
)

// fakeOpener serves a fixed three person family and shares one crowd
// across invocations, like the store file would.
func fakeOpener(t *testing.T, names map[string]string) opener {
	t.Helper()
	resolver := merge.NewResolver(nil)
	c := crowd.New(resolver)

	relatives := crawler.FetcherFunc(func(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error) {
		var out []person.Raw
		for _, id := range ids {
			raw := person.Raw{ID: id, FirstName: names[id]}
			if id == "kid" && mask.Has(person.Parents) {
				raw.Relatives.Parents = []person.Raw{
					{ID: "dad", FirstName: names["dad"], Gender: "male"},
					{ID: "mum", FirstName: names["mum"], Gender: "female"},
				}
			}
			out = append(out, raw)
		}
		return out, nil
	})
	ancestors := ancestry.FetcherFunc(func(ctx context.Context, id string, depth int) ([]person.Raw, error) {
		return []person.Raw{
			{ID: id, FirstName: names[id], Father: "dad", Mother: "mum"},
			{ID: "dad", FirstName: names["dad"]},
			{ID: "mum", FirstName: names["mum"]},
		}, nil
	})

	return func(ctx context.Context, cfg *config.Config, decider merge.Decider) (*services.Session, func(), error) {
		resolver.SetDecider(decider)
		return services.NewSession(c, relatives, ancestors, services.Options{}), func() {}, nil
	}
}

func run(t *testing.T, open opener, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "crowd.yaml"))
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var family = map[string]string{"kid": "Jane", "dad": "John", "mum": "Mary"}

func TestCrawlCommand(t *testing.T) {
	open := fakeOpener(t, family)

	out, err := run(t, open, "", "crawl", "kid", "--radius", "1", "--edges", "parents", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "crowd now holds 3 people")

	out, err = run(t, open, "", "show", "dad")
	require.NoError(t, err)
	assert.Contains(t, out, `"first_name": "John"`)
}

func TestCrawlCommand_BadEdges(t *testing.T) {
	_, err := run(t, fakeOpener(t, family), "", "crawl", "kid", "--edges", "cousins")
	assert.Error(t, err)
}

func TestAncestorsCommand(t *testing.T) {
	out, err := run(t, fakeOpener(t, family), "", "ancestors", "kid", "--depth", "2", "--no-save")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Jane [kid]")
	assert.Contains(t, lines[1], "   2    John [dad]")
	assert.Contains(t, lines[2], "   3    Mary [mum]")
}

func TestExportCommand(t *testing.T) {
	open := fakeOpener(t, family)
	_, err := run(t, open, "", "crawl", "kid", "-r", "1", "-e", "parents", "--no-save")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.ged")
	_, err = run(t, open, "", "export", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0 @Fdadxmum@ FAM")
	assert.True(t, strings.HasSuffix(string(data), "0 TRLR\n"))
}

type failingCloser struct {
	bytes.Buffer
}

func (failingCloser) Close() error {
	return errors.New("disk full")
}

func TestExportCommand_CloseErrorFails(t *testing.T) {
	orig := createFile
	defer func() { createFile = orig }()
	var target failingCloser
	createFile = func(path string) (io.WriteCloser, error) {
		return &target, nil
	}

	_, err := run(t, fakeOpener(t, family), "", "export", "-o", "out.ged")
	assert.ErrorContains(t, err, "close out.ged: disk full")
	assert.Contains(t, target.String(), "0 TRLR")
}

func TestCrawlCommand_PromptsOnConflict(t *testing.T) {
	names := map[string]string{"kid": "Jane", "dad": "John", "mum": "Mary"}
	open := fakeOpener(t, names)
	_, err := run(t, open, "", "crawl", "dad", "-e", "none", "--no-save")
	require.NoError(t, err)

	names["dad"] = "Johan"
	_, err = run(t, open, "", "crawl", "dad", "-e", "none", "--no-save", "--no-prompt")
	assert.Error(t, err)

	_, err = run(t, open, "r\n", "crawl", "dad", "-e", "none", "--no-save")
	require.NoError(t, err)

	out, err := run(t, open, "", "show", "dad")
	require.NoError(t, err)
	assert.Contains(t, out, `"first_name": "Johan"`)
}

func TestSyncCommand_NotConfigured(t *testing.T) {
	_, err := run(t, fakeOpener(t, family), "", "sync")
	assert.ErrorContains(t, err, "NEO4J_URI")
}
