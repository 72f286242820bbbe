package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedgraph/backend/internal/ancestry"
	"gedgraph/backend/internal/crawler"
	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/gedcom"
	"gedgraph/backend/internal/person"
)

type recordingMirror struct {
	saved []int
	err   error
}

func (m *recordingMirror) SaveCrowd(ctx context.Context, c *crowd.Crowd) error {
	m.saved = append(m.saved, c.Len())
	return m.err
}

func testSession(t *testing.T, opts Options) *Session {
	t.Helper()
	relatives := crawler.FetcherFunc(func(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error) {
		var out []person.Raw
		for _, id := range ids {
			raw := person.Raw{ID: id, FirstName: "Jane", LastName: "Doe"}
			if id == "kid" && mask.Has(person.Parents) {
				raw.Relatives.Parents = []person.Raw{
					{ID: "dad", FirstName: "John", Gender: "male"},
					{ID: "mum", FirstName: "Mary", Gender: "female"},
				}
			}
			out = append(out, raw)
		}
		return out, nil
	})
	ancestors := ancestry.FetcherFunc(func(ctx context.Context, id string, depth int) ([]person.Raw, error) {
		return []person.Raw{{ID: id, Father: "dad"}, {ID: "dad", FirstName: "John"}}, nil
	})
	return NewSession(crowd.New(nil), relatives, ancestors, opts)
}

func TestSession_CrawlThenExport(t *testing.T) {
	s := testSession(t, Options{SynthesizeChildless: true})

	stats, err := s.Crawl(context.Background(), []string{"kid"}, 1, person.Parents)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CrowdSize)

	kid, ok := s.Person("kid")
	require.True(t, ok)
	assert.Equal(t, "dad", kid.Father)

	families := s.Families()
	require.Len(t, families, 1)
	assert.Equal(t, "dadxmum", families[0].Key)

	var buf bytes.Buffer
	require.NoError(t, s.WriteGEDCOM(&buf, gedcom.Options{}))
	assert.Contains(t, buf.String(), "0 @Fdadxmum@ FAM")

	summary := s.Summary()
	assert.Equal(t, 3, summary.People)
	assert.Equal(t, []string{"kid"}, summary.Seeds)
}

func TestSession_Ancestors(t *testing.T) {
	s := testSession(t, Options{})
	tree, err := s.Ancestors(context.Background(), "kid", 2)
	require.NoError(t, err)
	assert.Equal(t, "dad", tree.At(2).ID)

	_, ok := s.Person("dad")
	assert.True(t, ok)
}

func TestSession_SaveAndSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crowd.yaml")
	mirror := &recordingMirror{}
	s := testSession(t, Options{StorePath: path, Mirror: mirror})

	_, err := s.Crawl(context.Background(), []string{"solo"}, 1, person.NoEdges)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	loaded, err := crowd.LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, loaded.IDs())

	synced, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, synced)
	assert.Equal(t, []int{1}, mirror.saved)

	mirror.err = errors.New("down")
	_, err = s.Sync(context.Background())
	assert.Error(t, err)
}

func TestSession_WithoutMirrorOrStore(t *testing.T) {
	s := testSession(t, Options{})
	synced, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, synced)
	assert.NoError(t, s.Save())
}
