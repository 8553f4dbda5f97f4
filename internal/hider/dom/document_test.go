package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<!DOCTYPE html><html><head><title>t</title></head><body><div id="feed"><a href="/x">x</a></div></body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, d *Document, id string) *html.Node {
	t.Helper()
	n := QueryFirst(d.Root(), MustCompile("#"+id))
	require.NotNil(t, n, "no element #%s", id)
	return n
}

func TestParse_BodyAndHead(t *testing.T) {
	doc := mustParse(t, page)

	require.NotNil(t, doc.Body())
	require.NotNil(t, doc.Head())
	assert.Equal(t, "body", doc.Body().Data)
	assert.Equal(t, "head", doc.Head().Data)
	assert.Contains(t, doc.String(), `<div id="feed">`)
}

func TestAppendHTML_EmitsOneBatch(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")

	var got []MutationBatch
	doc.Observe(func(b MutationBatch) { got = append(got, b) })

	added, err := doc.AppendHTML(feed, `<div class="card"><a data-username="u">u</a></div><span>s</span>`)
	require.NoError(t, err)

	require.Len(t, added, 2)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)
	require.Len(t, got[0].Records, 1)
	assert.Same(t, feed, got[0].Records[0].Target)
	assert.Equal(t, added, got[0].Records[0].Added)
	assert.Same(t, feed, added[0].Parent)
}

func TestBatch_GroupsRecords(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")

	var got []MutationBatch
	doc.Observe(func(b MutationBatch) { got = append(got, b) })

	err := doc.Batch(func(tx *Tx) error {
		if err := tx.AppendChild(feed, Element("div")); err != nil {
			return err
		}
		_, err := tx.AppendHTML(feed, "<p>two</p>")
		return err
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Len(t, got[0].Records, 2)
}

func TestBatch_EmptyEmitsNothing(t *testing.T) {
	doc := mustParse(t, page)
	calls := 0
	doc.Observe(func(MutationBatch) { calls++ })

	require.NoError(t, doc.Batch(func(*Tx) error { return nil }))
	assert.Zero(t, calls)
}

func TestObserve_ReentrantBatchesAreQueued(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")

	depth, maxDepth := 0, 0
	var seqs []uint64
	doc.Observe(func(b MutationBatch) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		seqs = append(seqs, b.Seq)
		if b.Seq < 3 {
			// a mutation made from inside a callback
			require.NoError(t, doc.AppendChild(feed, Element("i")))
		}
		depth--
	})

	require.NoError(t, doc.AppendChild(feed, Element("b")))

	assert.Equal(t, 1, maxDepth, "callbacks must not nest")
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestObserve_Cancel(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")

	a, b := 0, 0
	cancelA := doc.Observe(func(MutationBatch) { a++ })
	doc.Observe(func(MutationBatch) { b++ })

	require.NoError(t, doc.AppendChild(feed, Element("b")))
	cancelA()
	cancelA()
	require.NoError(t, doc.AppendChild(feed, Element("b")))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestInsertBefore_MovesAttachedNode(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")
	body := doc.Body()

	first := feed.FirstChild
	require.NoError(t, doc.InsertBefore(body, first, feed))

	assert.Same(t, body, first.Parent)
	assert.Same(t, feed, first.NextSibling)
	assert.Nil(t, feed.FirstChild)
}

func TestRemoveChild(t *testing.T) {
	doc := mustParse(t, page)
	feed := byID(t, doc, "feed")

	var rec MutationRecord
	doc.Observe(func(b MutationBatch) { rec = b.Records[0] })

	link := feed.FirstChild
	require.NoError(t, doc.RemoveChild(feed, link))
	assert.Equal(t, []*html.Node{link}, rec.Removed)
	assert.Empty(t, rec.Added)

	assert.Error(t, doc.RemoveChild(feed, link))
}

func TestMutations_RejectNonElementParents(t *testing.T) {
	doc := mustParse(t, page)
	text := Text("x")

	assert.ErrorIs(t, doc.AppendChild(text, Element("b")), ErrNotElement)
	_, err := doc.AppendHTML(nil, "<b></b>")
	assert.ErrorIs(t, err, ErrNotElement)
}

func TestRender_RoundTrip(t *testing.T) {
	doc := mustParse(t, page)
	var b strings.Builder
	require.NoError(t, doc.Render(&b))

	again := mustParse(t, b.String())
	assert.Equal(t, doc.String(), again.String())
}
