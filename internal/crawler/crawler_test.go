package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/extract"
	"github.com/JakeFAU/skiresort-ranker/internal/fetcher"
)

// MockFetcher is a mock implementation of the PageFetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, address string) (fetcher.Page, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(fetcher.Page), args.Error(1)
}

// listing renders a listing page with one resort per name and, when last > 1,
// a pager whose final link points at page last.
func listing(base string, last int, names ...string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div id="resortList">`)
	for i, name := range names {
		fmt.Fprintf(&b, `<div><a class="h3" href="#">%s</a><table class="info-table">`+
			`<tr><td>Rating</td><td>4</td></tr>`+
			`<tr><td>Elevation</td><td><span>%d m</span><span>%d m</span><span>%d m</span></td></tr>`+
			`</table></div>`, name, 1000+i, 2000+i, 1000)
	}
	b.WriteString(`</div>`)
	if last > 1 {
		fmt.Fprintf(&b, `<ul id="pagebrowser1"><li><a href="https://www.skiresort.info/ski-resorts/%s/">1</a></li>`+
			`<li><a href="https://www.skiresort.info/ski-resorts/%s/page/%d/">%d</a></li></ul>`, base, base, last, last)
	}
	b.WriteString(`</body></html>`)
	return []byte(b.String())
}

func page(address string, body []byte) fetcher.Page {
	return fetcher.Page{Address: address, StatusCode: 200, Body: body}
}

func newTestCrawler(f PageFetcher) *Crawler {
	return New(f, extract.NewSkiresort(zap.NewNop()), zap.NewNop())
}

func names(run Run) []string {
	out := make([]string, 0, len(run.Records))
	for _, r := range run.Records {
		out = append(out, r.Name)
	}
	return out
}

func TestCrawlFetchesRemainingPagesInOrder(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "europe").Return(page("europe", listing("europe", 5, "A1", "A2")), nil).Once()
	for i := 2; i <= 5; i++ {
		addr := fmt.Sprintf("europe/page/%d", i)
		f.On("Fetch", mock.Anything, addr).Return(page(addr, listing("europe", 5, fmt.Sprintf("P%d", i))), nil).Once()
	}

	run, err := newTestCrawler(f).Crawl(context.Background(), "europe")
	require.NoError(t, err)

	f.AssertExpectations(t)
	f.AssertNumberOfCalls(t, "Fetch", 5)
	require.Equal(t, 5, run.PageCount)
	require.Equal(t, []string{"A1", "A2", "P2", "P3", "P4", "P5"}, names(run))
	require.Equal(t, 5, run.PagesOK)
	require.Equal(t, 6, run.Accepted)
	require.NotEmpty(t, run.ID.String())

	var order []string
	for _, call := range f.Calls {
		order = append(order, call.Arguments.String(1))
	}
	require.Equal(t, []string{"europe", "europe/page/2", "europe/page/3", "europe/page/4", "europe/page/5"}, order)
}

func TestCrawlSkipsFailedPage(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "europe").Return(page("europe", listing("europe", 5, "A1")), nil)
	f.On("Fetch", mock.Anything, "europe/page/2").Return(page("europe/page/2", listing("europe", 5, "P2")), nil)
	f.On("Fetch", mock.Anything, "europe/page/3").Return(fetcher.Page{}, &fetcher.Error{Kind: fetcher.KindUnknown, Address: "europe/page/3"})
	f.On("Fetch", mock.Anything, "europe/page/4").Return(page("europe/page/4", listing("europe", 5, "P4")), nil)
	f.On("Fetch", mock.Anything, "europe/page/5").Return(page("europe/page/5", listing("europe", 5, "P5")), nil)

	run, err := newTestCrawler(f).Crawl(context.Background(), "europe")
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "P2", "P4", "P5"}, names(run))
	require.Equal(t, 4, run.PagesOK)
	require.Equal(t, 1, run.PagesFailed)
}

func TestCrawlSkipsPageWithoutList(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "asia").Return(page("asia", listing("asia", 2, "A1")), nil)
	f.On("Fetch", mock.Anything, "asia/page/2").Return(page("asia/page/2", []byte("<html><body>gone</body></html>")), nil)

	run, err := newTestCrawler(f).Crawl(context.Background(), "asia")
	require.NoError(t, err)
	require.Equal(t, []string{"A1"}, names(run))
	require.Equal(t, 1, run.PagesFailed)
}

func TestCrawlFirstPageFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "narnia").Return(fetcher.Page{}, &fetcher.Error{Kind: fetcher.KindNotFound, Address: "narnia"})

	_, err := newTestCrawler(f).Crawl(context.Background(), "narnia")
	require.ErrorIs(t, err, fetcher.ErrNotFound)
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestCrawlSinglePage(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "africa").Return(page("africa", listing("africa", 1, "Oukaimeden", "Afriski")), nil)

	run, err := newTestCrawler(f).Crawl(context.Background(), "/africa/")
	require.NoError(t, err)
	require.Equal(t, "africa", run.Address)
	require.Equal(t, 1, run.PageCount)
	require.Equal(t, []string{"Oukaimeden", "Afriski"}, names(run))
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestCrawlDropsInvalidRecords(t *testing.T) {
	t.Parallel()

	body := []byte(`<div id="resortList">
<div><a class="h3">Good</a><table class="info-table"><tr><td></td></tr><tr><td><span>500 m</span><span>1500 m</span><span>1000 m</span></td></tr></table></div>
<div><a class="h3">Bad</a><table class="info-table"><tr><td></td></tr><tr><td><span>? m</span><span>1500 m</span><span>1000 m</span></td></tr></table></div>
<div><a class="h3">Short</a><table class="info-table"><tr><td></td></tr><tr><td><span>500 m</span><span>1500 m</span></td></tr></table></div>
</div>`)
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "europe").Return(page("europe", body), nil)

	run, err := newTestCrawler(f).Crawl(context.Background(), "europe")
	require.NoError(t, err)
	require.Equal(t, []string{"Good"}, names(run))
	require.Equal(t, 1, run.Accepted)
	require.Equal(t, 2, run.Rejected)
}

func TestCrawlIsRepeatable(t *testing.T) {
	t.Parallel()

	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "europe").Return(page("europe", listing("europe", 2, "A1")), nil)
	f.On("Fetch", mock.Anything, "europe/page/2").Return(page("europe/page/2", listing("europe", 2, "P2")), nil)

	c := newTestCrawler(f)
	first, err := c.Crawl(context.Background(), "europe")
	require.NoError(t, err)
	second, err := c.Crawl(context.Background(), "europe")
	require.NoError(t, err)
	require.Equal(t, first.Records, second.Records)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCrawlHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "europe").Return(page("europe", listing("europe", 3, "A1")), nil).Run(func(mock.Arguments) {
		cancel()
	})

	_, err := newTestCrawler(f).Crawl(ctx, "europe")
	require.ErrorIs(t, err, context.Canceled)
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestCrawlRequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := newTestCrawler(new(MockFetcher)).Crawl(context.Background(), "  ")
	require.Error(t, err)
}

func TestCrawlRunIDFailure(t *testing.T) {
	t.Parallel()

	c := newTestCrawler(new(MockFetcher))
	c.newID = func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy") }
	_, err := c.Crawl(context.Background(), "europe")
	require.ErrorContains(t, err, "entropy")
}
