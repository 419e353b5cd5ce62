package extract

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func loadFixture(t *testing.T) *goquery.Document {
	t.Helper()
	raw, err := os.ReadFile("testdata/europe_page.html")
	require.NoError(t, err)
	return loadDoc(t, string(raw))
}

func TestExtractFixture(t *testing.T) {
	t.Parallel()

	records, err := NewSkiresort(zap.NewNop()).Extract(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, records, 4)

	kitz := records[0]
	require.Equal(t, "Kitzsteinhorn", kitz.Name)
	require.Equal(t, 2300.0, *kitz.Drop)
	require.Equal(t, 3029.0, *kitz.Highest)
	require.Equal(t, 729.0, *kitz.Lowest)

	zermatt := records[1]
	require.Equal(t, "Zermatt", zermatt.Name)
	require.Equal(t, 2321.0, *zermatt.Drop)
	require.Equal(t, 3883.0, *zermatt.Highest)
	require.Equal(t, 1562.0, *zermatt.Lowest)

	unknown := records[2]
	require.Equal(t, "Unknown Lifts", unknown.Name)
	require.True(t, math.IsNaN(*unknown.Drop))

	twoValues := records[3]
	require.Equal(t, "Two Values", twoValues.Name)
	require.Nil(t, twoValues.Lowest)
}

func TestExtractMissingList(t *testing.T) {
	t.Parallel()

	_, err := NewSkiresort(nil).Extract(loadDoc(t, `<html><body><p>maintenance</p></body></html>`))
	require.ErrorIs(t, err, ErrNoResortList)
	var eErr *Error
	require.ErrorAs(t, err, &eErr)
	require.Equal(t, SkiresortV1, eErr.Version)
}

func TestExtractEmptyList(t *testing.T) {
	t.Parallel()

	records, err := NewSkiresort(nil).Extract(loadDoc(t, `<div id="resortList"></div>`))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	ex := NewSkiresort(nil)

	n, err := ex.PageCount(loadFixture(t))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = ex.PageCount(loadDoc(t, `<div id="resortList"></div>`))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	bad := []string{
		`<ul id="pagebrowser1"><li>1</li></ul>`,
		`<ul id="pagebrowser1"><li><a href="/ski-resorts/europe/">1</a></li></ul>`,
		`<ul id="pagebrowser1"><li><a href="/ski-resorts/europe/page/last/">x</a></li></ul>`,
	}
	for _, html := range bad {
		_, err := ex.PageCount(loadDoc(t, html))
		require.ErrorIs(t, err, ErrPagination, html)
	}
}

func TestParseMeters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  float64
	}{
		{"1234 m", 1234},
		{" 2,321 m ", 2321},
		{"-15 m", -15},
		{"0 m", 0},
		{"812.5 m", 812.5},
	}
	for _, tc := range tests {
		got := parseMeters(tc.label)
		require.NotNil(t, got)
		require.Equal(t, tc.want, *got, tc.label)
	}
	for _, label := range []string{"", "n/a", "m 1200"} {
		require.True(t, math.IsNaN(*parseMeters(label)), label)
	}
}
