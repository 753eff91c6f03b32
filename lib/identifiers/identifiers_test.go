package identifiers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRoundTrip(t *testing.T) {
	url, err := UserSlugToURL("52698676395f")
	require.NoError(t, err)
	require.Equal(t, "https://www.jianshu.com/u/52698676395f", url)

	slug, err := UserURLToSlug(url)
	require.NoError(t, err)
	require.Equal(t, "52698676395f", slug)

	// trailing slash is tolerated on the way in
	slug, err = UserURLToSlug(url + "/")
	require.NoError(t, err)
	require.Equal(t, "52698676395f", slug)
}

func TestPredicates(t *testing.T) {
	testCases := []struct {
		url  string
		pred func(string) bool
		ok   bool
	}{
		{url: "https://www.jianshu.com/u/ea36c8d8aa30", pred: IsUserURL, ok: true},
		{url: "https://www.jianshu.com/u/ab", pred: IsUserURL, ok: false},
		{url: "http://www.jianshu.com/u/ea36c8d8aa30", pred: IsUserURL, ok: false},
		{url: "https://www.jianshu.com/p/52698676395f", pred: IsArticleURL, ok: true},
		{url: "https://www.jianshu.com/p/52698676395", pred: IsArticleURL, ok: false},
		{url: "https://www.jianshu.com/nb/40458256", pred: IsNotebookURL, ok: true},
		{url: "https://www.jianshu.com/nb/123", pred: IsNotebookURL, ok: false},
		{url: "https://www.jianshu.com/c/fcd7a62be697", pred: IsCollectionURL, ok: true},
		{url: "https://www.jianshu.com/g/6187f99def472f5e", pred: IsIslandURL, ok: true},
		{url: "https://www.jianshu.com/gp/6187f99def472f5e", pred: IsIslandPostURL, ok: true},
		{url: "https://www.jianshu.com/g/short", pred: IsIslandURL, ok: false},
	}

	for _, test := range testCases {
		require.Equal(t, test.ok, test.pred(test.url), "url %q", test.url)
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	articleURL := "https://www.jianshu.com/p/52698676395f"
	require.False(t, IsUserURL(articleURL))
	require.False(t, IsCollectionURL(articleURL))

	_, err := UserURLToSlug(articleURL)
	require.Error(t, err)
}

func TestNotebookID(t *testing.T) {
	id, err := NotebookURLToID("https://www.jianshu.com/nb/40458256")
	require.NoError(t, err)
	require.Equal(t, int64(40458256), id)

	url, err := NotebookIDToURL(40458256)
	require.NoError(t, err)
	require.Equal(t, "https://www.jianshu.com/nb/40458256", url)

	// ids outside the 7-8 digit shape do not form urls
	_, err = NotebookIDToURL(12)
	require.Error(t, err)
}

func TestIslandRoundTrip(t *testing.T) {
	slug, err := IslandURLToSlug("https://www.jianshu.com/g/6187f99def472f5e/")
	require.NoError(t, err)
	require.Equal(t, "6187f99def472f5e", slug)

	url, err := IslandPostSlugToURL("6187f99def472f5e")
	require.NoError(t, err)
	require.Equal(t, "https://www.jianshu.com/gp/6187f99def472f5e", url)
}

func TestCanonicalURL(t *testing.T) {
	require.Equal(t,
		"https://www.jianshu.com/u/ea36c8d8aa30",
		CanonicalURL("https://www.jianshu.com/u/ea36c8d8aa30/"))
	require.Equal(t,
		"https://www.jianshu.com/u/ea36c8d8aa30",
		CanonicalURL("https://www.jianshu.com/u/ea36c8d8aa30"))
}
