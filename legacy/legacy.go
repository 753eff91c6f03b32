// Package legacy preserves the old flat, URL-in field-out API for callers
// written against earlier releases. Every function asserts the URL shape,
// verifies the resource is live once per process, then delegates to the
// resource objects. No new endpoints are added here.
package legacy

import (
	"context"
	"sync"

	"jianshukit/lib/identifiers"
	"jianshukit/lib/normalize"
	"jianshukit/resources"
)

// checkedURLs remembers which URLs already passed their pre-flight so
// repeated legacy calls don't re-probe the same resource.
var (
	checkedMu   sync.Mutex
	checkedURLs = map[string]bool{}
)

func alreadyChecked(url string) bool {
	checkedMu.Lock()
	defer checkedMu.Unlock()
	return checkedURLs[url]
}

func rememberChecked(url string) {
	checkedMu.Lock()
	defer checkedMu.Unlock()
	checkedURLs[url] = true
}

func userFromURL(ctx context.Context, url string) (*resources.User, error) {
	u, err := resources.UserFromURL(url)
	if err != nil {
		return nil, err
	}
	if alreadyChecked(u.URL()) {
		return resources.NewTrustedUser(u.Slug(), 0), nil
	}
	if err := u.Check(ctx); err != nil {
		return nil, err
	}
	rememberChecked(u.URL())
	return u, nil
}

func articleFromURL(ctx context.Context, url string) (*resources.Article, error) {
	a, err := resources.ArticleFromURL(url)
	if err != nil {
		return nil, err
	}
	if alreadyChecked(a.URL()) {
		return resources.NewTrustedArticle(a.Slug(), 0), nil
	}
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	rememberChecked(a.URL())
	return a, nil
}

func notebookFromURL(ctx context.Context, url string) (*resources.Notebook, error) {
	n, err := resources.NotebookFromURL(url)
	if err != nil {
		return nil, err
	}
	if alreadyChecked(n.URL()) {
		return resources.NewTrustedNotebook(n.ID()), nil
	}
	if err := n.Check(ctx); err != nil {
		return nil, err
	}
	rememberChecked(n.URL())
	return n, nil
}

func collectionFromURL(ctx context.Context, url string) (*resources.Collection, error) {
	c, err := resources.CollectionFromURL(url)
	if err != nil {
		return nil, err
	}
	if alreadyChecked(c.URL()) {
		return resources.NewTrustedCollection(c.Slug(), 0), nil
	}
	if err := c.Check(ctx); err != nil {
		return nil, err
	}
	rememberChecked(c.URL())
	return c, nil
}

func GetUserName(ctx context.Context, url string) (string, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return "", err
	}
	return u.Name(ctx)
}

func GetUserGender(ctx context.Context, url string) (normalize.Gender, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return normalize.GenderUnknown, err
	}
	return u.Gender(ctx)
}

func GetUserArticlesCount(ctx context.Context, url string) (int64, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	info, err := u.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ArticlesCount, nil
}

func GetUserFansCount(ctx context.Context, url string) (int64, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	info, err := u.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.FansCount, nil
}

func GetUserBadges(ctx context.Context, url string) ([]string, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return u.Badges(ctx)
}

func GetUserAssetsCount(ctx context.Context, url string) (float64, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	assets, err := u.AssetsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return assets.AssetsAmount, nil
}

// GetUserWordage returns the published character count. Earlier releases
// conflated this with the assets total; the two are distinct fields.
func GetUserWordage(ctx context.Context, url string) (int64, error) {
	u, err := userFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	info, err := u.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.TotalWordage, nil
}

func GetArticleTitle(ctx context.Context, url string) (string, error) {
	a, err := articleFromURL(ctx, url)
	if err != nil {
		return "", err
	}
	return a.Title(ctx)
}

func GetArticleWordage(ctx context.Context, url string) (int64, error) {
	a, err := articleFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return a.Wordage(ctx)
}

func GetArticleTotalFPAmount(ctx context.Context, url string) (float64, error) {
	a, err := articleFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return a.EarnedFPAmount(ctx)
}

// GetArticlePaidStatus decodes paid_type through the modern six-string
// table; the historical two-string variant is gone.
func GetArticlePaidStatus(ctx context.Context, url string) (normalize.PaidStatus, error) {
	a, err := articleFromURL(ctx, url)
	if err != nil {
		return normalize.PaidStatusNotApplicable, err
	}
	info, err := a.Info(ctx)
	if err != nil {
		return normalize.PaidStatusNotApplicable, err
	}
	return info.Paid.ArticlePaidStatus, nil
}

func GetNotebookName(ctx context.Context, url string) (string, error) {
	n, err := notebookFromURL(ctx, url)
	if err != nil {
		return "", err
	}
	return n.Name(ctx)
}

func GetNotebookArticlesCount(ctx context.Context, url string) (int64, error) {
	n, err := notebookFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return n.ArticlesCount(ctx)
}

func GetCollectionName(ctx context.Context, url string) (string, error) {
	c, err := collectionFromURL(ctx, url)
	if err != nil {
		return "", err
	}
	return c.Name(ctx)
}

func GetCollectionArticlesCount(ctx context.Context, url string) (int64, error) {
	c, err := collectionFromURL(ctx, url)
	if err != nil {
		return 0, err
	}
	info, err := c.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ArticlesCount, nil
}

// AssertUserURL reports whether the URL has the user shape; old callers
// used these before constructing anything.
func AssertUserURL(url string) bool       { return identifiers.IsUserURL(url) }
func AssertArticleURL(url string) bool    { return identifiers.IsArticleURL(url) }
func AssertNotebookURL(url string) bool   { return identifiers.IsNotebookURL(url) }
func AssertCollectionURL(url string) bool { return identifiers.IsCollectionURL(url) }
func AssertIslandURL(url string) bool     { return identifiers.IsIslandURL(url) }
