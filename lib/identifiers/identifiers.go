// Package identifiers implements the pure identifier algebra of the host
// site: predicates and total conversions between canonical URLs and slugs
// for every resource kind. Nothing here performs network I/O; conversions
// that need the remote API (slug -> numeric id) live on the resource
// objects themselves.
package identifiers

import (
	"regexp"
	"strconv"
	"strings"

	"jianshukit/lib/apierr"
)

// Host is the canonical scheme+authority the algebra is defined against.
// Endpoint configuration changes where requests go, not what a valid
// identifier looks like.
const Host = "https://www.jianshu.com"

var (
	userURLRe       = regexp.MustCompile(`^https://www\.jianshu\.com/u/([A-Za-z0-9]{6,12})/?$`)
	userSlugRe      = regexp.MustCompile(`^[A-Za-z0-9]{6,12}$`)
	articleURLRe    = regexp.MustCompile(`^https://www\.jianshu\.com/p/([A-Za-z0-9]{12})/?$`)
	articleSlugRe   = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)
	notebookURLRe   = regexp.MustCompile(`^https://www\.jianshu\.com/nb/(\d{7,8})/?$`)
	notebookSlugRe  = regexp.MustCompile(`^\d{7,8}$`)
	collectionURLRe = regexp.MustCompile(`^https://www\.jianshu\.com/c/([A-Za-z0-9]{6,12})/?$`)
	islandURLRe     = regexp.MustCompile(`^https://www\.jianshu\.com/g/([A-Za-z0-9]{16})/?$`)
	islandSlugRe    = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)
	islandPostURLRe = regexp.MustCompile(`^https://www\.jianshu\.com/gp/([A-Za-z0-9]{16})/?$`)
)

func IsUserURL(s string) bool       { return userURLRe.MatchString(s) }
func IsUserSlug(s string) bool      { return userSlugRe.MatchString(s) }
func IsArticleURL(s string) bool    { return articleURLRe.MatchString(s) }
func IsArticleSlug(s string) bool   { return articleSlugRe.MatchString(s) }
func IsNotebookURL(s string) bool   { return notebookURLRe.MatchString(s) }
func IsNotebookSlug(s string) bool  { return notebookSlugRe.MatchString(s) }
func IsCollectionURL(s string) bool { return collectionURLRe.MatchString(s) }
// Collection slugs share the user slug shape.
func IsCollectionSlug(s string) bool { return userSlugRe.MatchString(s) }
func IsIslandURL(s string) bool      { return islandURLRe.MatchString(s) }
func IsIslandSlug(s string) bool     { return islandSlugRe.MatchString(s) }
func IsIslandPostURL(s string) bool  { return islandPostURLRe.MatchString(s) }
func IsIslandPostSlug(s string) bool { return islandSlugRe.MatchString(s) }

func urlToSlug(re *regexp.Regexp, url, kind string) (string, error) {
	groups := re.FindStringSubmatch(url)
	if groups == nil {
		return "", apierr.Inputf("%q is not a valid %s url", url, kind)
	}
	return groups[1], nil
}

func slugToURL(re *regexp.Regexp, slug, prefix, kind string) (string, error) {
	if !re.MatchString(slug) {
		return "", apierr.Inputf("%q is not a valid %s slug", slug, kind)
	}
	return Host + "/" + prefix + "/" + slug, nil
}

func UserURLToSlug(url string) (string, error) {
	return urlToSlug(userURLRe, url, "user")
}

func UserSlugToURL(slug string) (string, error) {
	return slugToURL(userSlugRe, slug, "u", "user")
}

func ArticleURLToSlug(url string) (string, error) {
	return urlToSlug(articleURLRe, url, "article")
}

func ArticleSlugToURL(slug string) (string, error) {
	return slugToURL(articleSlugRe, slug, "p", "article")
}

func NotebookURLToSlug(url string) (string, error) {
	return urlToSlug(notebookURLRe, url, "notebook")
}

func NotebookSlugToURL(slug string) (string, error) {
	return slugToURL(notebookSlugRe, slug, "nb", "notebook")
}

// NotebookURLToID parses the numeric id embedded in a notebook url. The
// notebook is the only kind whose id needs no network round-trip.
func NotebookURLToID(url string) (int64, error) {
	slug, err := NotebookURLToSlug(url)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(slug, 10, 64)
	if err != nil {
		return 0, apierr.Inputf("%q is not a valid notebook id", slug)
	}
	return id, nil
}

func NotebookIDToURL(id int64) (string, error) {
	return NotebookSlugToURL(strconv.FormatInt(id, 10))
}

func CollectionURLToSlug(url string) (string, error) {
	return urlToSlug(collectionURLRe, url, "collection")
}

func CollectionSlugToURL(slug string) (string, error) {
	return slugToURL(userSlugRe, slug, "c", "collection")
}

func IslandURLToSlug(url string) (string, error) {
	return urlToSlug(islandURLRe, url, "island")
}

func IslandSlugToURL(slug string) (string, error) {
	return slugToURL(islandSlugRe, slug, "g", "island")
}

func IslandPostURLToSlug(url string) (string, error) {
	return urlToSlug(islandPostURLRe, url, "island post")
}

func IslandPostSlugToURL(slug string) (string, error) {
	return slugToURL(islandSlugRe, slug, "gp", "island post")
}

// CanonicalURL strips the tolerated trailing slash so equal resources
// compare equal as strings.
func CanonicalURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
