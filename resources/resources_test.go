package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jianshukit/lib/apierr"
	"jianshukit/lib/config"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/testutil"
)

const (
	testUserSlug       = "ea36c8d8aa30"
	testArticleSlug    = "52698676395f"
	testCollectionSlug = "fcd7a62be697"
	testIslandSlug     = "6187f99def472f5e"
	testNotebookID     = int64(40458256)
)

func userInfoBody() map[string]any {
	return map[string]any{
		"id":                    7317434,
		"slug":                  testUserSlug,
		"nickname":              "初心不变_叶子",
		"gender":                2,
		"avatar":                "https://upload.jianshu.io/users/7317434.png",
		"intro":                 "<p>hello</p>",
		"following_users_count": 12,
		"followers_count":       3408,
		"public_notes_count":    248,
		"total_wordage":         352090,
		"total_likes_count":     8120,
		"last_active_at":        1690000000,
		"member":                map[string]any{"type": "gold", "expires_at": 1720000000},
		"badges":                []map[string]any{{"text": "简书创作者"}},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestNewUserInputValidation(t *testing.T) {
	_, err := NewUser(UserOptions{})
	var input *apierr.InputError
	require.ErrorAs(t, err, &input)

	_, err = NewUser(UserOptions{URL: "https://www.jianshu.com/u/" + testUserSlug, Slug: testUserSlug})
	require.ErrorAs(t, err, &input)

	_, err = UserFromURL("https://www.jianshu.com/p/" + testArticleSlug)
	require.ErrorAs(t, err, &input)

	_, err = UserFromSlug("x")
	require.ErrorAs(t, err, &input)

	u, err := UserFromURL("https://www.jianshu.com/u/" + testUserSlug)
	require.NoError(t, err)
	require.Equal(t, testUserSlug, u.Slug())
	require.Equal(t, "https://www.jianshu.com/u/"+testUserSlug, u.URL())
}

func TestUserInfo(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, userInfoBody())
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	ctx := context.Background()
	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)

	info, err := u.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7317434), info.ID)
	require.Equal(t, "初心不变_叶子", info.Name)
	require.Equal(t, normalize.GenderFemale, info.Gender)
	require.Equal(t, int64(3408), info.FansCount)
	require.Equal(t, int64(248), info.ArticlesCount)
	require.Equal(t, normalize.MembershipGold, info.MembershipTier)
	require.Equal(t, []string{"简书创作者"}, info.Badges)

	// pre-flight plus fetch
	require.Equal(t, int64(2), requests.Load())

	id, err := u.ID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7317434), id)

	// memoized
	_, err = u.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), requests.Load())
}

func TestUserInfoAbsentTimestamps(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	body := userInfoBody()
	delete(body, "last_active_at")
	delete(body, "member")
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)
	info, err := u.Info(context.Background())
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC(), info.LastActiveTime, 5*time.Second)
	require.True(t, info.MembershipExpireAt.IsZero())
}

func TestUserInfoCacheDisabled(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, userInfoBody())
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	config.Update(func(cfg *config.Config) { cfg.ResourceCache.Enabled = false })
	defer config.Update(func(cfg *config.Config) { cfg.ResourceCache.Enabled = true })

	ctx := context.Background()
	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)

	_, err = u.Info(ctx)
	require.NoError(t, err)
	after := requests.Load()

	_, err = u.Info(ctx)
	require.NoError(t, err)
	require.Greater(t, requests.Load(), after)
}

func TestUserCheckMissing(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	_, cleanup := testutil.FakeSite(t, http.NotFoundHandler())
	defer cleanup()

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)

	err = u.Check(context.Background())
	var unavailable *apierr.ResourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	// the error names the resource, not the endpoint the pool hit
	require.Equal(t, "https://www.jianshu.com/u/"+testUserSlug, unavailable.URL)
}

func TestAutoCheckDisabled(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	var checks atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		checks.Add(1)
		writeJSON(w, userInfoBody())
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	config.Update(func(cfg *config.Config) { cfg.ResourceCheck.AutoCheck = false })
	defer config.Update(func(cfg *config.Config) { cfg.ResourceCheck.AutoCheck = true })

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)
	_, err = u.Info(context.Background())
	require.NoError(t, err)
	// only the fetch, no pre-flight
	require.Equal(t, int64(1), checks.Load())
}

func TestUserInfoValidationFailure(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	body := userInfoBody()
	body["followers_count"] = -1
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)
	_, err = u.Info(context.Background())
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "UserInfo.FansCount", verr.Field)
}

func TestUserAssetsInfo(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, userInfoBody())
	})
	mux.HandleFunc("/u/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="meta-block"><p>3408</p><div>关注</div></div>
			<div class="meta-block"><p>8.21w</p><div>总资产</div></div>
		</body></html>`))
	})
	mux.HandleFunc("/mobile/u/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="user-info__fp-amount">520.300</div></body></html>`))
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)

	assets, err := u.AssetsInfo(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 82100.0, assets.AssetsAmount, 1e-6)
	require.InDelta(t, 520.3, assets.FPAmount, 1e-6)
	require.InDelta(t, 81579.7, assets.FTNAmount, 1e-6)
}

func articleInfoBody() map[string]any {
	return map[string]any{
		"id":                      88478271,
		"notebook_id":             40458256,
		"public_title":            "黑猫白猫",
		"description":             "一只黑猫",
		"free_content":            "<p>...</p>",
		"wordage":                 1725,
		"views_count":             2870,
		"likes_count":             64,
		"public_comment_count":    30,
		"featured_comments_count": 1,
		"total_rewards_count":     2,
		"total_fp_amount":         52075,
		"first_shared_at":         "2021-05-06T08:59:44+08:00",
		"last_updated_at":         1620262784,
		"commentable":             true,
		"reprintable":             false,
		"paid_type":               "fbook_free",
		"retail_price":            0,
		"paid_content_percent":    "",
		"user": map[string]any{
			"id":       7317434,
			"slug":     testUserSlug,
			"nickname": "初心不变_叶子",
			"avatar":   "https://upload.jianshu.io/users/7317434.png",
		},
	}
}

func TestArticleInfo(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/p/"+testArticleSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, articleInfoBody())
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	ctx := context.Background()
	a, err := ArticleFromSlug(testArticleSlug)
	require.NoError(t, err)

	info, err := a.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, "黑猫白猫", info.Title)
	require.Equal(t, int64(1725), info.Wordage)
	require.Equal(t, 52.075, info.EarnedFPAmount)
	require.Equal(t, normalize.PaidStatusFree, info.Paid.NotebookPaidStatus)
	require.Equal(t, normalize.PaidStatusFree, info.Paid.ArticlePaidStatus)
	require.True(t, info.CanComment)
	require.False(t, info.CanReprint)
	require.Equal(t, "2021-05-06 00:59:44 +0000 UTC", info.PublishTime.String())

	author := info.Author.ToUserObj()
	require.Equal(t, testUserSlug, author.Slug())

	// trusted objects skip the pre-flight
	id, err := author.ID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7317434), id)
}

func TestArticleInfoUnknownPaidType(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	body := articleInfoBody()
	body["paid_type"] = "fbook"
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/p/"+testArticleSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	a, err := ArticleFromSlug(testArticleSlug)
	require.NoError(t, err)
	_, err = a.Info(context.Background())
	var input *apierr.InputError
	require.ErrorAs(t, err, &input)
}

func TestNotebookInfo(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	paid := false
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/nb/40458256", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"name":              "猫事",
			"notes_count":       52,
			"subscribers_count": 141,
			"wordage":           89000,
			"last_updated_at":   1620262784,
			"paid_book":         &paid,
			"user": map[string]any{
				"id":       7317434,
				"slug":     testUserSlug,
				"nickname": "初心不变_叶子",
				"avatar":   "https://upload.jianshu.io/users/7317434.png",
			},
		})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	n, err := NotebookFromID(testNotebookID)
	require.NoError(t, err)
	require.Equal(t, "https://www.jianshu.com/nb/40458256", n.URL())

	info, err := n.Info(context.Background())
	require.NoError(t, err)
	require.Equal(t, "猫事", info.Name)
	require.Equal(t, int64(52), info.ArticlesCount)
	require.Equal(t, normalize.PaidStatusFree, info.PaidStatus)

	fromURL, err := NotebookFromURL("https://www.jianshu.com/nb/40458256")
	require.NoError(t, err)
	require.Equal(t, testNotebookID, fromURL.ID())
}

func TestCollectionInfo(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/collections/slug/"+testCollectionSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id":                1938274,
			"title":             "谈写作",
			"image":             "https://upload.jianshu.io/collections/1938274.png",
			"content":           "<p>写作交流</p>",
			"info_updated_at":   1620262784.507,
			"newly_added_at":    1690000000.0,
			"notes_count":       120843,
			"subscribers_count": 904312,
			"owner": map[string]any{
				"id":       7317434,
				"slug":     testUserSlug,
				"nickname": "初心不变_叶子",
			},
		})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	c, err := CollectionFromURL("https://www.jianshu.com/c/" + testCollectionSlug)
	require.NoError(t, err)

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	require.Equal(t, "谈写作", info.Name)
	require.Equal(t, int64(120843), info.ArticlesCount)
	// fractional epoch seconds truncate on the way in
	require.Zero(t, info.InfoUpdatedTime.Nanosecond())
	require.Equal(t, testUserSlug, info.Owner.ToUserObj().Slug())
}

func TestCollectionIterEditorsPagesOnly(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/1938274/editors", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		if r.URL.Query().Get("page") != "1" {
			writeJSON(w, map[string]any{"editors": []any{}})
			return
		}
		writeJSON(w, map[string]any{"editors": []map[string]any{{
			"id":       7317434,
			"slug":     testUserSlug,
			"nickname": "初心不变_叶子",
			"avatar":   "https://upload.jianshu.io/users/7317434.png",
		}}})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	c := NewTrustedCollection(testCollectionSlug, 1938274)
	editors, err := paging.Collect(context.Background(), c.IterEditors(IterCollectionEditorsOptions{}), 0)
	require.NoError(t, err)
	require.Len(t, editors, 1)
	require.Equal(t, testUserSlug, editors[0].ToUserObj().Slug())
	// the editors endpoint paginates by page number alone
	require.Equal(t, []string{"page=1", "page=2"}, queries)
}

func TestCollectionIterSubscribersCursor(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	subscriber := func(id, sortID int64) map[string]any {
		return map[string]any{
			"id":       id,
			"slug":     testUserSlug,
			"nickname": "读者",
			"avatar":   "https://upload.jianshu.io/users/1.png",
			"sort_id":  sortID,
		}
	}

	var cursors []string
	mux := http.NewServeMux()
	mux.HandleFunc("/collection/1938274/subscribers", func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("max_sort_id"))
		switch len(cursors) {
		case 1:
			writeJSON(w, []map[string]any{subscriber(1, 90), subscriber(2, 88)})
		default:
			writeJSON(w, []any{})
		}
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	c := NewTrustedCollection(testCollectionSlug, 1938274)
	subs, err := paging.Collect(context.Background(), c.IterSubscribers(), 0)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, []string{"", "88"}, cursors)
}

func TestCollectionIterSubscribersStuckCursor(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	mux := http.NewServeMux()
	mux.HandleFunc("/collection/1938274/subscribers", func(w http.ResponseWriter, r *http.Request) {
		// a malformed response whose rows never advance the cursor
		writeJSON(w, []map[string]any{{
			"id":       1,
			"slug":     testUserSlug,
			"nickname": "读者",
			"avatar":   "https://upload.jianshu.io/users/1.png",
			"sort_id":  0,
		}})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	c := NewTrustedCollection(testCollectionSlug, 1938274)
	_, err := paging.Collect(context.Background(), c.IterSubscribers(), 0)
	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestIslandPostsCursor(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	post := func(id, sortedID int64, topic bool) map[string]any {
		p := map[string]any{
			"id":             id,
			"sorted_id":      sortedID,
			"slug":           "abcdef1234567890",
			"content":        "岛上的一天",
			"likes_count":    3,
			"comments_count": 1,
			"created_at":     1690000000,
			"is_best":        false,
			"is_top":         false,
			"user": map[string]any{
				"id":       7317434,
				"slug":     testUserSlug,
				"nickname": "初心不变_叶子",
				"avatar":   "https://upload.jianshu.io/users/7317434.png",
			},
		}
		if topic {
			p["topic"] = map[string]any{"id": 42, "name": "日常"}
		}
		return p
	}

	var maxIDs []string
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/groups/"+testIslandSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"name": "猫岛", "members_count": 10, "posts_count": 2})
	})
	mux.HandleFunc("/asimov/posts", func(w http.ResponseWriter, r *http.Request) {
		maxID := r.URL.Query().Get("max_id")
		maxIDs = append(maxIDs, maxID)
		if maxID != "" {
			writeJSON(w, []any{})
			return
		}
		writeJSON(w, []any{post(201, 100, true), post(200, 99, false)})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	ctx := context.Background()
	island, err := IslandFromSlug(testIslandSlug)
	require.NoError(t, err)

	posts, err := paging.Collect(ctx, island.IterPosts(IterIslandPostsOptions{}), 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].Topic)
	require.Equal(t, "日常", posts[0].Topic.Name)
	require.Nil(t, posts[1].Topic)
	require.Nil(t, posts[1].Badge)

	// the second request carries the last sorted_id as the cursor
	require.Equal(t, []string{"", "99"}, maxIDs)
}

func TestUserIterArticles(t *testing.T) {
	defer testutil.Setup(t, "resources")()

	summary := func(id int64, slug, title string) map[string]any {
		return map[string]any{
			"id":                    id,
			"slug":                  slug,
			"title":                 title,
			"first_shared_at":       "2021-05-06T08:59:44+08:00",
			"views_count":           10,
			"likes_count":           2,
			"public_comments_count": 1,
			"paid":                  false,
			"is_top":                false,
		}
	}

	var pages []string
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, userInfoBody())
	})
	mux.HandleFunc("/asimov/users/slug/"+testUserSlug+"/public_notes", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			writeJSON(w, []any{summary(1001, "aaaaaaaaaaaa", "one"), summary(1002, "bbbbbbbbbbbb", "two")})
		case "2":
			writeJSON(w, []any{summary(1003, "cccccccccccc", "three")})
		default:
			writeJSON(w, []any{})
		}
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	u, err := UserFromSlug(testUserSlug)
	require.NoError(t, err)

	articles, err := paging.Collect(context.Background(), u.IterArticles(IterUserArticlesOptions{PageSize: 2}), 0)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	require.Equal(t, "one", articles[0].Title)
	require.Equal(t, []string{"1", "2", "3"}, pages)

	a := articles[2].ToArticleObj()
	require.Equal(t, "cccccccccccc", a.Slug())
}
