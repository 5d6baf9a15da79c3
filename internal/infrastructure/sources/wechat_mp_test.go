package sources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentMonitor/internal/domain"
)

func loggedInMP(t *testing.T, fb *fakeBrowser) *WechatMP {
	t.Helper()

	store := newMemoryStore()
	raw, err := json.Marshal([]storedCookie{{Name: "slave_sid", Value: "x"}})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), MPSessionKey, raw))

	w := NewWechatMP(fb, Options{Store: store, Now: fixedNow})
	require.NoError(t, w.LoadSession(context.Background()))
	return w
}

func TestWechatMPRequiresSession(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	w := NewWechatMP(fb, Options{Store: newMemoryStore()})
	require.NoError(t, w.LoadSession(context.Background()))

	_, err := w.Search(context.Background(), "x", 2)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
	assert.Empty(t, fb.opened)
}

func TestWechatMPFollowsNextLink(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	first := sogouPage(sogouItem{"第一篇", "/link?url=1", "公众号A", "1月9日"}) +
		`<a id="sogou_next" href="/weixin?page=2">下一页</a>`
	second := sogouPage(sogouItem{"第二篇", "/link?url=2", "公众号B", "刚刚"}) +
		`<a class="np" href="/weixin?page=3">下一页</a>`
	third := sogouPage(sogouItem{"第三篇", "/link?url=3", "公众号C", ""})
	fb.pages[sogouPageURL("砺思", 0, true)] = first
	fb.pages[sogouBaseURL+"/weixin?page=2"] = second
	fb.pages[sogouBaseURL+"/weixin?page=3"] = third

	w := loggedInMP(t, fb)
	records, err := w.Search(context.Background(), "砺思", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Contains(t, fb.opened[0], "sort=1")
	assert.Equal(t, domain.SourceOfficialAccount, records[0].Source)
	assert.Equal(t, "公众号A", records[0].Author)
	require.NotNil(t, records[1].PublishedAt)
	assert.Equal(t, crawlNow, *records[1].PublishedAt)
	assert.Equal(t, "第三篇", records[2].Title)
}

func TestWechatMPStopsWithoutNextLink(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	fb.pages[sogouPageURL("x", 0, true)] = sogouPage(sogouItem{"only", "/link?url=1", "A", ""})

	w := loggedInMP(t, fb)
	records, err := w.Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, fb.opened, 1)
}
