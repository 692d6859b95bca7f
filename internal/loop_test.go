package internal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/internal"
	"github.com/dmitrymomot/portal/pkg/content"
)

func TestLoops_Advance(t *testing.T) {
	t.Parallel()

	t.Run("category loop end to end", func(t *testing.T) {
		t.Parallel()
		s := newSite(t)
		p := &countingProvider{Provider: s}
		l := newLoops(t, p, s)
		ctx := context.Background()
		filter := content.Filter{"category": "news"}

		assert.Equal(t, internal.LoopIdle, l.State("posts"))

		it, ok, err := l.Advance(ctx, "posts", internal.FlavorContent, filter, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(12), it.ID)
		assert.Equal(t, internal.LoopActive, l.State("posts"))
		assert.Equal(t, int64(12), l.Ambient().Current().ID())
		assert.Equal(t, "03.01.24", l.Ambient().Current().Day)

		it, ok, err = l.Advance(ctx, "posts", internal.FlavorContent, filter, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(11), it.ID)

		_, ok, err = l.Advance(ctx, "posts", internal.FlavorContent, filter, 2)
		require.NoError(t, err)
		require.False(t, ok)
		assert.Equal(t, internal.LoopExhausted, l.State("posts"))
		assert.Nil(t, l.Ambient().Current().Item, "ambient restored")
		assert.Zero(t, l.Ambient().Depth())
		assert.Equal(t, int32(1), p.calls.Load())

		it, ok, err = l.Advance(ctx, "posts", internal.FlavorContent, filter, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(12), it.ID, "fresh cursor")
		assert.Equal(t, int32(2), p.calls.Load())
	})

	t.Run("nested loop restores the outer item", func(t *testing.T) {
		t.Parallel()
		s := newSite(t)
		l := newLoops(t, s, s)
		ctx := context.Background()

		a1, ok, err := l.Advance(ctx, "A", internal.FlavorContent, nil, 2)
		require.NoError(t, err)
		require.True(t, ok)

		b1, ok, err := l.Advance(ctx, "B", internal.FlavorContent, content.Filter{"category": "local"}, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(12), b1.ID)
		assert.Equal(t, int64(13), a1.ID)
		assert.Equal(t, b1.ID, l.Ambient().Current().ID())

		_, ok, err = l.Advance(ctx, "B", internal.FlavorContent, nil, 1)
		require.NoError(t, err)
		require.False(t, ok)
		require.NotNil(t, l.Ambient().Current().Item)
		assert.Equal(t, a1, *l.Ambient().Current().Item)

		a2, ok, err := l.Advance(ctx, "A", internal.FlavorContent, nil, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, a1.ID, a2.ID)
	})

	t.Run("provider error leaves no loop", func(t *testing.T) {
		t.Parallel()
		s := newSite(t)
		p := &countingProvider{Provider: s}
		p.fail.Store(true)
		l := newLoops(t, p, s)

		_, ok, err := l.Advance(context.Background(), "posts", internal.FlavorContent, nil, 0)
		require.ErrorIs(t, err, errProvider)
		assert.False(t, ok)
		assert.Equal(t, internal.LoopIdle, l.State("posts"))
		assert.Zero(t, l.Ambient().Depth())

		p.fail.Store(false)
		_, ok, err = l.Advance(context.Background(), "posts", internal.FlavorContent, nil, 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outer cannot end while inner is open", func(t *testing.T) {
		t.Parallel()
		s := newSite(t)
		l := newLoops(t, s, s)
		ctx := context.Background()

		_, ok, err := l.Advance(ctx, "outer", internal.FlavorContent, content.Filter{"category": "sports"}, 0)
		require.NoError(t, err)
		require.True(t, ok)
		_, ok, err = l.Advance(ctx, "inner", internal.FlavorContent, nil, 0)
		require.NoError(t, err)
		require.True(t, ok)

		_, _, err = l.Advance(ctx, "outer", internal.FlavorContent, nil, 0)
		require.ErrorIs(t, err, internal.ErrInvalidState)

		require.NoError(t, l.Break(ctx, "inner"))
		_, ok, err = l.Advance(ctx, "outer", internal.FlavorContent, nil, 0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, l.Ambient().Depth())
	})
}

func TestLoops_Filters(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter content.Filter
		limit  int
		want   []int64
	}{
		{name: "published posts newest first", want: []int64{13, 12, 11, 10}},
		{name: "category subtree", filter: content.Filter{"category": "local"}, want: []int64{12, 11}},
		{name: "numeric category selects children", filter: content.Filter{"category": 1}, want: []int64{12, 11}},
		{name: "unknown category matches nothing", filter: content.Filter{"category": "nope"}, want: []int64{}},
		{name: "empty category matches nothing", filter: content.Filter{"category": ""}, want: []int64{}},
		{name: "tag", filter: content.Filter{"tag": "featured"}, want: []int64{10}},
		{name: "page by slug", filter: content.Filter{"page": "about"}, want: []int64{20}},
		{name: "offset", filter: content.Filter{"offset": 1}, limit: 2, want: []int64{12, 11}},
		{name: "any status", filter: content.Filter{"post_status": "any", "category": "news"}, want: []int64{14, 12, 11, 10}},
		{name: "explicit status", filter: content.Filter{"post_status": "draft"}, want: []int64{14}},
		{name: "field equality", filter: content.Filter{"post_author": "7"}, want: []int64{10}},
		{name: "unknown key is ignored", filter: content.Filter{"colour": "red"}, limit: 1, want: []int64{13}},
		{name: "invalid offset is ignored", filter: content.Filter{"offset": "x"}, limit: 1, want: []int64{13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := newLoops(t, s, s)
			items, err := l.All(ctx, internal.FlavorContent, tt.filter, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemIDs(items))
		})
	}
}

func TestLoops_Attachments(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	ctx := context.Background()

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		_, _, err := l.Advance(ctx, "gallery", internal.FlavorAttachment, nil, 0)
		require.ErrorIs(t, err, internal.ErrMissingParent)
		require.ErrorIs(t, err, internal.ErrInvalidState)
		assert.Equal(t, internal.LoopIdle, l.State("gallery"))
		assert.Zero(t, l.Ambient().Depth())
	})

	t.Run("explicit parent", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		items, err := l.All(ctx, internal.FlavorAttachment, content.Filter{"post_parent": 10}, 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{31, 30}, itemIDs(items))
	})

	t.Run("ambient parent and name search", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)

		post, ok, err := l.Advance(ctx, "posts", internal.FlavorContent, content.Filter{"ID": 10}, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(10), post.ID)

		items, err := l.All(ctx, internal.FlavorAttachment, content.Filter{"name": "summ"}, 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{30}, itemIDs(items))
		assert.Equal(t, int64(10), l.Ambient().Current().ID(), "drain restores ambient")
	})
}

func TestLoops_SeqAndBreak(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	ctx := context.Background()

	t.Run("seq drains and restores", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		var got []int64
		for it, err := range l.Seq(ctx, "posts", internal.FlavorContent, nil, 3) {
			require.NoError(t, err)
			got = append(got, it.ID)
		}
		assert.Equal(t, []int64{13, 12, 11}, got)
		assert.Equal(t, internal.LoopExhausted, l.State("posts"))
	})

	t.Run("early stop breaks the loop", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		for it, err := range l.Seq(ctx, "posts", internal.FlavorContent, nil, 0) {
			require.NoError(t, err)
			require.Equal(t, int64(13), it.ID)
			break
		}
		assert.Equal(t, internal.LoopIdle, l.State("posts"))
		assert.Nil(t, l.Ambient().Current().Item)
		assert.Zero(t, l.Ambient().Depth())
	})

	t.Run("panic in the body breaks the loop", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		assert.Panics(t, func() {
			for range l.Seq(ctx, "posts", internal.FlavorContent, nil, 0) {
				panic("render failed")
			}
		})
		assert.Equal(t, internal.LoopIdle, l.State("posts"))
		assert.Nil(t, l.Ambient().Current().Item)
		assert.Zero(t, l.Ambient().Depth())
	})

	t.Run("seq yields provider errors", func(t *testing.T) {
		t.Parallel()
		p := &countingProvider{Provider: s}
		p.fail.Store(true)
		l := newLoops(t, p, s)
		n := 0
		for _, err := range l.Seq(ctx, "posts", internal.FlavorContent, nil, 0) {
			require.ErrorIs(t, err, errProvider)
			n++
		}
		assert.Equal(t, 1, n)
	})

	t.Run("break closes inner loops", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)
		outer := l.Loop("outer", internal.FlavorContent, nil, 0)
		inner := l.Loop("inner", internal.FlavorContent, nil, 0)

		_, _, err := outer.Next(ctx)
		require.NoError(t, err)
		_, _, err = inner.Next(ctx)
		require.NoError(t, err)

		require.NoError(t, outer.Break(ctx))
		assert.Equal(t, internal.LoopIdle, outer.State())
		assert.Equal(t, internal.LoopIdle, inner.State())
		assert.Zero(t, l.Ambient().Depth())

		require.NoError(t, outer.Break(ctx), "idle break is a no-op")
	})
}

func TestLoops_Helpers(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	ctx := context.Background()

	t.Run("page content", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)

		out, err := l.PageContent(ctx, "about", "")
		require.NoError(t, err)
		assert.Contains(t, string(out), "About us</h1>")

		out, err = l.PageContent(ctx, "blank", "")
		require.NoError(t, err)
		assert.Equal(t, "The page &#39;blank&#39; is empty.", string(out))

		out, err = l.PageContent(ctx, "missing", "Nothing at %s")
		require.NoError(t, err)
		assert.Equal(t, "Nothing at missing", string(out))
	})

	t.Run("meta", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)

		v, err := l.Meta(ctx, "color", "<b>", "</b>", 10)
		require.NoError(t, err)
		assert.Equal(t, "<b>red</b>", v)

		v, err = l.Meta(ctx, "color", "<b>", "</b>", 0)
		require.NoError(t, err)
		assert.Empty(t, v, "no ambient item")

		_, _, err = l.Advance(ctx, "one", internal.FlavorContent, content.Filter{"ID": 10}, 0)
		require.NoError(t, err)
		v, err = l.Meta(ctx, "color", "", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "red", v)

		v, err = l.Meta(ctx, "size", "<b>", "</b>", 0)
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("in category", func(t *testing.T) {
		t.Parallel()
		l := newLoops(t, s, s)

		ok, err := l.InCategory(ctx, "news")
		require.NoError(t, err)
		assert.False(t, ok, "no ambient item")

		_, _, err = l.Advance(ctx, "one", internal.FlavorContent, content.Filter{"ID": 12}, 0)
		require.NoError(t, err)
		for slug, want := range map[string]bool{"news": true, "local": true, "city": true, "sports": false} {
			ok, err := l.InCategory(ctx, slug)
			require.NoError(t, err)
			assert.Equal(t, want, ok, slug)
		}
	})
}
