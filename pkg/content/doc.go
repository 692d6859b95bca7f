// Package content defines the content items iterated by the portal loop engine
// and the provider contract used to query them.
//
// A [Provider] turns a provider-native [Query] into a forward-only [Cursor].
// Templates never build queries directly: they pass a [Filter], a flat map of
// field name to scalar value, which the loop engine compiles into a [Query]
// using [Compile] plus its own reserved-key rewriting.
//
//	q, err := content.Compile(content.Filter{"post_author": 3})
//	if err != nil {
//	    return err
//	}
//	q.Type = content.TypePost
//	cur, err := provider.Find(ctx, q)
//
// [SliceCursor] adapts an in-memory slice to the [Cursor] interface; it is what
// both bundled stores return.
package content
