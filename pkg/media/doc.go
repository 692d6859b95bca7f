// Package media resolves attachment files stored in S3-compatible object
// storage to URLs a browser can load.
//
// Attachments reference their object through content.Item.FileKey. Public
// buckets, or buckets behind a CDN, get plain URLs; private buckets get
// presigned GET URLs that expire:
//
//	m, err := media.New(media.Config{
//	    Bucket:    "site-media",
//	    AccessKey: os.Getenv("MEDIA_ACCESS_KEY"),
//	    SecretKey: os.Getenv("MEDIA_SECRET_KEY"),
//	    PublicURL: "https://cdn.example.com",
//	})
//	u, err := m.URL(ctx, attachment)
//
// [Store] satisfies the portal's MediaResolver, so it plugs in with
// portal.WithMedia. Errors returned by the S3 client are normalized to the
// sentinels in this package; match them with errors.Is.
package media
