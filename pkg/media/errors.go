package media

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig = errors.New("media: invalid configuration")
	ErrNoFile        = errors.New("media: item has no file")
	ErrNotFound      = errors.New("media: file not found")
	ErrAccessDenied  = errors.New("media: access denied")
	ErrPresignFailed = errors.New("media: presign failed")
	ErrUnavailable   = errors.New("media: storage unavailable")
)

// wrapS3Error maps S3 errors onto the package sentinels. The original error
// is kept as text only, so callers match sentinels rather than AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
