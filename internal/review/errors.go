package review

import "errors"

var (
	ErrInvalidJob        = errors.New("invalid review job")
	ErrNoDocuments       = errors.New("review job has no documents")
	ErrDocumentTooLarge  = errors.New("document exceeds embedding size limit")
	ErrUnsupportedFormat = errors.New("document format cannot be embedded")
	ErrDownload          = errors.New("document download failed")
	ErrUnknownReviewType = errors.New("unknown review type")
	ErrThrottled         = errors.New("model invocation throttled")
	ErrDelivery          = errors.New("result delivery failed")
)
