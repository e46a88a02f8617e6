package enums

type ContentType string

const (
	ContentTypePost    ContentType = "post"
	ContentTypeComment ContentType = "comment"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentTypePost, ContentTypeComment:
		return true
	}
	return false
}
