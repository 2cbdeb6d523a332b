package domain

type PublicationAction string

const (
	ActionPublished   PublicationAction = "published"
	ActionUnpublished PublicationAction = "unpublished"
)
