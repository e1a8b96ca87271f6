package content

// Status version status of a content item
type Status string

const (
	StatusNotCreated          Status = "notCreated"
	StatusCheckedOut          Status = "checkedOut"
	StatusCheckedIn           Status = "checkedIn"
	StatusAwaitingApproval    Status = "awaitingApproval"
	StatusRejected            Status = "rejected"
	StatusDelayedPublish      Status = "delayedPublish"
	StatusPublished           Status = "published"
	StatusPreviouslyPublished Status = "previouslyPublished"
)
