package domain

// PushMessage is the application-level notification payload handed to a
// dispatcher. It is a comparable value type so identical pending
// notifications can be deduplicated.
type PushMessage struct {
	Tag     string `json:"tag"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
