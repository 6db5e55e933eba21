package poller

// Message is one pending receipt message from the website API. Null
// sender fields decode to empty strings.
type Message struct {
	ID         int64  `json:"id"`
	Content    string `json:"content"`
	SenderName string `json:"sender_name"`
	SenderIP   string `json:"sender_ip"`
	ImageURL   string `json:"image_url"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type pendingResponse struct {
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}
