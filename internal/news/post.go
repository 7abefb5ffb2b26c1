package news

// Post is one news item returned by the backend
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}
