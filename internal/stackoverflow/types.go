package stackoverflow

// Question is a question as served by the Teams API v3.
type Question struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	WebURL           string `json:"webUrl,omitempty"`
	Score            int    `json:"score"`
	ViewCount        int    `json:"viewCount,omitempty"`
	IsAnswered       bool   `json:"isAnswered"`
	AnswerCount      int    `json:"answerCount,omitempty"`
	Tags             []Tag  `json:"tags,omitempty"`
	CreationDate     string `json:"creationDate,omitempty"`
	LastActivityDate string `json:"lastActivityDate,omitempty"`
}

// Tag is a tag with its usage count.
type Tag struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PostCount   int    `json:"postCount"`
	WebURL      string `json:"webUrl,omitempty"`
}

// User is a Teams member profile. The /users/me endpoint returns the profile
// belonging to the bearer token, which is how tokens are validated.
type User struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
	Department string `json:"department,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	WebURL     string `json:"webUrl,omitempty"`
	Reputation int    `json:"reputation"`
	Role       string `json:"role,omitempty"`
}

// SearchItem is a single free-text search hit. Search results mix content
// types, so the question fields are only populated when Type is "question".
type SearchItem struct {
	ID           int    `json:"id"`
	Type         string `json:"type,omitempty"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt,omitempty"`
	Score        int    `json:"score"`
	IsAnswered   bool   `json:"isAnswered,omitempty"`
	WebURL       string `json:"webUrl,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
}

// Page is one server page of a paginated list response.
//
// The API reports the overall total in totalCount; everything else about
// client-side paging (number of display pages, slice offsets) is derived from
// it rather than trusted from the response.
type Page[T any] struct {
	TotalCount int    `json:"totalCount"`
	PageSize   int    `json:"pageSize"`
	PageNumber int    `json:"page"`
	Sort       string `json:"sort,omitempty"`
	Order      string `json:"order,omitempty"`
	Items      []T    `json:"items"`
}
