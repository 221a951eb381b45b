package fetchdogs

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Dog is a catalog record as returned by POST /dogs.
type Dog struct {
	ID      string `json:"id"`
	Img     string `json:"img"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	ZipCode string `json:"zip_code"`
	Breed   string `json:"breed"`
}

// SearchParams are the query parameters of GET /dogs/search. Nil fields are omitted.
type SearchParams struct {
	Breeds []string
	AgeMin *int
	AgeMax *int
	Size   *int
	Sort   *string
}

// SearchResponse is one page of matching ids. Next and Prev are relative URLs (path plus
// query) to be replayed as-is.
type SearchResponse struct {
	ResultIDs []string `json:"resultIds"`
	Total     int      `json:"total"`
	Next      *string  `json:"next,omitempty"`
	Prev      *string  `json:"prev,omitempty"`
}

// MatchResponse is the body of POST /dogs/match.
type MatchResponse struct {
	Match string `json:"match"`
}
