package request

// AddTargetRequest is the body of POST /api/targets.
type AddTargetRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}
