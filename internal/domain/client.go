package domain

// Client is the logged-in customer, supplied by the session layer
type Client struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
