package models

// Artist is a performer known to the artist registry.
type Artist struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	NormalizedName  string `json:"normalizedName"`
	TotalEventCount int    `json:"totalEventCount"`
}
