package models

// Photo is a stock photo candidate resolved for an article.
type Photo struct {
	ImageURL         string `json:"imageUrl"`
	PhotographerName string `json:"photographerName"`
	PhotographerURL  string `json:"photographerUrl"`
	PhotoID          string `json:"photoId"`
}
