package models

// APIProblem is an RFC 7807 Problem Details body, written by the device
// handlers and referenced by the swagger annotations.
type APIProblem struct {
	Type     string `json:"type" example:"https://pppmirror.dev/problems/not-found"`
	Title    string `json:"title" example:"Not Found"`
	Status   int    `json:"status" example:"404"`
	Detail   string `json:"detail,omitempty" example:"device not found"`
	Instance string `json:"instance,omitempty" example:"/api/v1/devices/42"`
}
