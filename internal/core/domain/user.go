package domain

// User is the record returned by the remote user directory for an area
// leader. It is read-only from this service's point of view.
type User struct {
	IDUser string `json:"idUser"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}
