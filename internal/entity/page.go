package entity

// Page is everything the UI page shows for one request.
type Page struct {
	Session *Session
	Notice  *Notice
	Files   []*File
	Query   string
	Preview *Preview
}
