package model

// Theme is a room escape theme that can be booked.  Themes are created by
// the catalog administrator and are never updated in place.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique display name.
//  Description – free text shown to customers.
//  Thumbnail   – image URL.
type Theme struct {
	ID          uint64 `json:"id"`          // themes.id
	Name        string `json:"name"`        // themes.name
	Description string `json:"description"` // themes.description
	Thumbnail   string `json:"thumbnail"`   // themes.thumbnail
}
