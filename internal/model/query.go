package model

// FilterQuery is the filter selection as submitted by the dashboard form.
type FilterQuery struct {
	Country string `form:"country" binding:"max=200"`
	Type    string `form:"type" binding:"max=200"`
	Sponsor string `form:"sponsor" binding:"max=200"`
}

// MapQuery carries the map view state between requests.
type MapQuery struct {
	Marker *int     `form:"marker" binding:"omitempty,min=0"`
	Hover  string   `form:"hover" binding:"max=200"`
	Lat    *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lng    *float64 `form:"lng" binding:"omitempty,min=-180,max=180"`
	Zoom   *int     `form:"zoom" binding:"omitempty,min=0,max=20"`
}

// TableQuery holds the per-column table filters and paging.
type TableQuery struct {
	Name        string `form:"name" binding:"max=200"`
	City        string `form:"city" binding:"max=200"`
	Country     string `form:"col_country" binding:"max=200"`
	Description string `form:"description" binding:"max=200"`
	Link        string `form:"link" binding:"max=200"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PerPage     int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// DetailQuery selects a record of the filtered list for the detail panel.
type DetailQuery struct {
	Index *int `form:"index" binding:"omitempty,min=0"`
}
