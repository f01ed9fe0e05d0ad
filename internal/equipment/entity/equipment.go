package entity

import "github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"

// Client owns equipment.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Location is where a piece of equipment is installed.
type Location struct {
	ID          int64  `json:"id"`
	ServiceArea string `json:"service_area"`
	Floor       string `json:"floor,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

type Equipment struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	LocationID int64     `json:"location_id"`
	Type       string    `json:"type"`
	Brand      string    `json:"brand,omitempty"`
	Model      string    `json:"model,omitempty"`
	Serial     string    `json:"serial,omitempty"`
	IntakeDate string    `json:"intake_date,omitempty"`
	Client     *Client   `json:"client,omitempty"`
	Location   *Location `json:"location,omitempty"`
}

type ListFilter struct {
	Page       int
	Limit      int
	Search     string
	ClientID   *int64
	LocationID *int64
	Type       string
	Brand      string
}

type FilterOptions struct {
	Clients   []Client   `json:"clients"`
	Locations []Location `json:"locations"`
	Types     []string   `json:"types"`
	Brands    []string   `json:"brands"`
}

type ListResult struct {
	Equipment  []Equipment          `json:"equipment"`
	Pagination utilities.Pagination `json:"pagination"`
	Filters    FilterOptions        `json:"filters"`
}

// LocationGroup lists the equipment installed at one location.
type LocationGroup struct {
	Location  Location    `json:"location"`
	Label     string      `json:"label"`
	Equipment []Equipment `json:"equipment"`
}
