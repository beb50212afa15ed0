package models

// StaleHost is a host database entry whose MAC has not been seen on a switch
// for at least the configured number of months
type StaleHost struct {
	IP        string   `json:"ip"`        // IP address from the host database
	Hostname  string   `json:"hostname"`  // Hostname from the host database
	MAC       string   `json:"mac"`       // Normalized MAC address
	Months    int      `json:"months"`    // Elapsed whole months
	Sightings uint64   `json:"sightings"` // Total switch sightings of the MAC
	Dates     []string `json:"dates"`     // Sighting window used for the calculation
	Vendor    string   `json:"vendor,omitempty"`
}
