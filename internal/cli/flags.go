package cli

import (
	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/storage"
)

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile string
	DBPath  string
	APIURL  string
	Model   string
	UILang  string
	Verbose bool

	// Translation flags
	From        string
	To          string
	Temperature float64
	NoStream    bool
	HTML        bool
	Quiet       bool
	BatchFile   string
	GUIMode     bool

	// History flags
	Limit int
	Yes   bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		DBPath:      storage.DefaultPath(),
		Temperature: config.DefaultTemperature,
	}
}
