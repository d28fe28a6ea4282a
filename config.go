package radiusfailover

// Config is the public configuration surface (§6 "Public API surface").
// Field names use TOML tags so cmd/radius-probe can load a Config
// straight from a config file with github.com/BurntSushi/toml, the way
// the teacher daemon's internal/config package does for its own settings.
type Config struct {
	Host   string   `toml:"host"`
	Hosts  []string `toml:"hosts"`
	Secret string   `toml:"secret"`
	Port   int      `toml:"port"`

	TimeoutMs             int `toml:"timeout_ms"`
	HealthCheckIntervalMs int `toml:"health_check_interval_ms"`
	HealthCheckTimeoutMs  int `toml:"health_check_timeout_ms"`

	HealthCheckUser     string `toml:"health_check_user"`
	HealthCheckPassword string `toml:"health_check_password"`

	AssignmentAttributeID int    `toml:"assignment_attribute_id"`
	VendorID              *uint32 `toml:"vendor_id"`
	VendorType            *uint8  `toml:"vendor_type"`
	ValuePattern          string  `toml:"value_pattern"`

	// HealthStorePath, if set, persists the host-health table across
	// restarts (supplemental feature, see DESIGN.md).
	HealthStorePath string `toml:"health_store_path"`
}

// Default configuration values (§6), named the way internal/config/defaults.go
// names its Default* constants.
const (
	DefaultPort                  = 1812
	DefaultTimeoutMs             = 5000
	DefaultHealthCheckIntervalMs = 1_800_000
	DefaultHealthCheckTimeoutMs  = 5000
	DefaultAssignmentAttributeID = 25
)
