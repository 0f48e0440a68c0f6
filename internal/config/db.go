package config

// DB holds the database configuration settings.
// GormEngine selects the gorm driver: "mysql" or "postgres".
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}
